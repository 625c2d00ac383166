package etl

import (
	"context"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
)

// AdapterHealth is the health of one registered adapter.
type AdapterHealth struct {
	Name      string        `json:"name"`
	Sport     model.SportID `json:"sport,omitempty"`
	Healthy   bool          `json:"healthy"`
	LatencyMS int64         `json:"latency_ms"`
}

const maxHealthChecks = 4

// CheckAdapters runs HealthCheck on every adapter in registry concurrently,
// each bounded by timeout. Results are sorted by name.
func CheckAdapters(ctx context.Context, registry *provider.Registry, timeout time.Duration) []AdapterHealth {
	p := pool.NewWithResults[AdapterHealth]().WithMaxGoroutines(maxHealthChecks)
	for _, a := range registry.All() {
		p.Go(func() AdapterHealth {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			start := time.Now()
			healthy := a.HealthCheck(checkCtx)
			return AdapterHealth{
				Name:      a.Name(),
				Sport:     a.Sport(),
				Healthy:   healthy,
				LatencyMS: time.Since(start).Milliseconds(),
			}
		})
	}
	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}
