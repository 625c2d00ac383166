// Package maintenance runs periodic background tasks for the API server as
// Go tickers.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// RunReaper fails runs abandoned in the running state. *etl.Loader
// satisfies it.
type RunReaper interface {
	ReapStaleRuns(ctx context.Context, maxAge time.Duration) (int, error)
}

// Evicter drops expired entries. *cache.Cache satisfies it.
type Evicter interface {
	EvictExpired()
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CacheEvictInterval time.Duration
	StaleRunInterval   time.Duration
	// StaleRunAge is how long a run may stay running before it is failed.
	StaleRunAge time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CacheEvictInterval: time.Minute,
		StaleRunInterval:   15 * time.Minute,
		StaleRunAge:        2 * time.Hour,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, reaper RunReaper, evicter Evicter, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cache_evict", cfg.CacheEvictInterval,
		"stale_runs", cfg.StaleRunInterval,
		"stale_run_age", cfg.StaleRunAge)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.CacheEvictInterval > 0 && evicter != nil {
		t := time.NewTicker(cfg.CacheEvictInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, evicter.EvictExpired)
	}

	if cfg.StaleRunInterval > 0 && cfg.StaleRunAge > 0 && reaper != nil {
		reap := func() { reapStaleRuns(ctx, reaper, cfg.StaleRunAge, logger) }
		// Sweep once at startup for runs orphaned by the previous process.
		reap()
		t := time.NewTicker(cfg.StaleRunInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, reap)
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func reapStaleRuns(ctx context.Context, reaper RunReaper, maxAge time.Duration, logger *slog.Logger) {
	if _, err := reaper.ReapStaleRuns(ctx, maxAge); err != nil {
		logger.Warn("Stale run sweep failed", "error", err)
	}
}
