package etl

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-etl/internal/model"
)

// LoadResult tracks counts and errors from one Loader call. A failed batch
// appends to Errors and clears Success; later batches are still attempted.
type LoadResult struct {
	Success         bool     `json:"success"`
	RecordsUpserted int      `json:"records_upserted"`
	Errors          []string `json:"errors"`
	Skipped         int      `json:"skipped"`
}

func newLoadResult() LoadResult {
	return LoadResult{Success: true, Errors: []string{}}
}

// AddErrorf records a formatted error message and marks the result failed.
func (r *LoadResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Success = false
}

// Summary returns a human-readable summary of the load.
func (r *LoadResult) Summary() string {
	return fmt.Sprintf("upserted=%d skipped=%d errors=%d",
		r.RecordsUpserted, r.Skipped, len(r.Errors))
}

// Skip records one raw record the Transformer dropped.
type Skip struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %s", s.ExternalID, s.Reason)
}

// Stage names, in execution order.
const (
	StagePlayers  = "players"
	StageProfiles = "profiles"
	StageSeasons  = "seasons"
	StageStats    = "weekly_stats"
)

// StageResult is the per-stage slice of a RunResult.
type StageResult struct {
	Stage       string     `json:"stage"`
	Fetched     int        `json:"fetched"`
	Transformed int        `json:"transformed"`
	Skips       []Skip     `json:"skips,omitempty"`
	Load        LoadResult `json:"load"`
}

// RunResult is what Runner.Run returns and what the trigger endpoint renders.
type RunResult struct {
	RunID            *uuid.UUID      `json:"run_id,omitempty"`
	AdapterName      string          `json:"adapter"`
	Sport            model.SportID   `json:"sport,omitempty"`
	Season           int             `json:"season"`
	Week             *int            `json:"week,omitempty"`
	DryRun           bool            `json:"dry_run"`
	StatsOnly        bool            `json:"stats_only"`
	Success          bool            `json:"success"`
	Status           model.RunStatus `json:"status"`
	RecordsProcessed int             `json:"records_processed"`
	Errors           []string        `json:"errors"`
	Message          string          `json:"message"`
	Stages           []StageResult   `json:"stages"`
	Duration         time.Duration   `json:"duration_ns"`
}

func (r *RunResult) addStage(s StageResult) {
	r.Stages = append(r.Stages, s)
	r.RecordsProcessed += s.Load.RecordsUpserted
	for _, e := range s.Load.Errors {
		r.Errors = append(r.Errors, s.Stage+": "+e)
	}
	if !s.Load.Success {
		r.Success = false
	}
}

func (r *RunResult) fail(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Success = false
}

// Summary returns a one-line summary suitable for logs and the audit row.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("adapter=%s season=%d processed=%d errors=%d",
		r.AdapterName, r.Season, r.RecordsProcessed, len(r.Errors))
}
