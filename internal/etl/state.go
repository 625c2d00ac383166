package etl

import "log/slog"

// RunState is the Loader stage a run is in.
type RunState string

const (
	StateCreated         RunState = "created"
	StateWritingPlayers  RunState = "writing-players"
	StateWritingProfiles RunState = "writing-profiles"
	StateWritingSeasons  RunState = "writing-seasons"
	StateWritingStats    RunState = "writing-stats"
	StateFinalizing      RunState = "finalizing"
	StateSuccess         RunState = "success"
	StateFailed          RunState = "failed"
)

// stateTracker records the current state of one run and logs transitions.
// It is never shared between runs.
type stateTracker struct {
	state  RunState
	logger *slog.Logger
}

func newStateTracker(logger *slog.Logger) *stateTracker {
	return &stateTracker{state: StateCreated, logger: logger}
}

func (s *stateTracker) advance(next RunState) {
	s.logger.Debug("Run state", "from", s.state, "to", next)
	s.state = next
}
