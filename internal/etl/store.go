package etl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-etl/internal/model"
)

// Store is the persistence contract the Loader writes through. Upserts
// overwrite on their conflict keys:
//
//	players          (id)
//	player_profiles  (player_id, sport_id)
//	player_seasons   (player_profile_id, season)
//	weekly_stats     (player_season_id, week)
//
// UpsertPlayerProfiles and UpsertPlayerSeasons return the stored rows with
// their assigned IDs. A slice passed to any upsert never repeats a conflict key.
type Store interface {
	UpsertPlayers(ctx context.Context, rows []model.Player) (int, error)
	UpsertPlayerProfiles(ctx context.Context, rows []model.PlayerProfile) ([]model.PlayerProfile, error)
	UpsertPlayerSeasons(ctx context.Context, rows []model.PlayerSeason) ([]model.PlayerSeason, error)
	UpsertWeeklyStats(ctx context.Context, rows []model.WeeklyStat) (int, error)

	ListPlayerProfiles(ctx context.Context, sport model.SportID) ([]model.PlayerProfile, error)
	ListPlayerSeasons(ctx context.Context, season int) ([]model.PlayerSeason, error)

	CreateRun(ctx context.Context, adapterName string, sport *model.SportID) (uuid.UUID, error)
	// UpdateRun completes a run that is still running. A run already
	// completed, or failed by FailStaleRuns, is left as is and an error returned.
	UpdateRun(ctx context.Context, id uuid.UUID, status model.RunStatus, recordsProcessed int, errorMessage *string) error
	RecentRuns(ctx context.Context, limit int, sport *model.SportID) ([]model.EtlRun, error)
	// FailStaleRuns marks runs still running since before startedBefore as
	// failed with message and returns how many it changed.
	FailStaleRuns(ctx context.Context, startedBefore time.Time, message string) (int, error)
}
