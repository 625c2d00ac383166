package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/albapepper/scoracle-etl/internal/model"
)

// DefaultBatchSize is the number of rows per upsert statement.
const DefaultBatchSize = 100

// ErrRunNotCreated is returned when the EtlRun row could not be created.
var ErrRunNotCreated = errors.New("etl run not created")

// Loader writes transformed rows through a Store in batches. Batches run
// sequentially; a failed batch is recorded and the next one is attempted.
type Loader struct {
	store     Store
	validator *Validator
	batchSize int
	logger    *slog.Logger
}

// NewLoader creates a Loader. batchSize < 1 uses DefaultBatchSize.
func NewLoader(store Store, batchSize int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		store:     store,
		validator: NewValidator(logger),
		batchSize: batchSize,
		logger:    logger,
	}
}

// --------------------------------------------------------------------------
// Upserts
// --------------------------------------------------------------------------

// LoadPlayers upserts players on id.
func (l *Loader) LoadPlayers(ctx context.Context, players []model.Player) LoadResult {
	ctx, span := startSpan(ctx, "etl.Loader.LoadPlayers", attribute.Int("rows", len(players)))
	defer span.End()

	result := newLoadResult()
	rows, skipped := l.preparePlayers(players)
	result.Skipped = skipped

	batches := chunk(rows, l.batchSize)
	for i, batch := range batches {
		n, err := l.store.UpsertPlayers(ctx, batch)
		if err != nil {
			l.batchFailed(&result, StagePlayers, i, len(batches), len(batch), err)
			continue
		}
		result.RecordsUpserted += n
	}
	l.logger.Info("Players done", "count", result.RecordsUpserted, "skipped", result.Skipped, "errors", len(result.Errors))
	return result
}

// LoadPlayerProfiles upserts profiles on (player_id, sport_id) and returns
// the player_id -> profile ID map built from the stored rows.
func (l *Loader) LoadPlayerProfiles(ctx context.Context, profiles []model.PlayerProfile) (LoadResult, ProfileIDMap) {
	ctx, span := startSpan(ctx, "etl.Loader.LoadPlayerProfiles", attribute.Int("rows", len(profiles)))
	defer span.End()

	result := newLoadResult()
	idMap := make(ProfileIDMap, len(profiles))
	rows, skipped := l.prepareProfiles(profiles)
	result.Skipped = skipped

	batches := chunk(rows, l.batchSize)
	for i, batch := range batches {
		stored, err := l.store.UpsertPlayerProfiles(ctx, batch)
		if err != nil {
			l.batchFailed(&result, StageProfiles, i, len(batches), len(batch), err)
			continue
		}
		for _, p := range stored {
			idMap[p.PlayerID] = p.ID
		}
		result.RecordsUpserted += len(stored)
	}
	l.logger.Info("Profiles done", "count", result.RecordsUpserted, "skipped", result.Skipped, "errors", len(result.Errors))
	return result, idMap
}

// LoadPlayerSeasons upserts seasons on (player_profile_id, season) and
// returns the SeasonIDMap built from the stored rows.
func (l *Loader) LoadPlayerSeasons(ctx context.Context, seasons []model.PlayerSeason) (LoadResult, SeasonIDMap) {
	ctx, span := startSpan(ctx, "etl.Loader.LoadPlayerSeasons", attribute.Int("rows", len(seasons)))
	defer span.End()

	result := newLoadResult()
	idMap := make(SeasonIDMap, len(seasons))
	rows, skipped := l.prepareSeasons(seasons)
	result.Skipped = skipped

	batches := chunk(rows, l.batchSize)
	for i, batch := range batches {
		stored, err := l.store.UpsertPlayerSeasons(ctx, batch)
		if err != nil {
			l.batchFailed(&result, StageSeasons, i, len(batches), len(batch), err)
			continue
		}
		for _, s := range stored {
			idMap[MakePlayerSeasonKey(s.PlayerProfileID, s.Season)] = s.ID
		}
		result.RecordsUpserted += len(stored)
	}
	l.logger.Info("Seasons done", "count", result.RecordsUpserted, "skipped", result.Skipped, "errors", len(result.Errors))
	return result, idMap
}

// LoadWeeklyStats resolves each stat's player_season_id through seasonMap,
// then upserts on (player_season_id, week). Unresolved stats are errors and
// are never written.
func (l *Loader) LoadWeeklyStats(ctx context.Context, stats []StagedWeeklyStat, seasonMap SeasonIDMap) LoadResult {
	ctx, span := startSpan(ctx, "etl.Loader.LoadWeeklyStats", attribute.Int("rows", len(stats)))
	defer span.End()

	result := newLoadResult()
	rows, skipped, misses := l.prepareWeeklyStats(stats, seasonMap)
	result.Skipped = skipped
	for _, m := range misses {
		result.AddErrorf("%s", m)
	}

	batches := chunk(rows, l.batchSize)
	for i, batch := range batches {
		n, err := l.store.UpsertWeeklyStats(ctx, batch)
		if err != nil {
			l.batchFailed(&result, StageStats, i, len(batches), len(batch), err)
			continue
		}
		result.RecordsUpserted += n
	}
	l.logger.Info("Weekly stats done", "count", result.RecordsUpserted, "skipped", result.Skipped, "errors", len(result.Errors))
	return result
}

func (l *Loader) batchFailed(result *LoadResult, stage string, i, total, size int, err error) {
	l.logger.Error("Batch upsert failed", "stage", stage, "batch", i+1, "of", total, "rows", size, "error", err)
	result.AddErrorf("batch %d/%d (%d rows): %v", i+1, total, size, err)
}

// --------------------------------------------------------------------------
// Validation + dedupe (shared with dry runs)
// --------------------------------------------------------------------------

func (l *Loader) preparePlayers(players []model.Player) ([]model.Player, int) {
	valid := make([]model.Player, 0, len(players))
	for _, p := range players {
		if l.validator.ValidatePlayer(p) {
			valid = append(valid, p)
		}
	}
	skipped := len(players) - len(valid)
	return dedupe(valid, func(p model.Player) string { return p.ID }), skipped
}

type profileKey struct {
	playerID string
	sport    model.SportID
}

func (l *Loader) prepareProfiles(profiles []model.PlayerProfile) ([]model.PlayerProfile, int) {
	valid := make([]model.PlayerProfile, 0, len(profiles))
	for _, p := range profiles {
		if l.validator.ValidatePlayerProfile(p) {
			valid = append(valid, p)
		}
	}
	skipped := len(profiles) - len(valid)
	return dedupe(valid, func(p model.PlayerProfile) profileKey {
		return profileKey{playerID: p.PlayerID, sport: p.SportID}
	}), skipped
}

func (l *Loader) prepareSeasons(seasons []model.PlayerSeason) ([]model.PlayerSeason, int) {
	valid := make([]model.PlayerSeason, 0, len(seasons))
	for _, s := range seasons {
		if l.validator.ValidatePlayerSeason(s) {
			valid = append(valid, s)
		}
	}
	skipped := len(seasons) - len(valid)
	return dedupe(valid, func(s model.PlayerSeason) SeasonKey {
		return MakePlayerSeasonKey(s.PlayerProfileID, s.Season)
	}), skipped
}

type weekKey struct {
	seasonID uuid.UUID
	week     int
}

// prepareWeeklyStats drops invalid rows, then resolves the rest. misses
// describes each stat whose player-season is not in seasonMap.
func (l *Loader) prepareWeeklyStats(stats []StagedWeeklyStat, seasonMap SeasonIDMap) (rows []model.WeeklyStat, skipped int, misses []string) {
	rows = make([]model.WeeklyStat, 0, len(stats))
	for _, s := range stats {
		if !l.validator.ValidateWeeklyStat(s) {
			skipped++
			continue
		}
		seasonID, ok := seasonMap[s.SeasonKey()]
		if !ok {
			l.logger.Warn("Unresolved player season", "external_id", s.ExternalID, "key", s.SeasonKey().String(), "week", s.Week)
			misses = append(misses, fmt.Sprintf("no player season for %s (season %d, week %d)", s.ExternalID, s.Season, s.Week))
			continue
		}
		rows = append(rows, s.WeeklyStat(seasonID))
	}
	return dedupe(rows, func(w model.WeeklyStat) weekKey {
		return weekKey{seasonID: w.PlayerSeasonID, week: w.Week}
	}), skipped, misses
}

// --------------------------------------------------------------------------
// ID map reconstruction
// --------------------------------------------------------------------------

// GetPlayerProfileIDMap rebuilds the player_id -> profile ID map for sport
// from persisted rows.
func (l *Loader) GetPlayerProfileIDMap(ctx context.Context, sport model.SportID) (ProfileIDMap, error) {
	profiles, err := l.store.ListPlayerProfiles(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("list player profiles: %w", err)
	}
	idMap := make(ProfileIDMap, len(profiles))
	for _, p := range profiles {
		idMap[p.PlayerID] = p.ID
	}
	return idMap, nil
}

// GetPlayerSeasonIDMap rebuilds the SeasonIDMap for season from persisted rows.
func (l *Loader) GetPlayerSeasonIDMap(ctx context.Context, season int) (SeasonIDMap, error) {
	seasons, err := l.store.ListPlayerSeasons(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("list player seasons: %w", err)
	}
	idMap := make(SeasonIDMap, len(seasons))
	for _, s := range seasons {
		idMap[MakePlayerSeasonKey(s.PlayerProfileID, s.Season)] = s.ID
	}
	return idMap, nil
}

// --------------------------------------------------------------------------
// Run bookkeeping
// --------------------------------------------------------------------------

// CreateRun inserts a running EtlRun and returns its ID.
func (l *Loader) CreateRun(ctx context.Context, adapterName string, sport *model.SportID) (uuid.UUID, error) {
	id, err := l.store.CreateRun(ctx, adapterName, sport)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrRunNotCreated, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: store returned no id", ErrRunNotCreated)
	}
	return id, nil
}

// UpdateRun writes the terminal state of a run. Failures are logged only.
func (l *Loader) UpdateRun(ctx context.Context, id uuid.UUID, status model.RunStatus, recordsProcessed int, errorMessage *string) {
	if err := l.store.UpdateRun(ctx, id, status, recordsProcessed, errorMessage); err != nil {
		l.logger.Error("Failed to update etl run", "run_id", id, "status", status, "error", err)
	}
}

// Run history limits.
const (
	DefaultRunLimit = 10
	MaxRunLimit     = 100
)

// GetRecentRuns returns runs newest first, optionally filtered by sport.
func (l *Loader) GetRecentRuns(ctx context.Context, limit int, sport *model.SportID) ([]model.EtlRun, error) {
	if limit < 1 {
		limit = DefaultRunLimit
	}
	if limit > MaxRunLimit {
		limit = MaxRunLimit
	}
	runs, err := l.store.RecentRuns(ctx, limit, sport)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

// ReapStaleRuns fails runs left in running for longer than maxAge, which
// only happens when a process died before writing the terminal state.
func (l *Loader) ReapStaleRuns(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	msg := fmt.Sprintf("abandoned: still running after %s", maxAge)
	n, err := l.store.FailStaleRuns(ctx, cutoff, msg)
	if err != nil {
		return 0, fmt.Errorf("reap stale runs: %w", err)
	}
	if n > 0 {
		l.logger.Warn("Marked abandoned runs failed", "count", n, "max_age", maxAge)
	}
	return n, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// chunk splits items into consecutive slices of at most size.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// dedupe collapses rows sharing a conflict key. The last row wins and keeps
// the position of the first occurrence.
func dedupe[T any, K comparable](items []T, key func(T) K) []T {
	index := make(map[K]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}
