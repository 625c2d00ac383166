// Package memory is an in-process implementation of the ETL store with the
// same uniqueness keys as the Postgres schema. It backs tests and dry
// local runs without a database.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-etl/internal/model"
)

type profileKey struct {
	playerID string
	sport    model.SportID
}

type seasonKey struct {
	profileID uuid.UUID
	season    int
}

type weekKey struct {
	seasonID uuid.UUID
	week     int
}

// Store holds every table in maps keyed by their conflict targets.
type Store struct {
	mu sync.RWMutex

	players  map[string]model.Player
	profiles map[profileKey]model.PlayerProfile
	seasons  map[seasonKey]model.PlayerSeason
	stats    map[weekKey]model.WeeklyStat
	runs     map[uuid.UUID]model.EtlRun
	runOrder []uuid.UUID

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		players:  make(map[string]model.Player),
		profiles: make(map[profileKey]model.PlayerProfile),
		seasons:  make(map[seasonKey]model.PlayerSeason),
		stats:    make(map[weekKey]model.WeeklyStat),
		runs:     make(map[uuid.UUID]model.EtlRun),
		now:      time.Now,
	}
}

// --------------------------------------------------------------------------
// Upserts
// --------------------------------------------------------------------------

func (s *Store) UpsertPlayers(ctx context.Context, rows []model.Player) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range rows {
		s.players[p.ID] = p
	}
	return len(rows), nil
}

func (s *Store) UpsertPlayerProfiles(ctx context.Context, rows []model.PlayerProfile) ([]model.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range rows {
		if _, ok := s.players[p.PlayerID]; !ok {
			return nil, fmt.Errorf("player_profiles: player %q does not exist", p.PlayerID)
		}
	}
	out := make([]model.PlayerProfile, 0, len(rows))
	for _, p := range rows {
		key := profileKey{playerID: p.PlayerID, sport: p.SportID}
		p.ID = uuid.New()
		if existing, ok := s.profiles[key]; ok {
			p.ID = existing.ID
		}
		p.Metadata = maps.Clone(p.Metadata)
		s.profiles[key] = p
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) UpsertPlayerSeasons(ctx context.Context, rows []model.PlayerSeason) ([]model.PlayerSeason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkProfiles(rows); err != nil {
		return nil, err
	}
	out := make([]model.PlayerSeason, 0, len(rows))
	for _, ps := range rows {
		key := seasonKey{profileID: ps.PlayerProfileID, season: ps.Season}
		ps.ID = uuid.New()
		if existing, ok := s.seasons[key]; ok {
			ps.ID = existing.ID
		}
		s.seasons[key] = ps
		out = append(out, ps)
	}
	return out, nil
}

func (s *Store) checkProfiles(rows []model.PlayerSeason) error {
	known := make(map[uuid.UUID]bool, len(s.profiles))
	for _, p := range s.profiles {
		known[p.ID] = true
	}
	for _, ps := range rows {
		if !known[ps.PlayerProfileID] {
			return fmt.Errorf("player_seasons: profile %s does not exist", ps.PlayerProfileID)
		}
	}
	return nil
}

func (s *Store) UpsertWeeklyStats(ctx context.Context, rows []model.WeeklyStat) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[uuid.UUID]bool, len(s.seasons))
	for _, ps := range s.seasons {
		known[ps.ID] = true
	}
	for _, w := range rows {
		if !known[w.PlayerSeasonID] {
			return 0, fmt.Errorf("weekly_stats: player season %s does not exist", w.PlayerSeasonID)
		}
	}
	for _, w := range rows {
		key := weekKey{seasonID: w.PlayerSeasonID, week: w.Week}
		w.ID = uuid.New()
		if existing, ok := s.stats[key]; ok {
			w.ID = existing.ID
		}
		s.stats[key] = w
	}
	return len(rows), nil
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

func (s *Store) ListPlayerProfiles(ctx context.Context, sport model.SportID) ([]model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PlayerProfile, 0)
	for k, p := range s.profiles {
		if k.sport == sport {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListPlayerSeasons(ctx context.Context, season int) ([]model.PlayerSeason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PlayerSeason, 0)
	for k, ps := range s.seasons {
		if k.season == season {
			out = append(out, ps)
		}
	}
	return out, nil
}

// Players returns every stored player sorted by ID.
func (s *Store) Players() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WeeklyStats returns every stored weekly stat ordered by week.
func (s *Store) WeeklyStats() []model.WeeklyStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.WeeklyStat, 0, len(s.stats))
	for _, w := range s.stats {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].PlayerSeasonID.String() < out[j].PlayerSeasonID.String()
	})
	return out
}

// Counts returns the row count of every table.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"players":         len(s.players),
		"player_profiles": len(s.profiles),
		"player_seasons":  len(s.seasons),
		"weekly_stats":    len(s.stats),
		"etl_runs":        len(s.runs),
	}
}

// --------------------------------------------------------------------------
// Runs
// --------------------------------------------------------------------------

func (s *Store) CreateRun(ctx context.Context, adapterName string, sport *model.SportID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.runs[id] = model.EtlRun{
		ID:          id,
		AdapterName: adapterName,
		SportID:     sport,
		StartedAt:   s.now(),
		Status:      model.RunRunning,
	}
	s.runOrder = append(s.runOrder, id)
	return id, nil
}

func (s *Store) UpdateRun(ctx context.Context, id uuid.UUID, status model.RunStatus, recordsProcessed int, errorMessage *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("etl run %s not found", id)
	}
	if run.Status != model.RunRunning {
		return fmt.Errorf("etl run %s already %s", id, run.Status)
	}
	completed := s.now()
	run.Status = status
	run.RecordsProcessed = recordsProcessed
	run.ErrorMessage = errorMessage
	run.CompletedAt = &completed
	s.runs[id] = run
	return nil
}

// RecentRuns returns runs newest first by creation order.
func (s *Store) RecentRuns(ctx context.Context, limit int, sport *model.SportID) ([]model.EtlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EtlRun, 0, min(limit, len(s.runs)))
	for i := len(s.runOrder) - 1; i >= 0 && len(out) < limit; i-- {
		run := s.runs[s.runOrder[i]]
		if sport != nil && (run.SportID == nil || *run.SportID != *sport) {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func (s *Store) FailStaleRuns(ctx context.Context, startedBefore time.Time, message string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, run := range s.runs {
		if run.Status != model.RunRunning || !run.StartedAt.Before(startedBefore) {
			continue
		}
		completed := s.now()
		msg := message
		run.Status = model.RunFailed
		run.ErrorMessage = &msg
		run.CompletedAt = &completed
		s.runs[id] = run
		n++
	}
	return n, nil
}

// Run returns the run with id.
func (s *Store) Run(id uuid.UUID) (model.EtlRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// WeeklyStat returns the stat stored for (playerSeasonID, week).
func (s *Store) WeeklyStat(playerSeasonID uuid.UUID, week int) (model.WeeklyStat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.stats[weekKey{seasonID: playerSeasonID, week: week}]
	return w, ok
}
