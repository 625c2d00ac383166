package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-etl/internal/etl"
	"github.com/albapepper/scoracle-etl/internal/model"
)

var _ etl.Store = (*Store)(nil)

func TestUpsertKeepsIDsOnConflict(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertPlayers(ctx, []model.Player{{ID: "patrick-mahomes", Name: "Patrick Mahomes"}})
	require.NoError(t, err)

	first, err := s.UpsertPlayerProfiles(ctx, []model.PlayerProfile{{PlayerID: "patrick-mahomes", SportID: model.SportNFL, Position: "QB"}})
	require.NoError(t, err)
	second, err := s.UpsertPlayerProfiles(ctx, []model.PlayerProfile{{PlayerID: "patrick-mahomes", SportID: model.SportNFL, Position: "TE"}})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	profiles, err := s.ListPlayerProfiles(ctx, model.SportNFL)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "TE", profiles[0].Position)

	seasons, err := s.UpsertPlayerSeasons(ctx, []model.PlayerSeason{{PlayerProfileID: first[0].ID, Season: 2024, Team: "KC", JerseyNumber: 15}})
	require.NoError(t, err)
	seasonID := seasons[0].ID

	_, err = s.UpsertWeeklyStats(ctx, []model.WeeklyStat{{PlayerSeasonID: seasonID, Week: 1, Opponent: "BAL", Location: model.Home, StatLine: model.StatLine{PassingYards: 100}}})
	require.NoError(t, err)
	_, err = s.UpsertWeeklyStats(ctx, []model.WeeklyStat{{PlayerSeasonID: seasonID, Week: 1, Opponent: "BAL", Location: model.Home, StatLine: model.StatLine{PassingYards: 291}}})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Counts()["weekly_stats"])
	w, ok := s.WeeklyStat(seasonID, 1)
	require.True(t, ok)
	assert.Equal(t, 291, w.PassingYards)
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertPlayerProfiles(ctx, []model.PlayerProfile{{PlayerID: "ghost", SportID: model.SportNFL}})
	require.Error(t, err)

	_, err = s.UpsertPlayerSeasons(ctx, []model.PlayerSeason{{PlayerProfileID: uuid.New(), Season: 2024, Team: "KC"}})
	require.Error(t, err)

	_, err = s.UpsertWeeklyStats(ctx, []model.WeeklyStat{{PlayerSeasonID: uuid.New(), Week: 1}})
	require.Error(t, err)
	assert.Zero(t, s.Counts()["weekly_stats"])
}

func TestRecentRuns(t *testing.T) {
	ctx := context.Background()
	s := New()
	nfl, nba := model.SportNFL, model.SportNBA

	a, err := s.CreateRun(ctx, "file", &nfl)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "file", &nba)
	require.NoError(t, err)
	c, err := s.CreateRun(ctx, "bdl-nfl", &nfl)
	require.NoError(t, err)

	msg := "boom"
	require.NoError(t, s.UpdateRun(ctx, a, model.RunFailed, 3, &msg))
	require.Error(t, s.UpdateRun(ctx, uuid.New(), model.RunSuccess, 0, nil))

	all, err := s.RecentRuns(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c, all[0].ID)

	onlyNFL, err := s.RecentRuns(ctx, 10, &nfl)
	require.NoError(t, err)
	require.Len(t, onlyNFL, 2)
	assert.Equal(t, a, onlyNFL[1].ID)
	assert.Equal(t, model.RunFailed, onlyNFL[1].Status)
	assert.Equal(t, 3, onlyNFL[1].RecordsProcessed)
	assert.NotNil(t, onlyNFL[1].CompletedAt)

	limited, err := s.RecentRuns(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFailStaleRuns(t *testing.T) {
	ctx := context.Background()
	s := New()
	start := time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	stale, err := s.CreateRun(ctx, "file", nil)
	require.NoError(t, err)
	done, err := s.CreateRun(ctx, "file", nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRun(ctx, done, model.RunSuccess, 4, nil))

	s.now = func() time.Time { return start.Add(3 * time.Hour) }
	fresh, err := s.CreateRun(ctx, "file", nil)
	require.NoError(t, err)

	n, err := s.FailStaleRuns(ctx, start.Add(time.Hour), "abandoned")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	run, _ := s.Run(stale)
	assert.Equal(t, model.RunFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "abandoned", *run.ErrorMessage)
	assert.NotNil(t, run.CompletedAt)

	run, _ = s.Run(done)
	assert.Equal(t, model.RunSuccess, run.Status)
	run, _ = s.Run(fresh)
	assert.Equal(t, model.RunRunning, run.Status)

	require.Error(t, s.UpdateRun(ctx, stale, model.RunSuccess, 42, nil))
	require.Error(t, s.UpdateRun(ctx, done, model.RunFailed, 0, nil))
	run, _ = s.Run(stale)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Zero(t, run.RecordsProcessed)
	run, _ = s.Run(done)
	assert.Equal(t, model.RunSuccess, run.Status)
	assert.Equal(t, 4, run.RecordsProcessed)
}
