//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/db"
	"github.com/albapepper/scoracle-etl/internal/etl"
	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
	"github.com/albapepper/scoracle-etl/internal/provider/file"
)

var _ etl.Store = (*Store)(nil)

func newTestStore(t *testing.T) (*Store, *db.Pool) {
	t.Helper()
	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("scoracle_test"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(dsn))

	version, dirty, err := db.MigrationVersion(dsn)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	pool, err := db.New(ctx, &config.Config{
		DatabaseURL:    dsn,
		DBPoolMinConns: 1,
		DBPoolMaxConns: 4,
		DBPoolMaxLife:  time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return New(pool.Pool), pool
}

func TestStore_UpsertRoundTrip(t *testing.T) {
	store, pool := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, pool.HealthCheck(ctx))

	n, err := store.UpsertPlayers(ctx, []model.Player{{ID: "patrick-mahomes", Name: "Patrick Mahomes"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	profiles, err := store.UpsertPlayerProfiles(ctx, []model.PlayerProfile{{
		PlayerID: "patrick-mahomes", SportID: model.SportNFL, Position: "QB",
		Metadata: map[string]interface{}{"college": "Texas Tech"},
	}})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Texas Tech", profiles[0].Metadata["college"])

	again, err := store.UpsertPlayerProfiles(ctx, []model.PlayerProfile{{PlayerID: "patrick-mahomes", SportID: model.SportNFL, Position: "QB"}})
	require.NoError(t, err)
	assert.Equal(t, profiles[0].ID, again[0].ID)

	seasons, err := store.UpsertPlayerSeasons(ctx, []model.PlayerSeason{{
		PlayerProfileID: profiles[0].ID, Season: 2024, Team: "KC", JerseyNumber: 15, IsActive: true,
	}})
	require.NoError(t, err)
	require.Len(t, seasons, 1)

	result := "W 27-20"
	stat := model.WeeklyStat{
		PlayerSeasonID: seasons[0].ID, Week: 1, Opponent: "BAL", Location: model.Home, Result: &result,
		StatLine: model.StatLine{PassingYards: 100, FantasyPoints: 12.5},
	}
	_, err = store.UpsertWeeklyStats(ctx, []model.WeeklyStat{stat})
	require.NoError(t, err)
	stat.PassingYards = 291
	_, err = store.UpsertWeeklyStats(ctx, []model.WeeklyStat{stat})
	require.NoError(t, err)

	var count, yards int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*), MAX(passing_yards) FROM "+config.WeeklyStatsTable).Scan(&count, &yards))
	assert.Equal(t, 1, count)
	assert.Equal(t, 291, yards)

	listed, err := store.ListPlayerSeasons(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, seasons[0].ID, listed[0].ID)

	listedProfiles, err := store.ListPlayerProfiles(ctx, model.SportNFL)
	require.NoError(t, err)
	assert.Len(t, listedProfiles, 1)
}

func TestStore_RejectsBadRowsPerBatch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertPlayerProfiles(ctx, []model.PlayerProfile{{PlayerID: "missing", SportID: model.SportNFL}})
	assert.Error(t, err)
}

func TestStore_Runs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	nfl := model.SportNFL

	first, err := store.CreateRun(ctx, "file", &nfl)
	require.NoError(t, err)
	second, err := store.CreateRun(ctx, "other", nil)
	require.NoError(t, err)

	msg := "weekly_stats: batch 1/1 (2 rows): boom"
	require.NoError(t, store.UpdateRun(ctx, first, model.RunFailed, 4, &msg))

	runs, err := store.RecentRuns(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)

	nflRuns, err := store.RecentRuns(ctx, 10, &nfl)
	require.NoError(t, err)
	require.Len(t, nflRuns, 1)
	assert.Equal(t, model.RunFailed, nflRuns[0].Status)
	assert.Equal(t, 4, nflRuns[0].RecordsProcessed)
	require.NotNil(t, nflRuns[0].ErrorMessage)
	assert.Equal(t, msg, *nflRuns[0].ErrorMessage)
	assert.NotNil(t, nflRuns[0].CompletedAt)

	reaped, err := store.FailStaleRuns(ctx, time.Now().Add(time.Hour), "abandoned")
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)
	runs, err = store.RecentRuns(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, runs[0].Status)

	assert.Error(t, store.UpdateRun(ctx, second, model.RunSuccess, 42, nil))
	runs, err = store.RecentRuns(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, runs[0].Status)
	assert.Zero(t, runs[0].RecordsProcessed)
}

func TestStore_RunnerEndToEnd(t *testing.T) {
	store, _ := newTestStore(t)
	dir := t.TempDir()
	writeFixtures(t, dir)

	registry := provider.NewRegistry(file.New("", dir, model.SportNFL, nil))
	runner := etl.NewRunner(registry, etl.NewLoader(store, 100, nil), 2024, nil)

	result, err := runner.Run(context.Background(), etl.Options{AdapterName: file.AdapterName})
	require.NoError(t, err)
	assert.True(t, result.Success, result.Errors)
	assert.Equal(t, 5, result.RecordsProcessed)

	runs, err := store.RecentRuns(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunSuccess, runs[0].Status)
	assert.Equal(t, 5, runs[0].RecordsProcessed)
}
