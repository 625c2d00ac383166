package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-etl/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("ETL_BATCH_SIZE", "")
	t.Setenv("ETL_SECRET", "")
	t.Setenv("CRON_SECRET", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")
	t.Setenv("ETL_DEFAULT_SEASON", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("ETL_STALE_RUN_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 100, cfg.ETLBatchSize)
	assert.Equal(t, SportRegistry[model.SportNFL].CurrentSeason, cfg.DefaultSeason)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.Len(t, cfg.CORSAllowOrigins, 2)
	assert.Equal(t, 2*time.Hour, cfg.StaleRunAge)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ETL_SECRET", "")
	t.Setenv("CRON_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("CRON_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.ETLSecret)
}

func TestLoad_RejectsBadBatchSize(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("ETL_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ParsesLists(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("ETL_BATCH_SIZE", "")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireDatabase())

	cfg.DatabaseURL = "postgres://localhost/etl"
	require.NoError(t, cfg.RequireDatabase())
}

func TestWeekRange(t *testing.T) {
	minWeek, maxWeek, ok := WeekRange(model.SportNFL)
	require.True(t, ok)
	assert.Equal(t, 1, minWeek)
	assert.Equal(t, 18, maxWeek)

	_, _, ok = WeekRange(model.SportF1)
	assert.False(t, ok)
}
