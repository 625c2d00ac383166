// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/etl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/scoracle-etl/internal/model"
)

// --------------------------------------------------------------------------
// Sport registry
// --------------------------------------------------------------------------

type SportConfig struct {
	ID            model.SportID
	Name          string
	CurrentSeason int
	// Regular-season week range. Zero MaxWeek means the sport has no
	// weekly stat tables.
	MinWeek int
	MaxWeek int
}

var SportRegistry = map[model.SportID]SportConfig{
	model.SportNFL: {ID: model.SportNFL, Name: "National Football League", CurrentSeason: 2026, MinWeek: 1, MaxWeek: 18},
	model.SportMLB: {ID: model.SportMLB, Name: "Major League Baseball", CurrentSeason: 2026},
	model.SportNBA: {ID: model.SportNBA, Name: "National Basketball Association", CurrentSeason: 2026},
	model.SportF1:  {ID: model.SportF1, Name: "Formula 1", CurrentSeason: 2026},
}

// Season bounds accepted anywhere a season year is taken as input.
const (
	MinSeason = 2000
	MaxSeason = 2100
)

// --------------------------------------------------------------------------
// Table names (must match internal/db/migrations)
// --------------------------------------------------------------------------

const (
	PlayersTable        = "players"
	PlayerProfilesTable = "player_profiles"
	PlayerSeasonsTable  = "nfl_player_seasons"
	WeeklyStatsTable    = "nfl_weekly_stats"
	EtlRunsTable        = "etl_runs"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// ETL
	ETLSecret     string
	ETLBatchSize  int
	FixturesDir   string
	DefaultSeason int
	StaleRunAge   time.Duration

	// External API keys
	BDLAPIKey string

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
// DatabaseURL may be empty; commands that need the database check it with
// RequireDatabase.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", "")),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		ETLSecret:     envOr("ETL_SECRET", envOr("CRON_SECRET", "")),
		ETLBatchSize:  envInt("ETL_BATCH_SIZE", 100),
		FixturesDir:   envOr("ETL_FIXTURES_DIR", ""),
		DefaultSeason: envInt("ETL_DEFAULT_SEASON", SportRegistry[model.SportNFL].CurrentSeason),
		StaleRunAge:   time.Duration(envInt("ETL_STALE_RUN_MINUTES", 120)) * time.Minute,

		BDLAPIKey: envOr("BALLDONTLIE_API_KEY", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	if cfg.ETLBatchSize < 1 {
		return nil, fmt.Errorf("ETL_BATCH_SIZE must be > 0, got %d", cfg.ETLBatchSize)
	}
	if cfg.DefaultSeason < MinSeason || cfg.DefaultSeason > MaxSeason {
		return nil, fmt.Errorf("ETL_DEFAULT_SEASON must be between %d and %d", MinSeason, MaxSeason)
	}
	if cfg.IsProduction() && cfg.ETLSecret == "" {
		return nil, fmt.Errorf("ETL_SECRET is required in production")
	}
	return cfg, nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// WeekRange returns the valid regular-season weeks for sport. ok is false
// when the sport has no weekly stats.
func WeekRange(sport model.SportID) (minWeek, maxWeek int, ok bool) {
	sc, exists := SportRegistry[sport]
	if !exists || sc.MaxWeek == 0 {
		return 0, 0, false
	}
	return sc.MinWeek, sc.MaxWeek, true
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
