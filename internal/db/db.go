// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking, and schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-etl/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already
// be migrated: statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the read and run-bookkeeping
// statements. Batched upserts are built per call in internal/store/postgres.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// ID map reconstruction
		"player_profiles_by_sport": "SELECT id, player_id, sport_id, position, metadata FROM " +
			config.PlayerProfilesTable + " WHERE sport_id = $1",
		"player_seasons_by_season": "SELECT id, player_profile_id, season, team, jersey_number, is_active FROM " +
			config.PlayerSeasonsTable + " WHERE season = $1",

		// Run bookkeeping
		"etl_run_create": "INSERT INTO " + config.EtlRunsTable +
			" (adapter_name, sport_id, status, records_processed) VALUES ($1, $2, 'running', 0) RETURNING id",
		"etl_run_update": "UPDATE " + config.EtlRunsTable +
			" SET status = $2, records_processed = $3, error_message = $4, completed_at = NOW() WHERE id = $1 AND status = 'running'",
		"etl_runs_recent": "SELECT id, adapter_name, sport_id, started_at, completed_at, status, records_processed, error_message FROM " +
			config.EtlRunsTable + " WHERE ($2::text IS NULL OR sport_id = $2) ORDER BY started_at DESC LIMIT $1",
		"etl_runs_fail_stale": "UPDATE " + config.EtlRunsTable +
			" SET status = 'failed', error_message = $2, completed_at = NOW() WHERE status = 'running' AND started_at < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
