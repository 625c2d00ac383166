// Command etl is the Scoracle ETL CLI.
//
// Usage:
//
//	scoracle-etl run --adapter bdl-nfl --season 2024
//	scoracle-etl run --adapter bdl-nfl --season 2024 --week 3 --stats-only
//	scoracle-etl run --adapter file --dry-run
//	scoracle-etl runs --limit 20 --sport nfl
//	scoracle-etl adapters health
//	scoracle-etl migrate up
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/db"
	"github.com/albapepper/scoracle-etl/internal/etl"
	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider/adapters"
	"github.com/albapepper/scoracle-etl/internal/provider/bdl"
	"github.com/albapepper/scoracle-etl/internal/store/memory"
	"github.com/albapepper/scoracle-etl/internal/store/postgres"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "scoracle-etl",
		Short:         "Scoracle sports ETL CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(runsCmd())
	root.AddCommand(adaptersCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		opts etl.Options
		week int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for one adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("week") {
				opts.Week = &week
			}
			return withRunner(opts.DryRun, func(ctx context.Context, cfg *config.Config, runner *etl.Runner) error {
				result, err := runner.Run(ctx, opts)
				if err != nil {
					return err
				}
				logger.Info("ETL run finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("etl error", "error", e)
				}
				if !result.Success {
					return fmt.Errorf("run failed with %d error(s)", len(result.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.AdapterName, "adapter", bdl.AdapterName, "Adapter name")
	cmd.Flags().IntVar(&opts.Season, "season", 0, "Season year (0 = ETL_DEFAULT_SEASON)")
	cmd.Flags().IntVar(&week, "week", 0, "Restrict weekly stats to one week")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Transform and validate without writing")
	cmd.Flags().BoolVar(&opts.StatsOnly, "stats-only", false, "Refresh weekly stats using persisted ID maps")
	return cmd
}

// --------------------------------------------------------------------------
// runs command
// --------------------------------------------------------------------------

func runsCmd() *cobra.Command {
	var (
		limit int
		sport string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ETL runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sportFilter *model.SportID
			if sport != "" {
				s, ok := model.ParseSport(sport)
				if !ok {
					return fmt.Errorf("unknown sport %q", sport)
				}
				sportFilter = &s
			}
			return withRunner(false, func(ctx context.Context, cfg *config.Config, runner *etl.Runner) error {
				runs, err := runner.Loader().GetRecentRuns(ctx, limit, sportFilter)
				if err != nil {
					return err
				}
				for _, run := range runs {
					args := []any{
						"id", run.ID, "adapter", run.AdapterName, "status", run.Status,
						"started_at", run.StartedAt.Format(time.RFC3339), "records", run.RecordsProcessed,
					}
					if run.SportID != nil {
						args = append(args, "sport", *run.SportID)
					}
					if run.ErrorMessage != nil {
						args = append(args, "error", *run.ErrorMessage)
					}
					logger.Info("ETL run", args...)
				}
				logger.Info("Runs listed", "count", len(runs))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", etl.DefaultRunLimit, "Number of runs (1-100)")
	cmd.Flags().StringVar(&sport, "sport", "", "Filter by sport (nfl, mlb, nba, f1)")
	return cmd
}

// --------------------------------------------------------------------------
// adapters command
// --------------------------------------------------------------------------

func adaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "Inspect registered adapters",
	}
	var timeout time.Duration
	health := &cobra.Command{
		Use:   "health",
		Short: "Check every registered adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			registry := adapters.FromConfig(cfg, logger)
			if len(registry.Names()) == 0 {
				return fmt.Errorf("no adapters configured (set BALLDONTLIE_API_KEY or ETL_FIXTURES_DIR)")
			}
			unhealthy := 0
			for _, h := range etl.CheckAdapters(cmd.Context(), registry, timeout) {
				logger.Info("Adapter", "name", h.Name, "sport", h.Sport, "healthy", h.Healthy, "latency_ms", h.LatencyMS)
				if !h.Healthy {
					unhealthy++
				}
			}
			if unhealthy > 0 {
				return fmt.Errorf("%d adapter(s) unhealthy", unhealthy)
			}
			return nil
		},
	}
	health.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-adapter timeout")
	cmd.AddCommand(health)
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabaseURL(func(url string) error {
				if err := db.MigrateUp(url); err != nil {
					return err
				}
				logger.Info("Migrations applied")
				return nil
			})
		},
	})
	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabaseURL(func(url string) error {
				if err := db.MigrateDown(url, steps); err != nil {
					return err
				}
				logger.Info("Migrations rolled back", "steps", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (0 = all)")
	cmd.AddCommand(down)
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabaseURL(func(url string) error {
				version, dirty, err := db.MigrationVersion(url)
				if err != nil {
					return err
				}
				logger.Info("Schema version", "version", version, "dirty", dirty)
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withRunner handles config loading, store selection and context
// cancellation. A dry run without DATABASE_URL uses an in-memory store.
func withRunner(dryRun bool, fn func(ctx context.Context, cfg *config.Config, runner *etl.Runner) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var store etl.Store
	if dryRun && cfg.DatabaseURL == "" {
		logger.Info("No DATABASE_URL, dry run uses an in-memory store")
		store = memory.New()
	} else {
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		store = postgres.New(pool.Pool)
	}

	registry := adapters.FromConfig(cfg, logger)
	runner := etl.NewRunner(registry, etl.NewLoader(store, cfg.ETLBatchSize, logger), cfg.DefaultSeason, logger)
	err = fn(ctx, cfg, runner)
	if errors.Is(err, etl.ErrUnknownAdapter) {
		return fmt.Errorf("%w (registered: %v)", err, registry.Names())
	}
	return err
}

func withDatabaseURL(fn func(url string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	return fn(cfg.DatabaseURL)
}
