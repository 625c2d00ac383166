// Command api is the Scoracle ETL trigger server.
//
// Usage:
//
//	scoracle-api
//	API_PORT=8080 scoracle-api

// @title Scoracle ETL API
// @version 1.0.0
// @description Triggers sports ETL runs (players, profiles, season snapshots, weekly stats) and reports run history. ETL routes require the shared ETL secret as a bearer token or X-ETL-Secret header.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/albapepper/scoracle-etl/internal/api"
	"github.com/albapepper/scoracle-etl/internal/cache"
	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/db"
	"github.com/albapepper/scoracle-etl/internal/etl"
	"github.com/albapepper/scoracle-etl/internal/maintenance"
	"github.com/albapepper/scoracle-etl/internal/provider/adapters"
	"github.com/albapepper/scoracle-etl/internal/store/postgres"

	_ "github.com/albapepper/scoracle-etl/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	registry := adapters.FromConfig(cfg, logger)
	if len(registry.Names()) == 0 {
		logger.Warn("No adapters configured (set BALLDONTLIE_API_KEY or ETL_FIXTURES_DIR)")
	}
	loader := etl.NewLoader(postgres.New(pool.Pool), cfg.ETLBatchSize, logger)
	runner := etl.NewRunner(registry, loader, cfg.DefaultSeason, logger)
	maint := maintenance.DefaultConfig()
	maint.StaleRunAge = cfg.StaleRunAge
	go maintenance.Start(ctx, loader, appCache, maint, logger)

	if cfg.ETLSecret == "" {
		logger.Warn("ETL_SECRET is empty, ETL routes are unauthenticated")
	}

	router := api.NewRouter(runner, pool, appCache, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     otelhttp.NewHandler(router, "scoracle-etl-api"),
		ReadTimeout: 10 * time.Second,
		// A full run holds the POST open until every stage has loaded.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Scoracle ETL API",
			"addr", addr,
			"environment", cfg.Environment,
			"adapters", registry.Names(),
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
