// Package adapters builds the adapter registry from configuration.
package adapters

import (
	"log/slog"

	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
	"github.com/albapepper/scoracle-etl/internal/provider/bdl"
	"github.com/albapepper/scoracle-etl/internal/provider/file"
)

// FromConfig registers every adapter whose credentials or inputs are
// configured: bdl-nfl when BALLDONTLIE_API_KEY is set, file when
// ETL_FIXTURES_DIR is set.
func FromConfig(cfg *config.Config, logger *slog.Logger) *provider.Registry {
	registry := provider.NewRegistry()
	if cfg.BDLAPIKey != "" {
		registry.Register(bdl.NewNFLAdapter(cfg.BDLAPIKey, logger))
	}
	if cfg.FixturesDir != "" {
		registry.Register(file.New("", cfg.FixturesDir, model.SportNFL, logger))
	}
	return registry
}
