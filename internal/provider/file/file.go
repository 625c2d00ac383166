// Package file provides an adapter that reads raw records from JSON files in
// a directory. It backs local runs, dry-run validation of hand-edited data,
// and tests.
//
// Layout:
//
//	players.json         []provider.RawPlayer
//	profiles.json        []provider.RawPlayerProfile (optional)
//	season_summary.json  []provider.RawPlayerSeason
//	weekly_stats.json    []provider.RawWeeklyStat
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
)

// AdapterName is the default registry key.
const AdapterName = "file"

const (
	playersFile       = "players.json"
	profilesFile      = "profiles.json"
	seasonSummaryFile = "season_summary.json"
	weeklyStatsFile   = "weekly_stats.json"
)

// Adapter serves raw records from a directory of JSON files.
type Adapter struct {
	name   string
	dir    string
	sport  model.SportID
	logger *slog.Logger
}

// New creates a file adapter rooted at dir. An empty name uses AdapterName.
func New(name, dir string, sport model.SportID, logger *slog.Logger) *Adapter {
	if name == "" {
		name = AdapterName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{name: name, dir: dir, sport: sport, logger: logger}
}

func (a *Adapter) Name() string         { return a.name }
func (a *Adapter) Sport() model.SportID { return a.sport }

// HealthCheck reports whether the directory exists and holds players.json.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	info, err := os.Stat(filepath.Join(a.dir, playersFile))
	return err == nil && !info.IsDir()
}

func (a *Adapter) FetchPlayers(ctx context.Context) ([]provider.RawPlayer, error) {
	var players []provider.RawPlayer
	if err := a.read(playersFile, &players, true); err != nil {
		return nil, err
	}
	return players, nil
}

// FetchPlayerProfiles reads profiles.json, falling back to profiles derived
// from players.json when the file is absent.
func (a *Adapter) FetchPlayerProfiles(ctx context.Context) ([]provider.RawPlayerProfile, error) {
	var profiles []provider.RawPlayerProfile
	err := a.read(profilesFile, &profiles, true)
	if err == nil {
		return profiles, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	players, err := a.FetchPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ProfilesFromPlayers(players, a.sport), nil
}

func (a *Adapter) FetchSeasonSummary(ctx context.Context, season int) ([]provider.RawPlayerSeason, error) {
	var all []provider.RawPlayerSeason
	if err := a.read(seasonSummaryFile, &all, false); err != nil {
		return nil, err
	}
	out := make([]provider.RawPlayerSeason, 0, len(all))
	for _, s := range all {
		if s.Season == season {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *Adapter) FetchWeeklyStats(ctx context.Context, season int, week *int) ([]provider.RawWeeklyStat, error) {
	var all []provider.RawWeeklyStat
	if err := a.read(weeklyStatsFile, &all, false); err != nil {
		return nil, err
	}
	out := make([]provider.RawWeeklyStat, 0, len(all))
	for _, s := range all {
		if s.Season != season {
			continue
		}
		if week != nil && s.Week != *week {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// read decodes name into v. A missing optional file leaves v empty; a
// missing required file returns an error wrapping fs.ErrNotExist.
func (a *Adapter) read(name string, v interface{}, required bool) error {
	path := filepath.Join(a.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			a.logger.Debug("Optional fixture file missing", "path", path)
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
