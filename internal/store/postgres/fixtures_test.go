//go:build integration

package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFixtures lays out one player with one season and two weeks.
func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"players.json":        `[{"external_id":"Patrick Mahomes","name":"Patrick Mahomes","position":"QB"}]`,
		"season_summary.json": `[{"player_external_id":"Patrick Mahomes","season":2024,"team":"KC","jersey_number":15}]`,
		"weekly_stats.json": `[
			{"player_external_id":"Patrick Mahomes","sport":"nfl","season":2024,"week":1,"opponent":"BAL","location":"H","passing_yards":291},
			{"player_external_id":"Patrick Mahomes","sport":"nfl","season":2024,"week":2,"opponent":"CIN","location":"H"}
		]`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}
