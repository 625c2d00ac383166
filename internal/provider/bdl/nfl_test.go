package bdl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-etl/internal/model"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *NFLAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newNFLAdapter(NewClient(srv.URL, "test-key", 6000, nil), nil)
}

func TestFetchPlayers_FollowsCursor(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/players", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"data":[{"id":17,"first_name":"Josh","last_name":"Allen","position":"Quarterback","position_abbreviation":"QB","jersey_number":"17","team":{"id":4,"abbreviation":"BUF"}}],"meta":{"next_cursor":18}}`))
			return
		}
		assert.Equal(t, "18", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"data":[{"id":402,"first_name":"Josh","last_name":"Allen","position":"Linebacker","position_abbreviation":"LB"}],"meta":{"next_cursor":null}}`))
	})

	players, err := adapter.FetchPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, "Josh Allen 17", players[0].ExternalID)
	assert.Equal(t, "Josh Allen 402", players[1].ExternalID)
	assert.Equal(t, "QB", players[0].Position)
	assert.Equal(t, model.SportNFL, players[0].Sport)
	assert.Equal(t, 17, players[0].Metadata["bdl_id"])
}

func TestFetchWeeklyStats_HomeAwayAndMissingValues(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		assert.Equal(t, "2024", r.URL.Query().Get("seasons[]"))
		assert.Equal(t, "3", r.URL.Query().Get("weeks[]"))
		w.Write([]byte(`{"data":[
			{"player":{"id":1,"first_name":"Patrick","last_name":"Mahomes"},
			 "team":{"id":10,"abbreviation":"KC"},
			 "game":{"season":2024,"week":3,"status":"Final","home_team":{"id":10,"abbreviation":"KC"},"visitor_team":{"id":20,"abbreviation":"ATL"},"home_team_score":22,"visitor_team_score":17},
			 "passing_yards":217,"passing_touchdowns":0,"rushing_yards":null},
			{"player":{"id":2,"first_name":"Bijan","last_name":"Robinson"},
			 "team":{"id":20,"abbreviation":"ATL"},
			 "game":{"season":2024,"week":3,"status":"Final","home_team":{"id":10,"abbreviation":"KC"},"visitor_team":{"id":20,"abbreviation":"ATL"},"home_team_score":22,"visitor_team_score":17},
			 "rushing_yards":94},
			{"player":{"id":3,"first_name":"Post","last_name":"Season"},
			 "team":{"id":20,"abbreviation":"ATL"},
			 "game":{"season":2024,"week":3,"postseason":true,"home_team":{"id":10},"visitor_team":{"id":20}}}
		],"meta":{}}`))
	})

	week := 3
	stats, err := adapter.FetchWeeklyStats(context.Background(), 2024, &week)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	home := stats[0]
	assert.Equal(t, "H", home.Location)
	assert.Equal(t, "ATL", home.Opponent)
	require.NotNil(t, home.Result)
	assert.Equal(t, "W 22-17", *home.Result)
	require.NotNil(t, home.PassingYards)
	assert.Equal(t, 217, *home.PassingYards)
	require.NotNil(t, home.PassingTDs)
	assert.Equal(t, 0, *home.PassingTDs)
	assert.Nil(t, home.RushingYards)

	away := stats[1]
	assert.Equal(t, "A", away.Location)
	assert.Equal(t, "KC", away.Opponent)
	assert.Equal(t, "L 17-22", *away.Result)
	assert.Equal(t, 94, *away.RushingYards)
}

func TestFetchSeasonSummary(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/season_stats", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"player":{"id":1,"first_name":"Patrick","last_name":"Mahomes","jersey_number":"15","team":{"id":10,"abbreviation":"KC"}},"games_played":16},
			{"player":{"id":9,"first_name":"Free","last_name":"Agent"},"games_played":0}
		],"meta":{}}`))
	})

	seasons, err := adapter.FetchSeasonSummary(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, seasons, 2)

	assert.Equal(t, "KC", seasons[0].Team)
	require.NotNil(t, seasons[0].JerseyNumber)
	assert.Equal(t, 15, *seasons[0].JerseyNumber)
	assert.True(t, *seasons[0].IsActive)

	assert.Equal(t, "FA", seasons[1].Team)
	assert.Nil(t, seasons[1].JerseyNumber)
	assert.False(t, *seasons[1].IsActive)
}

func TestHealthCheck(t *testing.T) {
	ok := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"meta":{}}`))
	})
	assert.True(t, ok.HealthCheck(context.Background()))

	unauthorized := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.False(t, unauthorized.HealthCheck(context.Background()))
}

func TestGameResult(t *testing.T) {
	a, b := 10, 10
	assert.Equal(t, "T 10-10", *gameResult("Final", &a, &b))
	assert.Nil(t, gameResult("In Progress", &a, &b))
	assert.Nil(t, gameResult("Final", nil, &b))
}
