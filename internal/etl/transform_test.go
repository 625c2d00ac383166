package etl

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
)

func intPtr(v int) *int { return &v }

func TestNormalizePlayerID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Patrick Mahomes", "patrick-mahomes"},
		{"patrick-mahomes", "patrick-mahomes"},
		{"12345", "12345"},
		{"  Ja'Marr   Chase ", "jamarr-chase"},
		{"Amon-Ra St. Brown", "amon-ra-st-brown"},
		{"Josh Allen 17", "josh-allen-17"},
		{"A -- B", "a-b"},
		{"-Lead-", "lead"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePlayerID(tt.in))
			assert.Equal(t, tt.want, NormalizePlayerID(NormalizePlayerID(tt.in)))
		})
	}
}

func TestTransformPlayers(t *testing.T) {
	tr := NewTransformer(nil)
	raw := []provider.RawPlayer{
		{ExternalID: "Patrick Mahomes", Name: "Patrick Mahomes"},
		{ExternalID: "travis-kelce", Name: " Travis Kelce "},
	}

	players, extMap := tr.TransformPlayers(raw)
	require.Len(t, players, 2)
	require.Len(t, extMap, 2)
	assert.Equal(t, "patrick-mahomes", extMap["Patrick Mahomes"])
	assert.Equal(t, "travis-kelce", players[1].ID)
	assert.Equal(t, "Travis Kelce", players[1].Name)

	again, _ := tr.TransformPlayers(raw)
	assert.Equal(t, players, again)
}

func TestTransformPlayerProfiles_SkipsUnknown(t *testing.T) {
	tr := NewTransformer(nil)
	extMap := ExternalIDMap{"Patrick Mahomes": "patrick-mahomes"}

	profiles, skips := tr.TransformPlayerProfiles([]provider.RawPlayerProfile{
		{PlayerExternalID: "Patrick Mahomes", Sport: model.SportNFL, Position: "QB"},
		{PlayerExternalID: "Nobody", Sport: model.SportNFL},
	}, extMap)

	require.Len(t, profiles, 1)
	assert.Equal(t, "patrick-mahomes", profiles[0].PlayerID)
	assert.NotNil(t, profiles[0].Metadata)
	assert.Empty(t, profiles[0].Metadata)
	require.Len(t, skips, 1)
	assert.Equal(t, "Nobody", skips[0].ExternalID)
}

func TestTransformPlayerSeasons_TwoStageResolution(t *testing.T) {
	tr := NewTransformer(nil)
	profileID := uuid.New()
	extMap := ExternalIDMap{"Patrick Mahomes": "patrick-mahomes", "No Profile": "no-profile"}
	profileMap := ProfileIDMap{"patrick-mahomes": profileID}
	inactive := false

	seasons, skips := tr.TransformPlayerSeasons([]provider.RawPlayerSeason{
		{PlayerExternalID: "Patrick Mahomes", Season: 2024, Team: "kc", JerseyNumber: intPtr(15)},
		{PlayerExternalID: "Patrick Mahomes", Season: 2023, Team: "KC", IsActive: &inactive},
		{PlayerExternalID: "No Profile", Season: 2024, Team: "KC"},
		{PlayerExternalID: "Unknown", Season: 2024, Team: "KC"},
	}, extMap, profileMap)

	require.Len(t, seasons, 2)
	assert.Equal(t, profileID, seasons[0].PlayerProfileID)
	assert.Equal(t, "KC", seasons[0].Team)
	assert.Equal(t, 15, seasons[0].JerseyNumber)
	assert.True(t, seasons[0].IsActive)
	assert.Zero(t, seasons[1].JerseyNumber)
	assert.False(t, seasons[1].IsActive)
	assert.Len(t, skips, 2)
}

func TestTransformWeeklyStats_DefaultsAbsentToZero(t *testing.T) {
	tr := NewTransformer(nil)
	profileID := uuid.New()
	extMap := ExternalIDMap{"Patrick Mahomes": "patrick-mahomes"}
	profileMap := ProfileIDMap{"patrick-mahomes": profileID}
	points := 21.5

	staged, skips := tr.TransformWeeklyStats([]provider.RawWeeklyStat{
		{
			PlayerExternalID: "Patrick Mahomes", Sport: model.SportNFL, Season: 2024, Week: 1,
			Opponent: "bal", Location: "h",
			PassingYards: intPtr(291), Interceptions: intPtr(0), FantasyPoints: &points,
		},
		{PlayerExternalID: "Ghost", Season: 2024, Week: 1},
	}, extMap, profileMap, model.SportNFL)

	require.Len(t, staged, 1)
	require.Len(t, skips, 1)

	s := staged[0]
	assert.Equal(t, MakePlayerSeasonKey(profileID, 2024), s.SeasonKey())
	assert.Equal(t, "BAL", s.Opponent)
	assert.Equal(t, model.Home, s.Location)
	assert.Equal(t, 291, s.PassingYards)
	assert.Equal(t, 0, s.Interceptions)
	assert.Equal(t, 0, s.RushingYards)
	assert.Equal(t, 21.5, s.FantasyPoints)

	row := s.WeeklyStat(uuid.New())
	assert.Equal(t, 1, row.Week)
	assert.Equal(t, s.StatLine, row.StatLine)
}

func TestMakePlayerSeasonKey(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, MakePlayerSeasonKey(id, 2024), MakePlayerSeasonKey(id, 2024))
	assert.NotEqual(t, MakePlayerSeasonKey(id, 2024), MakePlayerSeasonKey(id, 2023))
	assert.Equal(t, id.String()+":2024", MakePlayerSeasonKey(id, 2024).String())
}
