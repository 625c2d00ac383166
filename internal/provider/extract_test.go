package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-etl/internal/model"
)

func TestExtractValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"numeric string", "301", 301, true},
		{"junk string", "n/a", 0, false},
		{"nested total", map[string]interface{}{"total": 15.0}, 15, true},
		{"nested empty", map[string]interface{}{"other": 1.0}, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractValue(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractInt_KeepsZeroDistinctFromMissing(t *testing.T) {
	stats := map[string]interface{}{"passing_yards": 0.0, "rushing_yards": 41.6}

	zero := ExtractInt(stats, "passing_yards")
	require.NotNil(t, zero)
	assert.Equal(t, 0, *zero)

	rounded := ExtractInt(stats, "rushing_yards")
	require.NotNil(t, rounded)
	assert.Equal(t, 42, *rounded)

	assert.Nil(t, ExtractInt(stats, "receptions"))
	assert.Nil(t, ExtractFloat(stats, "fantasy_points"))
}

func TestProfilesFromPlayers(t *testing.T) {
	players := []RawPlayer{
		{ExternalID: "a", Position: "QB"},
		{ExternalID: "b", Sport: model.SportNBA, Position: "G"},
	}

	got := ProfilesFromPlayers(players, model.SportNFL)
	require.Len(t, got, 2)
	assert.Equal(t, model.SportNFL, got[0].Sport)
	assert.Equal(t, "QB", got[0].Position)
	assert.Equal(t, model.SportNBA, got[1].Sport)

	assert.Empty(t, ProfilesFromPlayers(players[:1], ""))
}

type namedAdapter struct {
	Adapter
	name string
}

func (a namedAdapter) Name() string { return a.name }

func TestRegistry(t *testing.T) {
	r := NewRegistry(namedAdapter{name: "zeta"}, namedAdapter{name: "alpha"})

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())

	got, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "zeta", all[1].Name())
}
