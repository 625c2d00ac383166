// Package provider defines the raw record shapes that adapters emit and the
// capability contract the ETL runner consumes. These structs are the
// boundary between source-specific handlers and the transformer.
//
// Adding a new data source means implementing Adapter and registering it.
// The transformer, loader, and Postgres schema never change.
package provider

import (
	"context"

	"github.com/albapepper/scoracle-etl/internal/model"
)

// RawPlayer is a source player record. ExternalID is whatever the source
// uses to identify the player; it is slugged into model.Player.ID.
type RawPlayer struct {
	ExternalID string                 `json:"external_id"`
	Name       string                 `json:"name"`
	ImageURL   *string                `json:"image_url,omitempty"`
	Sport      model.SportID          `json:"sport,omitempty"`
	Position   string                 `json:"position,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// RawPlayerProfile is a source record describing a player's role in a sport.
type RawPlayerProfile struct {
	PlayerExternalID string                 `json:"player_external_id"`
	Sport            model.SportID          `json:"sport"`
	Position         string                 `json:"position"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// RawPlayerSeason is a source season snapshot for one player.
type RawPlayerSeason struct {
	PlayerExternalID string        `json:"player_external_id"`
	Sport            model.SportID `json:"sport"`
	Season           int           `json:"season"`
	Team             string        `json:"team"`
	JerseyNumber     *int          `json:"jersey_number,omitempty"`
	IsActive         *bool         `json:"is_active,omitempty"`
}

// RawWeeklyStat is one game line from the source. Nil numeric fields mean
// the source did not report the stat.
type RawWeeklyStat struct {
	PlayerExternalID string        `json:"player_external_id"`
	Sport            model.SportID `json:"sport"`
	Season           int           `json:"season"`
	Week             int           `json:"week"`
	Opponent         string        `json:"opponent"`
	Location         string        `json:"location"`
	Result           *string       `json:"result,omitempty"`

	PassAttempts        *int     `json:"pass_attempts,omitempty"`
	PassCompletions     *int     `json:"pass_completions,omitempty"`
	PassingYards        *int     `json:"passing_yards,omitempty"`
	PassingTDs          *int     `json:"passing_tds,omitempty"`
	Interceptions       *int     `json:"interceptions,omitempty"`
	RushAttempts        *int     `json:"rush_attempts,omitempty"`
	RushingYards        *int     `json:"rushing_yards,omitempty"`
	RushingTDs          *int     `json:"rushing_tds,omitempty"`
	Targets             *int     `json:"targets,omitempty"`
	Receptions          *int     `json:"receptions,omitempty"`
	ReceivingYards      *int     `json:"receiving_yards,omitempty"`
	ReceivingTDs        *int     `json:"receiving_tds,omitempty"`
	FumblesLost         *int     `json:"fumbles_lost,omitempty"`
	TwoPointConversions *int     `json:"two_point_conversions,omitempty"`
	FantasyPoints       *float64 `json:"fantasy_points,omitempty"`
}

// Adapter is a pluggable source of raw sport statistics.
type Adapter interface {
	// Name is the registry key, e.g. "bdl-nfl".
	Name() string
	// Sport is the sport this adapter serves, or "" for multi-sport sources.
	Sport() model.SportID
	FetchPlayers(ctx context.Context) ([]RawPlayer, error)
	// FetchWeeklyStats returns game lines for season; a nil week means all weeks.
	FetchWeeklyStats(ctx context.Context, season int, week *int) ([]RawWeeklyStat, error)
	// FetchSeasonSummary returns one season snapshot per player.
	FetchSeasonSummary(ctx context.Context, season int) ([]RawPlayerSeason, error)
	HealthCheck(ctx context.Context) bool
}

// ProfileSource is implemented by adapters that publish profiles separately
// from players. Adapters without it have profiles derived from FetchPlayers.
type ProfileSource interface {
	FetchPlayerProfiles(ctx context.Context) ([]RawPlayerProfile, error)
}

// ProfilesFromPlayers derives one profile per raw player that carries a
// sport. fallback is used when the player record has no sport of its own.
func ProfilesFromPlayers(players []RawPlayer, fallback model.SportID) []RawPlayerProfile {
	out := make([]RawPlayerProfile, 0, len(players))
	for _, p := range players {
		sport := p.Sport
		if sport == "" {
			sport = fallback
		}
		if sport == "" {
			continue
		}
		out = append(out, RawPlayerProfile{
			PlayerExternalID: p.ExternalID,
			Sport:            sport,
			Position:         p.Position,
			Metadata:         p.Metadata,
		})
	}
	return out
}
