// Package model defines the persisted row shapes written by the ETL loader.
// Field names mirror the columns in internal/db/migrations.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SportID identifies a sport. Only the values below are valid.
type SportID string

const (
	SportNFL SportID = "nfl"
	SportMLB SportID = "mlb"
	SportNBA SportID = "nba"
	SportF1  SportID = "f1"
)

// Sports lists every valid SportID in display order.
var Sports = []SportID{SportNFL, SportMLB, SportNBA, SportF1}

// Valid reports whether s is one of the known sports.
func (s SportID) Valid() bool {
	for _, v := range Sports {
		if s == v {
			return true
		}
	}
	return false
}

// ParseSport returns the SportID for s, or false if s is not a known sport.
func ParseSport(s string) (SportID, bool) {
	id := SportID(s)
	return id, id.Valid()
}

// Location is the home/away marker on a weekly stat line.
type Location string

const (
	Home Location = "H"
	Away Location = "A"
)

// RunStatus is the lifecycle status of an EtlRun.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Player is the identity record every other entity references.
type Player struct {
	ID       string  `json:"id" validate:"required,max=128"`
	Name     string  `json:"name" validate:"required,max=200"`
	ImageURL *string `json:"image_url,omitempty"`
}

// PlayerProfile is a player's role within one sport. Unique per (PlayerID, SportID).
type PlayerProfile struct {
	ID       uuid.UUID              `json:"id"`
	PlayerID string                 `json:"player_id" validate:"required,max=128"`
	SportID  SportID                `json:"sport_id" validate:"required,oneof=nfl mlb nba f1"`
	Position string                 `json:"position" validate:"max=32"`
	Metadata map[string]interface{} `json:"metadata"`
}

// PlayerSeason is a yearly team/jersey/activity snapshot for a profile.
// Unique per (PlayerProfileID, Season).
type PlayerSeason struct {
	ID              uuid.UUID `json:"id"`
	PlayerProfileID uuid.UUID `json:"player_profile_id" validate:"required"`
	Season          int       `json:"season" validate:"min=2000,max=2100"`
	Team            string    `json:"team" validate:"required,max=8"`
	JerseyNumber    int       `json:"jersey_number" validate:"min=0,max=99"`
	IsActive        bool      `json:"is_active"`
}

// StatLine is the fixed set of NFL numeric columns on a weekly stat row.
// Every column defaults to zero when the source omits it.
type StatLine struct {
	PassAttempts        int     `json:"pass_attempts"`
	PassCompletions     int     `json:"pass_completions"`
	PassingYards        int     `json:"passing_yards"`
	PassingTDs          int     `json:"passing_tds"`
	Interceptions       int     `json:"interceptions"`
	RushAttempts        int     `json:"rush_attempts"`
	RushingYards        int     `json:"rushing_yards"`
	RushingTDs          int     `json:"rushing_tds"`
	Targets             int     `json:"targets"`
	Receptions          int     `json:"receptions"`
	ReceivingYards      int     `json:"receiving_yards"`
	ReceivingTDs        int     `json:"receiving_tds"`
	FumblesLost         int     `json:"fumbles_lost"`
	TwoPointConversions int     `json:"two_point_conversions"`
	FantasyPoints       float64 `json:"fantasy_points"`
}

// WeeklyStat is one game's stat line for a player-season.
// Unique per (PlayerSeasonID, Week).
type WeeklyStat struct {
	ID             uuid.UUID `json:"id"`
	PlayerSeasonID uuid.UUID `json:"player_season_id" validate:"required"`
	Week           int       `json:"week" validate:"min=1"`
	Opponent       string    `json:"opponent" validate:"required,max=8"`
	Location       Location  `json:"location" validate:"required,oneof=H A"`
	Result         *string   `json:"result,omitempty"`
	StatLine
}

// EtlRun is the audit record of one pipeline execution.
type EtlRun struct {
	ID               uuid.UUID  `json:"id"`
	AdapterName      string     `json:"adapter_name"`
	SportID          *SportID   `json:"sport_id,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Status           RunStatus  `json:"status"`
	RecordsProcessed int        `json:"records_processed"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
}
