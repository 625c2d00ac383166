package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
)

const (
	nflBaseURL = "https://api.balldontlie.io/nfl/v1"

	// AdapterName is the registry key of the BallDontLie NFL adapter.
	AdapterName = "bdl-nfl"
)

// NFLAdapter fetches and normalizes NFL data from BallDontLie.
type NFLAdapter struct {
	client *Client
	logger *slog.Logger
}

// NewNFLAdapter creates an NFL adapter with the given API key.
func NewNFLAdapter(apiKey string, logger *slog.Logger) *NFLAdapter {
	return newNFLAdapter(NewClient(nflBaseURL, apiKey, 600, logger), logger)
}

func newNFLAdapter(client *Client, logger *slog.Logger) *NFLAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &NFLAdapter{client: client, logger: logger}
}

func (a *NFLAdapter) Name() string         { return AdapterName }
func (a *NFLAdapter) Sport() model.SportID { return model.SportNFL }

// HealthCheck fetches a single team to verify credentials and reachability.
func (a *NFLAdapter) HealthCheck(ctx context.Context) bool {
	if _, err := a.client.get(ctx, "/teams", url.Values{"per_page": {"1"}}); err != nil {
		a.logger.Warn("BDL health check failed", "error", err)
		return false
	}
	return true
}

// --------------------------------------------------------------------------
// Raw payloads
// --------------------------------------------------------------------------

type bdlNFLTeamRaw struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}

type bdlNFLPlayerRaw struct {
	ID                   int            `json:"id"`
	FirstName            string         `json:"first_name"`
	LastName             string         `json:"last_name"`
	Position             string         `json:"position"`
	PositionAbbreviation string         `json:"position_abbreviation"`
	Height               string         `json:"height"`
	Weight               string         `json:"weight"`
	Team                 *bdlNFLTeamRaw `json:"team"`
	JerseyNumber         interface{}    `json:"jersey_number"`
	College              string         `json:"college"`
	Experience           interface{}    `json:"experience"`
	Age                  interface{}    `json:"age"`
}

type bdlNFLGameRaw struct {
	ID               int           `json:"id"`
	Season           int           `json:"season"`
	Week             int           `json:"week"`
	Status           string        `json:"status"`
	Postseason       bool          `json:"postseason"`
	HomeTeam         bdlNFLTeamRaw `json:"home_team"`
	VisitorTeam      bdlNFLTeamRaw `json:"visitor_team"`
	HomeTeamScore    *int          `json:"home_team_score"`
	VisitorTeamScore *int          `json:"visitor_team_score"`
}

type bdlNFLStatRaw struct {
	Player bdlNFLPlayerRaw `json:"player"`
	Team   bdlNFLTeamRaw   `json:"team"`
	Game   bdlNFLGameRaw   `json:"game"`
}

type bdlNFLSeasonStatRaw struct {
	Player      bdlNFLPlayerRaw `json:"player"`
	GamesPlayed *int            `json:"games_played"`
}

// --------------------------------------------------------------------------
// Players (cursor-paginated)
// --------------------------------------------------------------------------

// FetchPlayers returns every NFL player known to BDL.
func (a *NFLAdapter) FetchPlayers(ctx context.Context) ([]provider.RawPlayer, error) {
	var players []provider.RawPlayer
	err := a.client.paginate(ctx, "/players", nil, func(data json.RawMessage) error {
		var raw []bdlNFLPlayerRaw
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode NFL players: %w", err)
		}
		for _, p := range raw {
			players = append(players, normalizeNFLPlayer(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch NFL players: %w", err)
	}
	return players, nil
}

// externalID combines name and BDL id so two players sharing a name still
// slug to distinct IDs.
func externalID(raw bdlNFLPlayerRaw) string {
	return fmt.Sprintf("%s %d", playerName(raw), raw.ID)
}

func playerName(raw bdlNFLPlayerRaw) string {
	name := strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	if name == "" {
		name = fmt.Sprintf("Player %d", raw.ID)
	}
	return name
}

func normalizeNFLPlayer(raw bdlNFLPlayerRaw) provider.RawPlayer {
	meta := map[string]interface{}{"bdl_id": raw.ID}
	if raw.Position != "" {
		meta["position_name"] = raw.Position
	}
	if raw.Height != "" {
		meta["height"] = raw.Height
	}
	if raw.Weight != "" {
		meta["weight"] = raw.Weight
	}
	if raw.College != "" {
		meta["college"] = raw.College
	}
	if raw.Experience != nil {
		meta["experience"] = raw.Experience
	}
	if raw.Age != nil {
		meta["age"] = raw.Age
	}

	position := raw.PositionAbbreviation
	if position == "" {
		position = raw.Position
	}

	return provider.RawPlayer{
		ExternalID: externalID(raw),
		Name:       playerName(raw),
		Sport:      model.SportNFL,
		Position:   position,
		Metadata:   meta,
	}
}

// --------------------------------------------------------------------------
// Season summary
// --------------------------------------------------------------------------

// FetchSeasonSummary returns one team/jersey snapshot per player who
// appears in the season stats feed.
func (a *NFLAdapter) FetchSeasonSummary(ctx context.Context, season int) ([]provider.RawPlayerSeason, error) {
	params := url.Values{
		"season":     {strconv.Itoa(season)},
		"postseason": {"false"},
	}

	var out []provider.RawPlayerSeason
	err := a.client.paginate(ctx, "/season_stats", params, func(data json.RawMessage) error {
		var raw []bdlNFLSeasonStatRaw
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode NFL season stats: %w", err)
		}
		for _, r := range raw {
			out = append(out, normalizeNFLSeason(r, season))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch NFL season summary: %w", err)
	}
	return out, nil
}

func normalizeNFLSeason(raw bdlNFLSeasonStatRaw, season int) provider.RawPlayerSeason {
	team := "FA"
	active := false
	if raw.Player.Team != nil && raw.Player.Team.Abbreviation != "" {
		team = raw.Player.Team.Abbreviation
		active = true
	}
	if raw.GamesPlayed != nil && *raw.GamesPlayed == 0 {
		active = false
	}

	var jersey *int
	if n, ok := provider.ExtractValue(raw.Player.JerseyNumber); ok {
		v := int(n)
		jersey = &v
	}

	return provider.RawPlayerSeason{
		PlayerExternalID: externalID(raw.Player),
		Sport:            model.SportNFL,
		Season:           season,
		Team:             team,
		JerseyNumber:     jersey,
		IsActive:         &active,
	}
}

// --------------------------------------------------------------------------
// Weekly stats
// --------------------------------------------------------------------------

// FetchWeeklyStats returns per-game regular-season stat lines.
func (a *NFLAdapter) FetchWeeklyStats(ctx context.Context, season int, week *int) ([]provider.RawWeeklyStat, error) {
	params := url.Values{"seasons[]": {strconv.Itoa(season)}}
	if week != nil {
		params.Set("weeks[]", strconv.Itoa(*week))
	}

	var out []provider.RawWeeklyStat
	err := a.client.paginate(ctx, "/stats", params, func(data json.RawMessage) error {
		var items []json.RawMessage
		if err := sonic.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode NFL stats: %w", err)
		}
		for _, item := range items {
			var raw bdlNFLStatRaw
			if err := sonic.Unmarshal(item, &raw); err != nil {
				return fmt.Errorf("decode NFL stat line: %w", err)
			}
			if raw.Game.Postseason {
				continue
			}
			var stats map[string]interface{}
			if err := sonic.Unmarshal(item, &stats); err != nil {
				return fmt.Errorf("decode NFL stat values: %w", err)
			}
			out = append(out, normalizeNFLStat(raw, stats))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch NFL weekly stats: %w", err)
	}
	a.logger.Info("BDL weekly stats fetched", "season", season, "count", len(out))
	return out, nil
}

func normalizeNFLStat(raw bdlNFLStatRaw, stats map[string]interface{}) provider.RawWeeklyStat {
	location := string(model.Away)
	opponent := raw.Game.HomeTeam.Abbreviation
	ownScore, oppScore := raw.Game.VisitorTeamScore, raw.Game.HomeTeamScore
	if raw.Team.ID == raw.Game.HomeTeam.ID {
		location = string(model.Home)
		opponent = raw.Game.VisitorTeam.Abbreviation
		ownScore, oppScore = raw.Game.HomeTeamScore, raw.Game.VisitorTeamScore
	}

	return provider.RawWeeklyStat{
		PlayerExternalID: externalID(raw.Player),
		Sport:            model.SportNFL,
		Season:           raw.Game.Season,
		Week:             raw.Game.Week,
		Opponent:         opponent,
		Location:         location,
		Result:           gameResult(raw.Game.Status, ownScore, oppScore),

		PassAttempts:        provider.ExtractInt(stats, "passing_attempts"),
		PassCompletions:     provider.ExtractInt(stats, "passing_completions"),
		PassingYards:        provider.ExtractInt(stats, "passing_yards"),
		PassingTDs:          provider.ExtractInt(stats, "passing_touchdowns"),
		Interceptions:       provider.ExtractInt(stats, "passing_interceptions"),
		RushAttempts:        provider.ExtractInt(stats, "rushing_attempts"),
		RushingYards:        provider.ExtractInt(stats, "rushing_yards"),
		RushingTDs:          provider.ExtractInt(stats, "rushing_touchdowns"),
		Targets:             provider.ExtractInt(stats, "receiving_targets"),
		Receptions:          provider.ExtractInt(stats, "receptions"),
		ReceivingYards:      provider.ExtractInt(stats, "receiving_yards"),
		ReceivingTDs:        provider.ExtractInt(stats, "receiving_touchdowns"),
		FumblesLost:         provider.ExtractInt(stats, "fumbles_lost"),
		TwoPointConversions: provider.ExtractInt(stats, "two_point_conversions"),
		FantasyPoints:       provider.ExtractFloat(stats, "fantasy_points"),
	}
}

// gameResult renders "W 27-20" style results for finished games only.
func gameResult(status string, own, opp *int) *string {
	if own == nil || opp == nil || !strings.EqualFold(status, "final") {
		return nil
	}
	outcome := "T"
	switch {
	case *own > *opp:
		outcome = "W"
	case *own < *opp:
		outcome = "L"
	}
	s := fmt.Sprintf("%s %d-%d", outcome, *own, *opp)
	return &s
}
