// Package etl normalizes raw adapter records into persisted rows and loads
// them in dependency order: players, profiles, player-seasons, weekly stats.
//
// ID maps are allocated per run and threaded explicitly between stages.
// Nothing here caches across runs.
package etl

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// NormalizePlayerID derives the internal slug for an external player ID.
// IDs that are already slugs pass through unchanged.
func NormalizePlayerID(externalID string) string {
	if slugPattern.MatchString(externalID) {
		return externalID
	}
	s := strings.ToLower(externalID)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// StagedWeeklyStat is a weekly stat awaiting its player_season_id. The
// Loader resolves it from (PlayerProfileID, Season) after seasons are written.
type StagedWeeklyStat struct {
	ExternalID      string
	Sport           model.SportID
	PlayerProfileID uuid.UUID
	Season          int
	Week            int
	Opponent        string
	Location        model.Location
	Result          *string
	model.StatLine
}

// SeasonKey returns the composite key used to resolve the player-season.
func (s StagedWeeklyStat) SeasonKey() SeasonKey {
	return MakePlayerSeasonKey(s.PlayerProfileID, s.Season)
}

// WeeklyStat returns the persisted row for playerSeasonID.
func (s StagedWeeklyStat) WeeklyStat(playerSeasonID uuid.UUID) model.WeeklyStat {
	return model.WeeklyStat{
		PlayerSeasonID: playerSeasonID,
		Week:           s.Week,
		Opponent:       s.Opponent,
		Location:       s.Location,
		Result:         s.Result,
		StatLine:       s.StatLine,
	}
}

// Transformer maps raw adapter records to row shapes. It performs no I/O;
// the logger only receives skip warnings.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer creates a Transformer.
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{logger: logger}
}

// TransformPlayers returns one Player per raw record and the external ID map.
func (t *Transformer) TransformPlayers(raw []provider.RawPlayer) ([]model.Player, ExternalIDMap) {
	players := make([]model.Player, 0, len(raw))
	extMap := make(ExternalIDMap, len(raw))
	for _, r := range raw {
		id := NormalizePlayerID(r.ExternalID)
		players = append(players, model.Player{
			ID:       id,
			Name:     strings.TrimSpace(r.Name),
			ImageURL: r.ImageURL,
		})
		extMap[r.ExternalID] = id
	}
	return players, extMap
}

// TransformPlayerProfiles resolves each profile's player through extMap.
func (t *Transformer) TransformPlayerProfiles(raw []provider.RawPlayerProfile, extMap ExternalIDMap) ([]model.PlayerProfile, []Skip) {
	profiles := make([]model.PlayerProfile, 0, len(raw))
	var skips []Skip
	for _, r := range raw {
		playerID, ok := extMap[r.PlayerExternalID]
		if !ok {
			skips = t.skip(skips, StageProfiles, r.PlayerExternalID, "unknown external player id")
			continue
		}
		meta := r.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		profiles = append(profiles, model.PlayerProfile{
			PlayerID: playerID,
			SportID:  r.Sport,
			Position: r.Position,
			Metadata: meta,
		})
	}
	return profiles, skips
}

// TransformPlayerSeasons resolves external ID -> player ID -> profile ID.
// A missing jersey number becomes 0; a missing activity flag means active.
func (t *Transformer) TransformPlayerSeasons(raw []provider.RawPlayerSeason, extMap ExternalIDMap, profileMap ProfileIDMap) ([]model.PlayerSeason, []Skip) {
	seasons := make([]model.PlayerSeason, 0, len(raw))
	var skips []Skip
	for _, r := range raw {
		profileID, reason, ok := resolveProfile(r.PlayerExternalID, extMap, profileMap)
		if !ok {
			skips = t.skip(skips, StageSeasons, r.PlayerExternalID, reason)
			continue
		}
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		seasons = append(seasons, model.PlayerSeason{
			PlayerProfileID: profileID,
			Season:          r.Season,
			Team:            strings.ToUpper(strings.TrimSpace(r.Team)),
			JerseyNumber:    intOrZero(r.JerseyNumber),
			IsActive:        active,
		})
	}
	return seasons, skips
}

// TransformWeeklyStats resolves each stat line to its profile. Absent
// numeric values become 0; explicit zeros are kept. A stat without its own
// sport takes sport, the adapter's sport.
func (t *Transformer) TransformWeeklyStats(raw []provider.RawWeeklyStat, extMap ExternalIDMap, profileMap ProfileIDMap, sport model.SportID) ([]StagedWeeklyStat, []Skip) {
	stats := make([]StagedWeeklyStat, 0, len(raw))
	var skips []Skip
	for _, r := range raw {
		profileID, reason, ok := resolveProfile(r.PlayerExternalID, extMap, profileMap)
		if !ok {
			skips = t.skip(skips, StageStats, r.PlayerExternalID, reason)
			continue
		}
		statSport := r.Sport
		if statSport == "" {
			statSport = sport
		}
		stats = append(stats, StagedWeeklyStat{
			ExternalID:      r.PlayerExternalID,
			Sport:           statSport,
			PlayerProfileID: profileID,
			Season:          r.Season,
			Week:            r.Week,
			Opponent:        strings.ToUpper(strings.TrimSpace(r.Opponent)),
			Location:        model.Location(strings.ToUpper(strings.TrimSpace(r.Location))),
			Result:          r.Result,
			StatLine: model.StatLine{
				PassAttempts:        intOrZero(r.PassAttempts),
				PassCompletions:     intOrZero(r.PassCompletions),
				PassingYards:        intOrZero(r.PassingYards),
				PassingTDs:          intOrZero(r.PassingTDs),
				Interceptions:       intOrZero(r.Interceptions),
				RushAttempts:        intOrZero(r.RushAttempts),
				RushingYards:        intOrZero(r.RushingYards),
				RushingTDs:          intOrZero(r.RushingTDs),
				Targets:             intOrZero(r.Targets),
				Receptions:          intOrZero(r.Receptions),
				ReceivingYards:      intOrZero(r.ReceivingYards),
				ReceivingTDs:        intOrZero(r.ReceivingTDs),
				FumblesLost:         intOrZero(r.FumblesLost),
				TwoPointConversions: intOrZero(r.TwoPointConversions),
				FantasyPoints:       floatOrZero(r.FantasyPoints),
			},
		})
	}
	return stats, skips
}

func (t *Transformer) skip(skips []Skip, stage, externalID, reason string) []Skip {
	t.logger.Warn("Skipping record", "stage", stage, "external_id", externalID, "reason", reason)
	return append(skips, Skip{ExternalID: externalID, Reason: reason})
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
