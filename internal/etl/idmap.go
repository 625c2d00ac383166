package etl

import (
	"fmt"

	"github.com/google/uuid"
)

// ExternalIDMap maps a source external ID to the internal player slug.
type ExternalIDMap map[string]string

// ProfileIDMap maps an internal player ID to its player_profile ID.
type ProfileIDMap map[string]uuid.UUID

// SeasonKey identifies a player-season by (player_profile_id, season).
type SeasonKey struct {
	ProfileID uuid.UUID
	Season    int
}

func (k SeasonKey) String() string {
	return fmt.Sprintf("%s:%d", k.ProfileID, k.Season)
}

// MakePlayerSeasonKey builds the composite key used by SeasonIDMap.
func MakePlayerSeasonKey(profileID uuid.UUID, season int) SeasonKey {
	return SeasonKey{ProfileID: profileID, Season: season}
}

// SeasonIDMap maps a SeasonKey to its player_season ID.
type SeasonIDMap map[SeasonKey]uuid.UUID

// resolveProfile runs the two-stage external ID -> player ID -> profile ID
// lookup shared by the season and weekly stat transforms.
func resolveProfile(externalID string, extMap ExternalIDMap, profileMap ProfileIDMap) (uuid.UUID, string, bool) {
	playerID, ok := extMap[externalID]
	if !ok {
		return uuid.Nil, "unknown external player id", false
	}
	profileID, ok := profileMap[playerID]
	if !ok {
		return uuid.Nil, fmt.Sprintf("no profile for player %s", playerID), false
	}
	return profileID, "", true
}
