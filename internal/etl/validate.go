package etl

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/model"
)

// Validator performs structural checks on rows before they are written.
// Failures log a warning and return false; callers drop the row.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{validate: validator.New(), logger: logger}
}

func (v *Validator) ValidatePlayer(p model.Player) bool {
	return v.check("player", p.ID, p)
}

func (v *Validator) ValidatePlayerProfile(p model.PlayerProfile) bool {
	return v.check("player_profile", p.PlayerID, p)
}

func (v *Validator) ValidatePlayerSeason(s model.PlayerSeason) bool {
	return v.check("player_season", s.PlayerProfileID.String(), s)
}

// ValidateWeeklyStat checks the row, its season, and the week against the
// sport's regular-season range. Sports without a configured range only
// require week >= 1.
func (v *Validator) ValidateWeeklyStat(s StagedWeeklyStat) bool {
	if !v.check("weekly_stat", s.ExternalID, s.WeeklyStat(s.PlayerProfileID)) {
		return false
	}
	if s.Season < config.MinSeason || s.Season > config.MaxSeason {
		v.logger.Warn("Invalid weekly_stat", "key", s.ExternalID, "season", s.Season)
		return false
	}
	if !s.Sport.Valid() {
		v.logger.Warn("Invalid weekly_stat", "key", s.ExternalID, "sport", s.Sport)
		return false
	}
	if minWeek, maxWeek, ok := config.WeekRange(s.Sport); ok && (s.Week < minWeek || s.Week > maxWeek) {
		v.logger.Warn("Invalid weekly_stat",
			"key", s.ExternalID, "week", s.Week, "min", minWeek, "max", maxWeek)
		return false
	}
	return true
}

func (v *Validator) check(kind, key string, row interface{}) bool {
	if err := v.validate.Struct(row); err != nil {
		v.logger.Warn("Invalid "+kind, "key", key, "error", err)
		return false
	}
	return true
}
