package screenconfig

import (
	"fmt"
	"time"

	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/internal/selection"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Rule ===
	if cfg.Rule.ValuationRatioCeiling <= 0 {
		return ValidationError{"rule.valuation_ratio_ceiling", "must be > 0"}
	}
	seen := make(map[string]bool)
	for _, p := range normalizePredicates(cfg.Rule.EnabledPredicates) {
		if !selection.KnownPredicate(p) {
			return ValidationError{"rule.enabled_predicates", fmt.Sprintf("unknown predicate %q", p)}
		}
		if seen[p] {
			return ValidationError{"rule.enabled_predicates", fmt.Sprintf("duplicate predicate %q", p)}
		}
		seen[p] = true
	}

	// === Ranking ===
	if _, err := selection.ParseRankKey(cfg.Ranking.Key); err != nil {
		return ValidationError{"ranking.key", err.Error()}
	}

	// === Calendar ===
	if _, err := leaderboard.ParseWeekStart(cfg.Calendar.WeekStart); err != nil {
		return ValidationError{"calendar.week_start", err.Error()}
	}
	if tz := cfg.Calendar.Timezone; tz != "" && tz != "Local" {
		if _, err := time.LoadLocation(tz); err != nil {
			return ValidationError{"calendar.timezone", err.Error()}
		}
	}

	// === Limits ===
	if cfg.Limits.Daily < 0 {
		return ValidationError{"limits.daily", "must be >= 0"}
	}
	if cfg.Limits.Weekly < 0 {
		return ValidationError{"limits.weekly", "must be >= 0"}
	}

	return nil
}
