// Package screenconfig resolves the screening rule from env settings and an
// optional YAML override file, and fingerprints it.
package screenconfig

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/internal/selection"
	"github.com/wonny/movers/pkg/config"
)

// Config is the full screening rule.
// Field order is fixed: the hash is taken over its JSON encoding.
type Config struct {
	Rule     RuleSection     `yaml:"rule" json:"rule"`
	Ranking  RankingSection  `yaml:"ranking" json:"ranking"`
	Calendar CalendarSection `yaml:"calendar" json:"calendar"`
	Limits   LimitsSection   `yaml:"limits" json:"limits"`
}

// RuleSection holds predicate thresholds
type RuleSection struct {
	ThresholdChangePercent float64  `yaml:"threshold_change_percent" json:"threshold_change_percent"`
	ValuationRatioCeiling  float64  `yaml:"valuation_ratio_ceiling" json:"valuation_ratio_ceiling"`
	EnabledPredicates      []string `yaml:"enabled_predicates" json:"enabled_predicates"`
}

// RankingSection picks the ordering key
type RankingSection struct {
	Key string `yaml:"key" json:"key"`
}

// CalendarSection sets rollover boundaries
type CalendarSection struct {
	WeekStart string `yaml:"week_start" json:"week_start"`
	Timezone  string `yaml:"timezone" json:"timezone"`
}

// LimitsSection caps admissions per cycle (0 = unlimited)
type LimitsSection struct {
	Daily  int `yaml:"daily" json:"daily"`
	Weekly int `yaml:"weekly" json:"weekly"`
}

// FromEnv copies the env-derived screening settings
func FromEnv(cfg config.ScreeningConfig) *Config {
	return &Config{
		Rule: RuleSection{
			ThresholdChangePercent: cfg.ThresholdChangePercent,
			ValuationRatioCeiling:  cfg.ValuationRatioCeiling,
			EnabledPredicates:      normalizePredicates(cfg.EnabledPredicates),
		},
		Ranking:  RankingSection{Key: cfg.RankKey},
		Calendar: CalendarSection{WeekStart: cfg.WeekStart, Timezone: cfg.Timezone},
		Limits:   LimitsSection{Daily: cfg.DailyAdmitLimit, Weekly: cfg.WeeklyAdmitLimit},
	}
}

// RuleConfig converts the rule section for selection.NewRule
func (c *Config) RuleConfig() selection.RuleConfig {
	return selection.RuleConfig{
		ThresholdChangePercent: decimal.NewFromFloat(c.Rule.ThresholdChangePercent),
		ValuationRatioCeiling:  decimal.NewFromFloat(c.Rule.ValuationRatioCeiling),
		EnabledPredicates:      append([]string{}, c.Rule.EnabledPredicates...),
	}
}

// RankKey returns the parsed ranking key
func (c *Config) RankKey() (selection.RankKey, error) {
	return selection.ParseRankKey(c.Ranking.Key)
}

// Location returns the calendar time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" || c.Calendar.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Calendar.Timezone)
}

// NewCalendar builds the rollover calendar
func (c *Config) NewCalendar() (leaderboard.Calendar, error) {
	loc, err := c.Location()
	if err != nil {
		return leaderboard.Calendar{}, err
	}
	weekStart, err := leaderboard.ParseWeekStart(c.Calendar.WeekStart)
	if err != nil {
		return leaderboard.Calendar{}, err
	}
	return leaderboard.NewCalendar(loc, weekStart), nil
}

// normalizePredicates lowercases and trims names the way selection.NewRule
// reads them, so validation and the hash see the same spelling
func normalizePredicates(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, strings.ToLower(strings.TrimSpace(name)))
	}
	return out
}
