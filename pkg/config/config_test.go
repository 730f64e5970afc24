package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8089", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 20, cfg.Screening.UniverseSize)
	assert.Equal(t, 3*time.Minute, cfg.Screening.CycleInterval)
	assert.Equal(t, 5.0, cfg.Screening.ThresholdChangePercent)
	assert.Equal(t, 25.0, cfg.Screening.ValuationRatioCeiling)
	assert.Equal(t, []string{"momentum", "magnitude"}, cfg.Screening.EnabledPredicates)
	assert.Equal(t, "monday", cfg.Screening.WeekStart)
	assert.Equal(t, "change_percent", cfg.Screening.RankKey)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.FundamentalsCache.TTL)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("UNIVERSE_SIZE", "50")
	t.Setenv("CYCLE_INTERVAL", "90s")
	t.Setenv("THRESHOLD_CHANGE_PERCENT", "2.5")
	t.Setenv("ENABLED_PREDICATES", " Momentum , valuation ,")
	t.Setenv("WEEK_START", "Sunday")
	t.Setenv("DAILY_ADMIT_LIMIT", "1")
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 50, cfg.Screening.UniverseSize)
	assert.Equal(t, 90*time.Second, cfg.Screening.CycleInterval)
	assert.Equal(t, 2.5, cfg.Screening.ThresholdChangePercent)
	assert.Equal(t, []string{"momentum", "valuation"}, cfg.Screening.EnabledPredicates)
	assert.Equal(t, "sunday", cfg.Screening.WeekStart)
	assert.Equal(t, 1, cfg.Screening.DailyAdmitLimit)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
}

func TestLoad_NoPredicates(t *testing.T) {
	t.Setenv("ENABLED_PREDICATES", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Screening.EnabledPredicates)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad env", map[string]string{"ENV": "qa"}},
		{"zero universe", map[string]string{"UNIVERSE_SIZE": "0"}},
		{"bad week start", map[string]string{"WEEK_START": "friday"}},
		{"zero ceiling", map[string]string{"VALUATION_RATIO_CEILING": "0"}},
		{"negative admit limit", map[string]string{"WEEKLY_ADMIT_LIMIT": "-1"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "etcd"}},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"mongo without uri", map[string]string{"STORE_BACKEND": "mongo", "MONGODB_URI": ""}},
		{"redis disabled", map[string]string{"STORE_BACKEND": "redis", "REDIS_ENABLED": "false"}},
		{"html without url", map[string]string{"UNIVERSE_SOURCE": "html", "UNIVERSE_HTML_URL": ""}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Screening: ScreeningConfig{Timezone: "UTC"}}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Screening.Timezone = ""
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}
