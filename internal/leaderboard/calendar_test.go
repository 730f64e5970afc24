package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/selection"
)

func TestCalendar_Daily(t *testing.T) {
	cal := NewCalendar(time.UTC, time.Monday)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"morning", time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"exact midnight", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.NextPeriodStart(contracts.Daily, tt.now))
			assert.Equal(t, tt.want.Add(-time.Nanosecond), cal.ValidUntil(contracts.Daily, tt.now))
		})
	}
}

func TestCalendar_WeeklyISO(t *testing.T) {
	cal := NewCalendar(time.UTC, time.Monday)
	nextMonday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// 2026-03-02 is a Monday
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday morning rolls a full week", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), nextMonday},
		{"wednesday", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), nextMonday},
		{"sunday last second", time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC), nextMonday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.NextPeriodStart(contracts.Weekly, tt.now))
		})
	}
}

func TestCalendar_WeeklySundayStart(t *testing.T) {
	cal := NewCalendar(time.UTC, time.Sunday)

	wed := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), cal.NextPeriodStart(contracts.Weekly, wed))

	sun := time.Date(2026, 3, 8, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), cal.NextPeriodStart(contracts.Weekly, sun))
}

func TestCalendar_UsesLocalZone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	cal := NewCalendar(loc, time.Monday)

	// 20:00 UTC on the 4th is already 05:00 on the 5th in UTC+9
	now := time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 6, 0, 0, 0, 0, loc)
	assert.True(t, want.Equal(cal.NextPeriodStart(contracts.Daily, now)))
}

func TestCalendar_BoundaryInstantIsExpired(t *testing.T) {
	cal := NewCalendar(time.UTC, time.Monday)
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	lb := New(contracts.Daily, cal.ValidUntil(contracts.Daily, now), selection.RankByChangePercent)
	assert.False(t, lb.IsExpired(time.Date(2026, 3, 4, 23, 59, 59, 999, time.UTC)))
	assert.True(t, lb.IsExpired(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestCalendar_Roll(t *testing.T) {
	cal := NewCalendar(time.UTC, time.Monday)
	yesterday := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	today := yesterday.Add(24 * time.Hour)

	lb := New(contracts.Daily, cal.ValidUntil(contracts.Daily, yesterday), selection.RankByChangePercent)
	lb.Admit(snap(t, "AAA", "110", "100"))

	assert.False(t, cal.Roll(lb, yesterday))
	assert.Equal(t, 1, lb.Len())

	assert.True(t, cal.Roll(lb, today))
	assert.Equal(t, 0, lb.Len())
	assert.Equal(t, cal.ValidUntil(contracts.Daily, today), lb.ValidUntil())
}

func TestParseWeekStart(t *testing.T) {
	d, err := ParseWeekStart("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	d, err = ParseWeekStart("")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	_, err = ParseWeekStart("friday")
	assert.Error(t, err)
}
