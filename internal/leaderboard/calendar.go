package leaderboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/movers/internal/contracts"
)

// Calendar computes rollover boundaries in one time zone.
// A period's ValidUntil is its last representable instant (one nanosecond
// before the next period starts), so the first instant of a new day or week
// already reads as expired.
type Calendar struct {
	loc       *time.Location
	weekStart time.Weekday
}

// NewCalendar builds a calendar; weeks start on weekStart at 00:00 local time
func NewCalendar(loc *time.Location, weekStart time.Weekday) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc, weekStart: weekStart}
}

// ParseWeekStart accepts "monday" (ISO weeks) or "sunday"
func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("unknown week start %q (want monday or sunday)", s)
}

// Location returns the calendar's time zone
func (c Calendar) Location() *time.Location {
	return c.loc
}

// WeekStart returns the first day of the calendar week
func (c Calendar) WeekStart() time.Weekday {
	return c.weekStart
}

// NextPeriodStart is the start of the next day (daily) or next week (weekly) after now.
// On the week-start day itself the next week is seven days away, never today.
func (c Calendar) NextPeriodStart(kind contracts.Kind, now time.Time) time.Time {
	local := now.In(c.loc)
	y, m, d := local.Date()

	days := 1
	if kind == contracts.Weekly {
		days = (int(c.weekStart) - int(local.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
	}
	return time.Date(y, m, d+days, 0, 0, 0, 0, c.loc)
}

// ValidUntil is the last instant of the period containing now
func (c Calendar) ValidUntil(kind contracts.Kind, now time.Time) time.Time {
	return c.NextPeriodStart(kind, now).Add(-time.Nanosecond)
}

// Roll resets lb to the current period when it has expired and reports whether it did
func (c Calendar) Roll(lb *Leaderboard, now time.Time) bool {
	if !lb.IsExpired(now) {
		return false
	}
	lb.Reset(c.ValidUntil(lb.Kind(), now))
	return true
}
