package leaderboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/selection"
)

func snap(t *testing.T, symbol, price, prior string) contracts.Snapshot {
	t.Helper()
	s, err := contracts.NewSnapshot(symbol, decimal.RequireFromString(price), decimal.RequireFromString(prior), contracts.Fundamentals{}, time.Now())
	require.NoError(t, err)
	return s
}

func symbols(snaps []contracts.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Symbol
	}
	return out
}

func TestLeaderboard_AdmitRanksAndDedupes(t *testing.T) {
	lb := New(contracts.Daily, time.Now().Add(time.Hour), selection.RankByChangePercent)

	assert.True(t, lb.Admit(snap(t, "CCC", "103", "100")))
	assert.True(t, lb.Admit(snap(t, "AAA", "110", "100")))
	assert.True(t, lb.Admit(snap(t, "BBB", "110", "100")))
	assert.True(t, lb.Admit(snap(t, "DDD", "101", "100")))

	assert.Equal(t, []string{"AAA", "BBB", "CCC", "DDD"}, symbols(lb.Rank()))
	assert.Equal(t, 4, lb.Len())
}

func TestLeaderboard_FirstWriterWins(t *testing.T) {
	lb := New(contracts.Weekly, time.Now().Add(time.Hour), selection.RankByChangePercent)

	require.True(t, lb.Admit(snap(t, "AAA", "103", "100")))
	assert.False(t, lb.Admit(snap(t, "AAA", "150", "100")))

	ranked := lb.Rank()
	require.Len(t, ranked, 1)
	assert.True(t, decimal.NewFromInt(103).Equal(ranked[0].Price))
}

func TestLeaderboard_RankIsACopy(t *testing.T) {
	lb := New(contracts.Daily, time.Now().Add(time.Hour), selection.RankByChangePercent)
	lb.Admit(snap(t, "AAA", "110", "100").WithReasons([]string{"x"}))

	ranked := lb.Rank()
	ranked[0].Symbol = "ZZZ"
	ranked[0].Reasons[0] = "mutated"

	again := lb.Rank()
	assert.Equal(t, "AAA", again[0].Symbol)
	assert.Equal(t, []string{"x"}, again[0].Reasons)
}

func TestLeaderboard_IsExpired(t *testing.T) {
	now := time.Date(2026, 5, 6, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		validUntil time.Time
		want       bool
	}{
		{"one second ago", now.Add(-time.Second), true},
		{"exactly now", now, false},
		{"later today", now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb := New(contracts.Daily, tt.validUntil, selection.RankByChangePercent)
			assert.Equal(t, tt.want, lb.IsExpired(now))
		})
	}
}

func TestLeaderboard_Reset(t *testing.T) {
	lb := New(contracts.Daily, time.Now(), selection.RankByChangePercent)
	lb.Admit(snap(t, "AAA", "110", "100"))

	next := time.Now().Add(24 * time.Hour)
	lb.Reset(next)

	assert.Equal(t, 0, lb.Len())
	assert.False(t, lb.Contains("AAA"))
	assert.Equal(t, next, lb.ValidUntil())
	assert.True(t, lb.Admit(snap(t, "AAA", "120", "100")))
}

func TestLeaderboard_View(t *testing.T) {
	until := time.Now().Add(time.Hour)
	lb := New(contracts.Weekly, until, selection.RankByChangePercent)
	lb.Admit(snap(t, "AAA", "110", "100"))

	view := lb.View([]string{"AAA"})
	assert.Equal(t, contracts.Weekly, view.Kind)
	assert.Equal(t, until, view.ValidUntil)
	assert.Equal(t, []string{"AAA"}, view.Admitted)
	assert.Len(t, view.Entries, 1)
}
