package contracts

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		price      string
		priorClose string
		wantChange string
		wantTrend  Trend
	}{
		{"gain", "110", "100", "10", TrendUpward},
		{"loss", "97", "100", "-3", TrendDownward},
		{"flat counts as downward", "100", "100", "0", TrendDownward},
		{"fractional", "101.5", "100", "1.5", TrendUpward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := NewSnapshot(" aaa ", d(tt.price), d(tt.priorClose), Fundamentals{}, now)
			require.NoError(t, err)
			assert.Equal(t, "AAA", snap.Symbol)
			assert.True(t, d(tt.wantChange).Equal(snap.ChangePercent), "got %s", snap.ChangePercent)
			assert.Equal(t, tt.wantTrend, snap.Trend)
			assert.False(t, snap.Valuation.Valid)
			assert.Equal(t, now, snap.FetchedAt)
		})
	}
}

func TestNewSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		price      decimal.Decimal
		priorClose decimal.Decimal
		field      string
	}{
		{"zero prior close", "AAA", d("10"), decimal.Zero, "prior_close"},
		{"negative prior close", "AAA", d("10"), d("-1"), "prior_close"},
		{"zero price", "AAA", decimal.Zero, d("10"), "price"},
		{"empty symbol", "  ", d("10"), d("10"), "symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.symbol, tt.price, tt.priorClose, Fundamentals{}, time.Now())
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSnapshot_ValuationFromFundamentals(t *testing.T) {
	f := Fundamentals{PERatio: Available(d("18.4")), EPS: Available(d("3.2"))}
	snap, err := NewSnapshot("BBB", d("20"), d("19"), f, time.Now())
	require.NoError(t, err)

	assert.True(t, snap.Valuation.Valid)
	assert.Equal(t, "18.40", snap.ValuationDisplay())
	assert.True(t, snap.Fundamentals.EPS.Valid)
}

func TestSnapshot_WithReasonsCopies(t *testing.T) {
	snap, err := NewSnapshot("AAA", d("110"), d("100"), Fundamentals{}, time.Now())
	require.NoError(t, err)

	reasons := []string{"Positive price momentum"}
	scored := snap.WithReasons(reasons)
	reasons[0] = "mutated"

	assert.Empty(t, snap.Reasons)
	assert.Equal(t, []string{"Positive price momentum"}, scored.Reasons)
}

func TestSnapshot_Display(t *testing.T) {
	up, _ := NewSnapshot("AAA", d("105.256"), d("100"), Fundamentals{}, time.Now())
	down, _ := NewSnapshot("BBB", d("95"), d("100"), Fundamentals{}, time.Now())

	assert.Equal(t, "+5.26%", up.ChangeDisplay())
	assert.Equal(t, "-5.00%", down.ChangeDisplay())
	assert.Equal(t, "N/A", up.ValuationDisplay())
	assert.Equal(t, "a, b", up.WithReasons([]string{"a", "b"}).ReasonsDisplay())
}

func TestSnapshot_JSONRoundTripKeepsUnavailable(t *testing.T) {
	snap, err := NewSnapshot("AAA", d("110"), d("100"), Fundamentals{}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"valuation_ratio":null`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back.Valuation.Valid)
	assert.True(t, snap.ChangePercent.Equal(back.ChangePercent))
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("timeout")

	pErr := &ProviderError{Stage: StageSnapshot, Symbol: "AAA", Err: cause}
	assert.ErrorIs(t, pErr, cause)
	assert.Contains(t, pErr.Error(), "AAA")

	sErr := &StoreError{Op: "save", Kind: "daily", Err: cause}
	assert.ErrorIs(t, sErr, cause)
	assert.Equal(t, "leaderboard store save daily: timeout", sErr.Error())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, k)

	_, err = ParseKind("monthly")
	assert.Error(t, err)

	assert.Equal(t, "No top stock today", Daily.EmptyLabel())
	assert.Equal(t, "No top stocks this week", Weekly.EmptyLabel())
}
