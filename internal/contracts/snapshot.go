package contracts

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trend is the direction of a snapshot's price against the prior close
type Trend string

const (
	TrendUpward   Trend = "upward"
	TrendDownward Trend = "downward"
)

// Unavailable marks an absent valuation or fundamental figure.
// It is distinct from a figure that is present but unattractive.
var Unavailable = decimal.NullDecimal{}

// Available wraps a present figure
func Available(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

var hundred = decimal.NewFromInt(100)

// Fundamentals holds optional per-symbol fundamentals, resolved once at ingestion
type Fundamentals struct {
	EPS     decimal.NullDecimal `json:"eps"`
	PERatio decimal.NullDecimal `json:"pe_ratio"`
}

// Snapshot is one instrument's market state from one fetch cycle.
// Built only through NewSnapshot; scoring returns a copy carrying reasons.
// ⭐ SSOT: 종목 스냅샷은 여기서만 정의
type Snapshot struct {
	Symbol        string              `json:"symbol"`
	Price         decimal.Decimal     `json:"price"`
	PriorClose    decimal.Decimal     `json:"prior_close"`
	ChangePercent decimal.Decimal     `json:"change_percent"`
	Trend         Trend               `json:"trend"`
	Valuation     decimal.NullDecimal `json:"valuation_ratio"`
	Fundamentals  Fundamentals        `json:"fundamentals"`
	Reasons       []string            `json:"reasons"`
	FetchedAt     time.Time           `json:"fetched_at"`
}

// NewSnapshot validates the raw quote and derives change percent and trend.
// A missing or zero prior close, or a non-positive price, is a ValidationError.
func NewSnapshot(symbol string, price, priorClose decimal.Decimal, fundamentals Fundamentals, fetchedAt time.Time) (Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Snapshot{}, &ValidationError{Field: "symbol", Message: "empty symbol"}
	}
	if !priorClose.IsPositive() {
		return Snapshot{}, &ValidationError{Symbol: symbol, Field: "prior_close", Message: "prior close must be positive"}
	}
	if !price.IsPositive() {
		return Snapshot{}, &ValidationError{Symbol: symbol, Field: "price", Message: "price must be positive"}
	}

	trend := TrendDownward
	if price.GreaterThan(priorClose) {
		trend = TrendUpward
	}

	return Snapshot{
		Symbol:        symbol,
		Price:         price,
		PriorClose:    priorClose,
		ChangePercent: price.Sub(priorClose).Div(priorClose).Mul(hundred),
		Trend:         trend,
		Valuation:     fundamentals.PERatio,
		Fundamentals:  fundamentals,
		FetchedAt:     fetchedAt,
	}, nil
}

// WithReasons returns a copy carrying the given reasons
func (s Snapshot) WithReasons(reasons []string) Snapshot {
	s.Reasons = append([]string(nil), reasons...)
	return s
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	return s.WithReasons(s.Reasons)
}

// IsUpward reports whether the price is above the prior close
func (s Snapshot) IsUpward() bool {
	return s.Trend == TrendUpward
}

// ChangeDisplay formats change percent with two decimals, e.g. "+5.25%"
func (s Snapshot) ChangeDisplay() string {
	out := s.ChangePercent.StringFixed(2) + "%"
	if s.ChangePercent.IsPositive() {
		return "+" + out
	}
	return out
}

// ValuationDisplay formats the valuation ratio or "N/A"
func (s Snapshot) ValuationDisplay() string {
	if !s.Valuation.Valid {
		return "N/A"
	}
	return s.Valuation.Decimal.StringFixed(2)
}

// ReasonsDisplay joins reasons for one-line output
func (s Snapshot) ReasonsDisplay() string {
	return strings.Join(s.Reasons, ", ")
}
