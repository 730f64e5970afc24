package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
)

// document is the backend-neutral persisted layout: {entries, valid_until} keyed by kind.
// Decimals travel as strings so every encoding keeps them exact.
type document struct {
	Kind       string          `json:"kind" msgpack:"kind" bson:"_id"`
	Entries    []entryDocument `json:"entries" msgpack:"entries" bson:"entries"`
	ValidUntil time.Time       `json:"valid_until" msgpack:"valid_until" bson:"valid_until"`
}

type entryDocument struct {
	Symbol        string    `json:"symbol" msgpack:"symbol" bson:"symbol"`
	Price         string    `json:"price" msgpack:"price" bson:"price"`
	PriorClose    string    `json:"prior_close" msgpack:"prior_close" bson:"prior_close"`
	ChangePercent string    `json:"change_percent" msgpack:"change_percent" bson:"change_percent"`
	Trend         string    `json:"trend" msgpack:"trend" bson:"trend"`
	Valuation     *string   `json:"valuation_ratio,omitempty" msgpack:"valuation_ratio,omitempty" bson:"valuation_ratio,omitempty"`
	EPS           *string   `json:"eps,omitempty" msgpack:"eps,omitempty" bson:"eps,omitempty"`
	Reasons       []string  `json:"reasons" msgpack:"reasons" bson:"reasons"`
	FetchedAt     time.Time `json:"fetched_at" msgpack:"fetched_at" bson:"fetched_at"`
}

func toDocument(rec *leaderboard.Record) document {
	doc := document{
		Kind:       string(rec.Kind),
		Entries:    make([]entryDocument, 0, len(rec.Entries)),
		ValidUntil: rec.ValidUntil.UTC(),
	}
	for _, s := range rec.Entries {
		doc.Entries = append(doc.Entries, entryDocument{
			Symbol:        s.Symbol,
			Price:         s.Price.String(),
			PriorClose:    s.PriorClose.String(),
			ChangePercent: s.ChangePercent.String(),
			Trend:         string(s.Trend),
			Valuation:     nullToPtr(s.Valuation),
			EPS:           nullToPtr(s.Fundamentals.EPS),
			Reasons:       s.Reasons,
			FetchedAt:     s.FetchedAt.UTC(),
		})
	}
	return doc
}

func fromDocument(doc document) (*leaderboard.Record, error) {
	kind, err := contracts.ParseKind(doc.Kind)
	if err != nil {
		return nil, err
	}

	rec := &leaderboard.Record{
		Kind:       kind,
		Entries:    make([]contracts.Snapshot, 0, len(doc.Entries)),
		ValidUntil: doc.ValidUntil,
	}
	for _, e := range doc.Entries {
		s, err := e.snapshot()
		if err != nil {
			return nil, fmt.Errorf("decode %s entry %s: %w", doc.Kind, e.Symbol, err)
		}
		rec.Entries = append(rec.Entries, s)
	}
	return rec, nil
}

func (e entryDocument) snapshot() (contracts.Snapshot, error) {
	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("price: %w", err)
	}
	prior, err := decimal.NewFromString(e.PriorClose)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("prior close: %w", err)
	}
	change, err := decimal.NewFromString(e.ChangePercent)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("change percent: %w", err)
	}
	valuation, err := ptrToNull(e.Valuation)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("valuation: %w", err)
	}
	eps, err := ptrToNull(e.EPS)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("eps: %w", err)
	}

	return contracts.Snapshot{
		Symbol:        e.Symbol,
		Price:         price,
		PriorClose:    prior,
		ChangePercent: change,
		Trend:         contracts.Trend(e.Trend),
		Valuation:     valuation,
		Fundamentals:  contracts.Fundamentals{EPS: eps, PERatio: valuation},
		Reasons:       e.Reasons,
		FetchedAt:     e.FetchedAt,
	}, nil
}

func nullToPtr(n decimal.NullDecimal) *string {
	if !n.Valid {
		return nil
	}
	s := n.Decimal.String()
	return &s
}

func ptrToNull(p *string) (decimal.NullDecimal, error) {
	if p == nil {
		return contracts.Unavailable, nil
	}
	d, err := decimal.NewFromString(*p)
	if err != nil {
		return contracts.Unavailable, err
	}
	return contracts.Available(d), nil
}
