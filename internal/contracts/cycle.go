package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a leaderboard
type Kind string

const (
	Daily  Kind = "daily"
	Weekly Kind = "weekly"
)

// Kinds lists every leaderboard in admission order
func Kinds() []Kind {
	return []Kind{Daily, Weekly}
}

// ParseKind accepts "daily" or "weekly" in any case
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	}
	return "", fmt.Errorf("unknown leaderboard kind %q (want daily or weekly)", s)
}

// EmptyLabel is shown when a leaderboard has no entries
func (k Kind) EmptyLabel() string {
	if k == Weekly {
		return "No top stocks this week"
	}
	return "No top stock today"
}

// ScoredSnapshot is a fetched snapshot plus the scoring verdict
type ScoredSnapshot struct {
	Snapshot
	Admitted bool `json:"admitted"`
}

// SymbolFailure records why one symbol produced no snapshot
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// BoardView is a leaderboard as presented after a cycle
type BoardView struct {
	Kind       Kind       `json:"kind"`
	Entries    []Snapshot `json:"entries"`
	ValidUntil time.Time  `json:"valid_until"`
	Admitted   []string   `json:"admitted"` // symbols newly admitted this cycle
	Error      string     `json:"error,omitempty"`
}

// CycleResult is everything one screening cycle produced
// ⭐ SSOT: 사이클 결과 → 프레젠테이션 전달
type CycleResult struct {
	CycleID    string           `json:"cycle_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	RuleHash   string           `json:"rule_hash,omitempty"`
	Universe   []string         `json:"universe"`
	Scored     []ScoredSnapshot `json:"scored"`
	Skipped    []SymbolFailure  `json:"skipped"`
	Boards     []BoardView      `json:"boards"`
}

// Board returns the view for kind, if present
func (r *CycleResult) Board(kind Kind) (BoardView, bool) {
	for _, b := range r.Boards {
		if b.Kind == kind {
			return b, true
		}
	}
	return BoardView{}, false
}

// AdmittedCount is the number of snapshots that passed the rule
func (r *CycleResult) AdmittedCount() int {
	n := 0
	for _, s := range r.Scored {
		if s.Admitted {
			n++
		}
	}
	return n
}
