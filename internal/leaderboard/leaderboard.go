package leaderboard

import (
	"sort"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/selection"
)

// Leaderboard is a ranked, deduplicated set of snapshots bound to a validity window.
// Not safe for concurrent use; Store serializes load-modify-save per kind.
// ⭐ SSOT: 리더보드 상태는 여기서만 변경
type Leaderboard struct {
	kind       contracts.Kind
	rankKey    selection.RankKey
	validUntil time.Time
	entries    []contracts.Snapshot
	symbols    map[string]struct{}
}

// New creates an empty leaderboard valid through validUntil
func New(kind contracts.Kind, validUntil time.Time, rankKey selection.RankKey) *Leaderboard {
	return &Leaderboard{
		kind:       kind,
		rankKey:    rankKey,
		validUntil: validUntil,
		symbols:    make(map[string]struct{}),
	}
}

func (lb *Leaderboard) Kind() contracts.Kind { return lb.kind }

func (lb *Leaderboard) ValidUntil() time.Time { return lb.validUntil }

func (lb *Leaderboard) Len() int { return len(lb.entries) }

// Contains reports whether symbol is already on the board
func (lb *Leaderboard) Contains(symbol string) bool {
	_, ok := lb.symbols[symbol]
	return ok
}

// Admit inserts s at its rank position.
// First writer wins: a symbol already present keeps its original snapshot and Admit returns false.
func (lb *Leaderboard) Admit(s contracts.Snapshot) bool {
	if lb.Contains(s.Symbol) {
		return false
	}

	i := sort.Search(len(lb.entries), func(i int) bool {
		return lb.rankKey.Less(s, lb.entries[i])
	})
	lb.entries = append(lb.entries, contracts.Snapshot{})
	copy(lb.entries[i+1:], lb.entries[i:])
	lb.entries[i] = s.Clone()
	lb.symbols[s.Symbol] = struct{}{}
	return true
}

// Rank returns the entries in rank order. The caller owns the returned slice.
func (lb *Leaderboard) Rank() []contracts.Snapshot {
	out := make([]contracts.Snapshot, len(lb.entries))
	for i, e := range lb.entries {
		out[i] = e.Clone()
	}
	return out
}

// IsExpired reports now > validUntil
func (lb *Leaderboard) IsExpired(now time.Time) bool {
	return now.After(lb.validUntil)
}

// Reset clears the board and moves its boundary
func (lb *Leaderboard) Reset(newValidUntil time.Time) {
	lb.entries = nil
	lb.symbols = make(map[string]struct{})
	lb.validUntil = newValidUntil
}

// View renders the board for presentation
func (lb *Leaderboard) View(admitted []string) contracts.BoardView {
	return contracts.BoardView{
		Kind:       lb.kind,
		Entries:    lb.Rank(),
		ValidUntil: lb.validUntil,
		Admitted:   admitted,
	}
}
