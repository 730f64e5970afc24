package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/movers/internal/contracts"
)

// RankKey orders snapshots within a leaderboard
type RankKey string

const (
	RankByChangePercent RankKey = "change_percent"
	RankByPrice         RankKey = "price"
)

// ParseRankKey accepts the configured rank key name
func ParseRankKey(s string) (RankKey, error) {
	switch k := RankKey(strings.ToLower(strings.TrimSpace(s))); k {
	case RankByChangePercent, RankByPrice:
		return k, nil
	case "":
		return RankByChangePercent, nil
	}
	return "", fmt.Errorf("unknown rank key %q (want change_percent or price)", s)
}

// Less reports whether a ranks ahead of b.
// Primary key descending, ties broken by symbol ascending, so the order is total.
func (k RankKey) Less(a, b contracts.Snapshot) bool {
	var cmp int
	switch k {
	case RankByPrice:
		cmp = a.Price.Cmp(b.Price)
	default:
		cmp = a.ChangePercent.Cmp(b.ChangePercent)
	}
	if cmp != 0 {
		return cmp > 0
	}
	return a.Symbol < b.Symbol
}

// Sort orders snapshots in place by rank
func (k RankKey) Sort(snapshots []contracts.Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return k.Less(snapshots[i], snapshots[j])
	})
}

// Top returns the best n snapshots by rank (all of them when n <= 0) without touching the input
func (k RankKey) Top(snapshots []contracts.Snapshot, n int) []contracts.Snapshot {
	out := append([]contracts.Snapshot(nil), snapshots...)
	k.Sort(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
