package selection

import (
	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
)

// Screener applies the rule to a cycle's snapshots
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	rule   *Rule
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(rule *Rule, log *logger.Logger) *Screener {
	return &Screener{
		rule:   rule,
		logger: log.WithComponent("screener"),
	}
}

// Rule returns the rule this screener applies
func (s *Screener) Rule() *Rule {
	return s.rule
}

// Screen scores every snapshot. The output keeps input order and includes
// rejected snapshots so the presentation can show the full table.
func (s *Screener) Screen(snapshots []contracts.Snapshot) []contracts.ScoredSnapshot {
	scored := make([]contracts.ScoredSnapshot, 0, len(snapshots))
	tags := make(map[string]int) // reason -> count

	passed := 0
	for _, snap := range snapshots {
		decision := s.rule.Evaluate(snap)
		scored = append(scored, contracts.ScoredSnapshot{
			Snapshot: snap.WithReasons(decision.Reasons),
			Admitted: decision.Admit,
		})
		if decision.Admit {
			passed++
		}
		for _, r := range decision.Reasons {
			tags[r]++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(snapshots),
		"passed":       passed,
		"filtered_out": len(snapshots) - passed,
		"reasons":      tags,
	}).Info("Screening completed")

	return scored
}

// Admitted returns only the snapshots that passed, in input order
func Admitted(scored []contracts.ScoredSnapshot) []contracts.Snapshot {
	out := make([]contracts.Snapshot, 0, len(scored))
	for _, s := range scored {
		if s.Admitted {
			out = append(out, s.Snapshot)
		}
	}
	return out
}
