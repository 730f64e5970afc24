package selection

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/movers/internal/contracts"
)

// Predicate names, also the order predicates are evaluated and reasons listed
const (
	PredicateMomentum  = "momentum"
	PredicateMagnitude = "magnitude"
	PredicateValuation = "valuation"
)

// Reason tags attached to passing snapshots
const (
	ReasonMomentum  = "Positive price momentum"
	ReasonMagnitude = "Strong recent gains"
	ReasonValuation = "Attractive valuation"
	ReasonNone      = "No specific reason identified"
)

var predicateOrder = []string{PredicateMomentum, PredicateMagnitude, PredicateValuation}

// KnownPredicate reports whether name is a predicate the rule understands
func KnownPredicate(name string) bool {
	for _, p := range predicateOrder {
		if p == name {
			return true
		}
	}
	return false
}

// RuleConfig holds the tunable thresholds of the scoring rule
type RuleConfig struct {
	ThresholdChangePercent decimal.Decimal
	ValuationRatioCeiling  decimal.Decimal
	EnabledPredicates      []string
}

// DefaultRuleConfig uses the most permissive observed values
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		ThresholdChangePercent: decimal.NewFromInt(5),
		ValuationRatioCeiling:  decimal.NewFromInt(25),
		EnabledPredicates:      []string{PredicateMomentum, PredicateMagnitude},
	}
}

// Decision is the scoring verdict for one snapshot
type Decision struct {
	Admit   bool
	Reasons []string
}

// Rule scores snapshots. It is pure: no I/O and no hidden state.
// ⭐ SSOT: 스코어링 규칙은 여기서만
type Rule struct {
	cfg     RuleConfig
	enabled map[string]bool
}

// NewRule validates predicate names and builds a rule
func NewRule(cfg RuleConfig) (*Rule, error) {
	if !cfg.ValuationRatioCeiling.IsPositive() {
		return nil, fmt.Errorf("valuation ratio ceiling must be positive, got %s", cfg.ValuationRatioCeiling)
	}

	enabled := make(map[string]bool, len(cfg.EnabledPredicates))
	for _, name := range cfg.EnabledPredicates {
		name = strings.ToLower(strings.TrimSpace(name))
		if !KnownPredicate(name) {
			return nil, fmt.Errorf("unknown predicate %q (want one of %s)", name, strings.Join(predicateOrder, ", "))
		}
		enabled[name] = true
	}

	return &Rule{cfg: cfg, enabled: enabled}, nil
}

// Config returns the rule's configuration
func (r *Rule) Config() RuleConfig {
	return r.cfg
}

// Evaluate scores one snapshot.
// Admit is the AND of enabled predicates (vacuously true when none are enabled).
// Reasons list the passing predicates in fixed order, or the single ReasonNone.
func (r *Rule) Evaluate(s contracts.Snapshot) Decision {
	admit := true
	var reasons []string

	for _, name := range predicateOrder {
		passed, reason := r.check(name, s)
		if passed {
			reasons = append(reasons, reason)
		} else if r.enabled[name] {
			admit = false
		}
	}

	if len(reasons) == 0 {
		reasons = []string{ReasonNone}
	}
	return Decision{Admit: admit, Reasons: reasons}
}

// check evaluates one predicate; disabled predicates never contribute reasons
func (r *Rule) check(name string, s contracts.Snapshot) (bool, string) {
	if !r.enabled[name] {
		return false, ""
	}

	switch name {
	case PredicateMomentum:
		return s.IsUpward(), ReasonMomentum
	case PredicateMagnitude:
		return s.ChangePercent.GreaterThan(r.cfg.ThresholdChangePercent), ReasonMagnitude
	case PredicateValuation:
		// a non-positive ratio means negative earnings, never attractive
		v := s.Valuation
		return v.Valid && v.Decimal.IsPositive() && v.Decimal.LessThan(r.cfg.ValuationRatioCeiling), ReasonValuation
	}
	return false, ""
}
