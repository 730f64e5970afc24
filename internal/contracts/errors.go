package contracts

import "fmt"

// Provider stages
const (
	StageUniverse = "universe"
	StageSnapshot = "snapshot"
)

// ProviderError is a market-data provider failure.
// Fatal to the cycle at StageUniverse, a per-symbol skip at StageSnapshot.
type ProviderError struct {
	Stage  string
	Symbol string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("provider %s %s: %v", e.Stage, e.Symbol, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError marks a snapshot that cannot be scored
type ValidationError struct {
	Symbol  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("invalid snapshot %s: %s: %s", e.Symbol, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid snapshot: %s: %s", e.Field, e.Message)
}

// StoreError is a leaderboard persistence failure.
// State may be stale afterwards but is never half-written.
type StoreError struct {
	Op   string // load, save, purge
	Kind string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("leaderboard store %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
