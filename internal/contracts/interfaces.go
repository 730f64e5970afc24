package contracts

import "context"

// UniverseProvider lists the symbols screened each cycle
// ⭐ SSOT: 유니버스 조회 인터페이스
type UniverseProvider interface {
	ListInstruments(ctx context.Context, market string, limit int) ([]string, error)
}

// SnapshotProvider fetches one symbol's snapshot.
// Missing fundamentals resolve to Unavailable rather than an error.
// ⭐ SSOT: 스냅샷 조회 인터페이스
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, symbol string) (Snapshot, error)
}

// Presenter receives each completed cycle's tables. It never mutates engine state.
type Presenter interface {
	Present(ctx context.Context, result *CycleResult) error
}
