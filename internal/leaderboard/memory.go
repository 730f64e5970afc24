package leaderboard

import (
	"context"
	"sync"

	"github.com/wonny/movers/internal/contracts"
)

// MemoryBackend keeps records in process. State is lost on restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[contracts.Kind]Record
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[contracts.Kind]Record)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, kind contracts.Kind) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[kind]
	if !ok {
		return nil, nil
	}
	rec.Entries = cloneEntries(rec.Entries)
	return &rec, nil
}

func (m *MemoryBackend) Put(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *rec
	stored.Entries = cloneEntries(rec.Entries)
	m.records[rec.Kind] = stored
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, kind contracts.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, kind)
	return nil
}

func cloneEntries(in []contracts.Snapshot) []contracts.Snapshot {
	out := make([]contracts.Snapshot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
