package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/selection"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
)

// Record is the persisted form of one leaderboard
type Record struct {
	Kind       contracts.Kind
	Entries    []contracts.Snapshot
	ValidUntil time.Time
}

// Backend is a durable key-value home for records, keyed by kind.
// Put must replace a kind's record atomically.
type Backend interface {
	Name() string
	// Get returns (nil, nil) when no record exists
	Get(ctx context.Context, kind contracts.Kind) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, kind contracts.Kind) error
}

// Store applies expiry and per-kind serialization on top of a Backend
// ⭐ SSOT: 리더보드 영속화는 이 Store를 통해서만
type Store struct {
	backend  Backend
	calendar Calendar
	rankKey  selection.RankKey
	clock    func() time.Time
	logger   *logger.Logger
	metrics  *metrics.Metrics

	locks map[contracts.Kind]*sync.Mutex
}

// Option customizes a Store
type Option func(*Store)

// WithClock overrides time.Now (tests)
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithMetrics records store errors and board sizes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore wraps a backend
func NewStore(backend Backend, calendar Calendar, rankKey selection.RankKey, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		calendar: calendar,
		rankKey:  rankKey,
		clock:    time.Now,
		logger:   log.WithComponent("leaderboard_store").WithField("backend", backend.Name()),
		locks:    make(map[contracts.Kind]*sync.Mutex),
	}
	for _, k := range contracts.Kinds() {
		s.locks[k] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar returns the rollover calendar
func (s *Store) Calendar() Calendar {
	return s.calendar
}

// Now returns the store's clock reading
func (s *Store) Now() time.Time {
	return s.clock()
}

// Load returns the live leaderboard for kind.
// Absent or expired state reads as (nil, false, nil).
func (s *Store) Load(ctx context.Context, kind contracts.Kind) (*Leaderboard, bool, error) {
	rec, err := s.backend.Get(ctx, kind)
	if err != nil {
		return nil, false, s.fail("load", kind, err)
	}
	if rec == nil {
		return nil, false, nil
	}

	lb := s.fromRecord(kind, rec)
	if lb.IsExpired(s.clock()) {
		return nil, false, nil
	}
	return lb, true, nil
}

// Save persists lb, replacing the kind's previous state
func (s *Store) Save(ctx context.Context, lb *Leaderboard) error {
	rec := &Record{
		Kind:       lb.Kind(),
		Entries:    lb.Rank(),
		ValidUntil: lb.ValidUntil(),
	}
	if err := s.backend.Put(ctx, rec); err != nil {
		return s.fail("save", lb.Kind(), err)
	}
	s.metrics.SetLeaderboardSize(string(lb.Kind()), lb.Len())
	return nil
}

// Current loads kind or starts an empty board for the current period
func (s *Store) Current(ctx context.Context, kind contracts.Kind) (*Leaderboard, error) {
	lb, ok, err := s.Load(ctx, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		lb = New(kind, s.calendar.ValidUntil(kind, s.clock()), s.rankKey)
	}
	return lb, nil
}

// Update runs load-modify-save for kind under the kind's lock.
// fn sees a board already rolled to the current period. When fn returns an
// error nothing is saved.
func (s *Store) Update(ctx context.Context, kind contracts.Kind, fn func(lb *Leaderboard) error) (*Leaderboard, error) {
	mu, ok := s.locks[kind]
	if !ok {
		return nil, s.fail("update", kind, errors.New("unknown leaderboard kind"))
	}
	mu.Lock()
	defer mu.Unlock()

	lb, err := s.Current(ctx, kind)
	if err != nil {
		return nil, err
	}
	s.calendar.Roll(lb, s.clock())

	if err := fn(lb); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, lb); err != nil {
		return nil, err
	}
	return lb, nil
}

// Purge deletes every expired record and returns how many were removed
func (s *Store) Purge(ctx context.Context) (int, error) {
	purged := 0
	var errs []error

	for _, kind := range contracts.Kinds() {
		mu := s.locks[kind]
		mu.Lock()
		rec, err := s.backend.Get(ctx, kind)
		if err == nil && rec != nil && s.clock().After(rec.ValidUntil) {
			err = s.backend.Delete(ctx, kind)
			if err == nil {
				purged++
				s.metrics.SetLeaderboardSize(string(kind), 0)
				s.logger.WithField("kind", kind).Info("Expired leaderboard purged")
			}
		}
		mu.Unlock()

		if err != nil {
			errs = append(errs, s.fail("purge", kind, err))
		}
	}
	return purged, errors.Join(errs...)
}

// fromRecord rebuilds a board by re-admitting entries, which restores rank
// order and drops duplicate symbols even if the backend held them
func (s *Store) fromRecord(kind contracts.Kind, rec *Record) *Leaderboard {
	lb := New(kind, rec.ValidUntil, s.rankKey)
	for _, e := range rec.Entries {
		lb.Admit(e)
	}
	return lb
}

func (s *Store) fail(op string, kind contracts.Kind, err error) error {
	s.metrics.CountStoreError(op, string(kind))
	storeErr := &contracts.StoreError{Op: op, Kind: string(kind), Err: err}
	s.logger.WithError(err).WithFields(map[string]interface{}{
		"op":   op,
		"kind": kind,
	}).Error("Leaderboard store operation failed")
	return storeErr
}
