// Package screening runs one screening cycle: universe, snapshots, scoring,
// admission into the daily and weekly leaderboards, persistence and hand-off
// to presentation.
package screening

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/internal/selection"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
)

// ErrCycleRunning is returned when a cycle is requested while one is in flight
var ErrCycleRunning = errors.New("screening cycle already running")

// Options configures the cycle
type Options struct {
	Market           string
	UniverseSize     int
	Workers          int
	SymbolTimeout    time.Duration
	DailyAdmitLimit  int // 0 = unlimited
	WeeklyAdmitLimit int // 0 = unlimited
	RuleHash         string
}

// AdmitLimit returns the per-cycle cap for kind
func (o Options) AdmitLimit(kind contracts.Kind) int {
	if kind == contracts.Weekly {
		return o.WeeklyAdmitLimit
	}
	return o.DailyAdmitLimit
}

// Engine drives screening cycles, one at a time
// ⭐ SSOT: 스크리닝 사이클 오케스트레이션은 여기서만
type Engine struct {
	universe  contracts.UniverseProvider
	snapshots contracts.SnapshotProvider
	screener  *selection.Screener
	store     *leaderboard.Store
	presenter contracts.Presenter
	rankKey   selection.RankKey
	opts      Options
	metrics   *metrics.Metrics
	logger    *logger.Logger

	running sync.Mutex

	mu    sync.RWMutex
	state State
	last  *contracts.CycleResult
}

// NewEngine wires a cycle. presenter and m may be nil.
func NewEngine(
	universe contracts.UniverseProvider,
	snapshots contracts.SnapshotProvider,
	screener *selection.Screener,
	store *leaderboard.Store,
	rankKey selection.RankKey,
	presenter contracts.Presenter,
	opts Options,
	m *metrics.Metrics,
	log *logger.Logger,
) *Engine {
	return &Engine{
		universe:  universe,
		snapshots: snapshots,
		screener:  screener,
		store:     store,
		presenter: presenter,
		rankKey:   rankKey,
		opts:      opts,
		metrics:   m,
		logger:    log.WithComponent("screening"),
		state:     StateIdle,
	}
}

// State returns the current phase
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Last returns the most recent completed cycle, or nil
func (e *Engine) Last() *contracts.CycleResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run executes one cycle. Only a universe failure aborts it, and then no
// leaderboard is touched. Per-symbol and per-board failures are reported on
// the result.
func (e *Engine) Run(ctx context.Context) (*contracts.CycleResult, error) {
	if !e.running.TryLock() {
		return nil, ErrCycleRunning
	}
	defer e.running.Unlock()
	defer e.setState(StateIdle)

	result := &contracts.CycleResult{
		CycleID:   uuid.NewString(),
		StartedAt: e.store.Now(),
		RuleHash:  e.opts.RuleHash,
	}
	log := e.logger.WithField("cycle_id", result.CycleID)
	log.WithFields(map[string]interface{}{
		"market":        e.opts.Market,
		"universe_size": e.opts.UniverseSize,
	}).Info("Screening cycle started")

	// 1. Universe
	e.setState(StateFetchingUniverse)
	symbols, err := e.universe.ListInstruments(ctx, e.opts.Market, e.opts.UniverseSize)
	if err != nil {
		var perr *contracts.ProviderError
		if !errors.As(err, &perr) {
			err = &contracts.ProviderError{Stage: contracts.StageUniverse, Err: err}
		}
		e.metrics.ObserveCycle(ResultUniverseError, e.store.Now().Sub(result.StartedAt))
		log.WithError(err).Error("Universe fetch failed, cycle aborted")
		return nil, err
	}
	result.Universe = symbols

	// 2. Snapshots
	e.setState(StateFetchingSnapshots)
	snapshots, skipped := e.fetchAll(ctx, symbols)
	result.Skipped = skipped

	// 3. Scoring
	e.setState(StateScoring)
	result.Scored = e.screener.Screen(snapshots)

	// 4-5. Admitting, Persisting
	boards, persisted := e.admitAll(ctx, selection.Admitted(result.Scored))
	result.Boards = boards
	result.FinishedAt = e.store.Now()

	outcome := ResultOK
	if len(skipped) > 0 || !persisted {
		outcome = ResultPartial
	}
	e.metrics.ObserveCycle(outcome, result.FinishedAt.Sub(result.StartedAt))

	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"fetched":  len(snapshots),
		"skipped":  len(skipped),
		"admitted": result.AdmittedCount(),
		"outcome":  outcome,
		"duration": result.FinishedAt.Sub(result.StartedAt),
	}).Info("Screening cycle completed")

	if e.presenter != nil {
		if err := e.presenter.Present(ctx, result); err != nil {
			log.WithError(err).Warn("Presentation failed")
		}
	}
	return result, nil
}
