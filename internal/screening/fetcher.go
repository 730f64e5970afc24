package screening

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/movers/internal/contracts"
)

// fetchResult is one symbol's fetch outcome
type fetchResult struct {
	index    int
	symbol   string
	snapshot contracts.Snapshot
	err      error
}

type fetchTask struct {
	index  int
	symbol string
}

// fetchAll fetches every symbol on a bounded worker pool. Results come back in
// universe order; failures are returned as skips and never abort the batch.
func (e *Engine) fetchAll(ctx context.Context, symbols []string) ([]contracts.Snapshot, []contracts.SymbolFailure) {
	workers := e.opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	taskCh := make(chan fetchTask, len(symbols))
	resultCh := make(chan fetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.fetchWorker(ctx, workerID, taskCh, resultCh)
		}(i)
	}

	for i, symbol := range symbols {
		taskCh <- fetchTask{index: i, symbol: symbol}
	}
	close(taskCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	ordered := make([]*fetchResult, len(symbols))
	for r := range resultCh {
		r := r
		ordered[r.index] = &r
	}

	snapshots := make([]contracts.Snapshot, 0, len(symbols))
	var skipped []contracts.SymbolFailure
	for _, r := range ordered {
		if r == nil {
			continue
		}
		if r.err != nil {
			skipped = append(skipped, contracts.SymbolFailure{Symbol: r.symbol, Reason: r.err.Error()})
			continue
		}
		snapshots = append(snapshots, r.snapshot)
	}
	return snapshots, skipped
}

// fetchWorker processes fetch tasks until the channel closes
func (e *Engine) fetchWorker(ctx context.Context, workerID int, taskCh <-chan fetchTask, resultCh chan<- fetchResult) {
	for task := range taskCh {
		if err := ctx.Err(); err != nil {
			resultCh <- fetchResult{index: task.index, symbol: task.symbol, err: err}
			continue
		}

		snap, err := e.fetchOne(ctx, task.symbol)
		outcome := classify(err)
		e.metrics.CountSnapshot(outcome)

		if err != nil {
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"worker":  workerID,
				"symbol":  task.symbol,
				"outcome": outcome,
			}).Warn("Symbol skipped")
		}
		resultCh <- fetchResult{index: task.index, symbol: task.symbol, snapshot: snap, err: err}
	}
}

// fetchOne bounds a single provider call by the per-symbol timeout
func (e *Engine) fetchOne(ctx context.Context, symbol string) (contracts.Snapshot, error) {
	if e.opts.SymbolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.SymbolTimeout)
		defer cancel()
	}
	return e.snapshots.GetSnapshot(ctx, symbol)
}

func classify(err error) string {
	var verr *contracts.ValidationError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &verr):
		return OutcomeInvalid
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeProvider
	}
}
