package screening

import (
	"context"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
)

// admitAll runs load, roll, admit and save for every kind. A failure on one
// kind is reported on its view and never touches the other.
func (e *Engine) admitAll(ctx context.Context, admitted []contracts.Snapshot) ([]contracts.BoardView, bool) {
	views := make([]contracts.BoardView, 0, len(contracts.Kinds()))
	ok := true

	for _, kind := range contracts.Kinds() {
		view, err := e.admitKind(ctx, kind, admitted)
		if err != nil {
			ok = false
			view.Error = err.Error()
		}
		views = append(views, view)
	}
	return views, ok
}

func (e *Engine) admitKind(ctx context.Context, kind contracts.Kind, admitted []contracts.Snapshot) (contracts.BoardView, error) {
	candidates := e.rankKey.Top(admitted, e.opts.AdmitLimit(kind))
	calendar := e.store.Calendar()

	var (
		working *leaderboard.Leaderboard
		added   []string
	)
	e.setState(StateAdmitting)
	lb, err := e.store.Update(ctx, kind, func(lb *leaderboard.Leaderboard) error {
		working = lb
		for _, snap := range candidates {
			// a long cycle may straddle midnight
			calendar.Roll(lb, e.store.Now())
			if lb.Admit(snap) {
				added = append(added, snap.Symbol)
			}
		}
		e.setState(StatePersisting)
		return nil
	})

	if err != nil {
		// load failures leave working nil; save failures keep the unsaved board visible
		view := contracts.BoardView{Kind: kind, Admitted: []string{}}
		if working != nil {
			view = working.View(nonNil(added))
		}
		return view, err
	}

	e.metrics.CountAdmissions(string(kind), len(added))
	e.logger.WithFields(map[string]interface{}{
		"kind":       kind,
		"candidates": len(candidates),
		"admitted":   len(added),
		"size":       lb.Len(),
	}).Info("Leaderboard updated")

	return lb.View(nonNil(added)), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
