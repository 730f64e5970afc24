package presentation

import (
	"context"
	"errors"

	"github.com/wonny/movers/internal/contracts"
)

// Multi fans a result out to several presenters. Every presenter runs even
// when an earlier one fails.
type Multi []contracts.Presenter

// Present calls each presenter in order
func (m Multi) Present(ctx context.Context, result *contracts.CycleResult) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Present(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
