package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/pkg/logger"
)

// RolloverJob purges expired leaderboards right after local midnight.
// Reads already treat expired boards as empty; this keeps backends tidy.
type RolloverJob struct {
	store  *leaderboard.Store
	logger *logger.Logger
}

// NewRolloverJob creates a new rollover job
func NewRolloverJob(store *leaderboard.Store, log *logger.Logger) *RolloverJob {
	return &RolloverJob{
		store:  store,
		logger: log,
	}
}

// Name returns the job name
func (j *RolloverJob) Name() string {
	return "leaderboard_rollover"
}

// Schedule returns the cron schedule (every midnight)
func (j *RolloverJob) Schedule() string {
	return "0 0 0 * * *"
}

// Run purges every expired board
func (j *RolloverJob) Run(ctx context.Context) error {
	purged, err := j.store.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge leaderboards: %w", err)
	}

	j.logger.WithField("purged", purged).Info("Leaderboard rollover completed")
	return nil
}
