package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
)

// ScreeningJobName is the scheduler key for the screening cycle
const ScreeningJobName = "screening_cycle"

// CycleRunner runs one screening cycle
type CycleRunner interface {
	Run(ctx context.Context) (*contracts.CycleResult, error)
}

// ScreeningJob re-runs the screening cycle at a fixed interval
type ScreeningJob struct {
	runner   CycleRunner
	interval time.Duration
	logger   *logger.Logger
}

// NewScreeningJob creates a new screening job
func NewScreeningJob(runner CycleRunner, interval time.Duration, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		runner:   runner,
		interval: interval,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return ScreeningJobName
}

// Schedule fires every interval regardless of how long a cycle takes
func (j *ScreeningJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

// RunOnStart fires the first cycle without waiting an interval
func (j *ScreeningJob) RunOnStart() bool {
	return true
}

// Run executes one cycle
func (j *ScreeningJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"cycle_id": result.CycleID,
		"admitted": result.AdmittedCount(),
		"skipped":  len(result.Skipped),
	}).Debug("Screening job finished")
	return nil
}
