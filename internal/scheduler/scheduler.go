package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
)

var (
	// ErrJobNotFound is returned for unknown job names
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned when a trigger arrives while the job is still running
	ErrJobRunning = errors.New("job already running")
)

// Triggers recorded on job results
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
)

type entry struct {
	job     Job
	id      cron.EntryID
	running atomic.Bool
}

// Scheduler manages scheduled jobs.
// A trigger that arrives while its job is still running is dropped and logged;
// the next tick runs normally.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	metrics *metrics.Metrics
	jobs    map[string]*entry
	history map[string]*JobHistory
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Retry configuration
	maxRetries int
	retryDelay time.Duration

	location *time.Location
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithMetrics records job runs
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithRetry retries failed runs; retries stay inside the overlap guard
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// WithLocation evaluates cron expressions in loc (default time.Local),
// so midnight jobs follow the leaderboard calendar
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// New creates a new scheduler
func New(log *logger.Logger, opts ...Option) *Scheduler {
	log = log.WithComponent("scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger:   log,
		jobs:     make(map[string]*entry),
		history:  make(map[string]*JobHistory),
		ctx:      ctx,
		cancel:   cancel,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(s.location),
		cron.WithLogger(cron.PrintfLogger(log)),
	)
	return s
}

// Location returns the zone cron expressions are evaluated in
func (s *Scheduler) Location() *time.Location {
	return s.cron.Location()
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()
	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	e := &entry{job: job}
	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.trigger(e, TriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}
	e.id = id

	s.jobs[jobName] = e
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%s: %w", jobName, ErrJobNotFound)
	}

	s.cron.Remove(e.id)
	delete(s.jobs, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler and fires startup jobs immediately
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")

	s.mu.RLock()
	var startup []*entry
	for _, e := range s.jobs {
		if sj, ok := e.job.(StartupJob); ok && sj.RunOnStart() {
			startup = append(startup, e)
		}
	}
	s.mu.RUnlock()

	for _, e := range startup {
		s.trigger(e, TriggerStartup)
	}

	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	cronCtx := s.cron.Stop()
	s.cancel()
	<-cronCtx.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a specific job immediately (outside of schedule).
// It returns ErrJobRunning when the job is busy.
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.RLock()
	e, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%s: %w", jobName, ErrJobNotFound)
	}
	if !s.trigger(e, TriggerManual) {
		return fmt.Errorf("%s: %w", jobName, ErrJobRunning)
	}
	return nil
}

// trigger starts the job in the background unless it is already running
func (s *Scheduler) trigger(e *entry, trigger string) bool {
	jobName := e.job.Name()
	if !e.running.CompareAndSwap(false, true) {
		s.mu.Lock()
		if h, ok := s.history[jobName]; ok {
			h.Skipped++
		}
		s.mu.Unlock()
		s.metrics.CountJobRun(jobName, "skipped")
		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"trigger": trigger,
		}).Warn("Job still running, trigger skipped")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer e.running.Store(false)
		s.runJob(e.job, trigger)
	}()
	return true
}

// runJob executes a job with retry logic
func (s *Scheduler) runJob(job Job, trigger string) {
	jobName := job.Name()
	startTime := time.Now()

	s.logger.WithFields(map[string]interface{}{
		"job":     jobName,
		"trigger": trigger,
	}).Info("Job started")

	var lastErr error
	var success bool

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := s.safeRun(job)
		if err == nil {
			success = true
			break
		}

		lastErr = err
		if attempt == s.maxRetries || s.ctx.Err() != nil {
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Job execution failed, retrying")

		select {
		case <-s.ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	result := JobResult{
		JobName:   jobName,
		Trigger:   trigger,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Success:   success,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if success {
		s.metrics.CountJobRun(jobName, "success")
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration,
		}).Info("Job completed successfully")
	} else {
		s.metrics.CountJobRun(jobName, "failure")
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration,
			"error":    result.Error,
		}).Error("Job failed")
	}
}

// safeRun turns a panic into an error so the next tick still fires
func (s *Scheduler) safeRun(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job.Run(s.ctx)
}

// GetJobHistory returns the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("%s: %w", jobName, ErrJobNotFound)
	}

	copied := &JobHistory{
		Results: append([]JobResult(nil), history.Results...),
		Skipped: history.Skipped,
	}
	return copied, nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// IsRunning reports whether jobName is executing right now
func (s *Scheduler) IsRunning(jobName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[jobName]
	return ok && e.running.Load()
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, e := range s.jobs {
		history := s.history[jobName]
		latestResults := history.GetLatestResults(1)
		failedResults := history.GetFailedResults()

		st := JobStats{
			JobName:      jobName,
			Schedule:     e.job.Schedule(),
			Running:      e.running.Load(),
			TotalRuns:    len(history.Results),
			SuccessCount: len(history.Results) - len(failedResults),
			FailureCount: len(failedResults),
			SkippedCount: history.Skipped,
			SuccessRate:  history.GetSuccessRate(),
		}

		if len(latestResults) > 0 {
			last := latestResults[0]
			st.LastRun = &last.StartTime
			if last.Success {
				st.LastSuccess = &last.StartTime
			} else {
				st.LastFailure = &last.StartTime
				st.LastError = last.Error
			}
		}
		// LastSuccess/LastFailure look further back than the latest run
		for i := len(history.Results) - 1; i >= 0; i-- {
			r := history.Results[i]
			if r.Success && st.LastSuccess == nil {
				t := r.StartTime
				st.LastSuccess = &t
			}
			if !r.Success && st.LastFailure == nil {
				t := r.StartTime
				st.LastFailure = &t
				st.LastError = r.Error
			}
		}

		stats[jobName] = st
	}

	return stats
}
