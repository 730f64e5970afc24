package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
)

type testJob struct {
	name     string
	schedule string
	startup  bool
	runs     atomic.Int32
	release  chan struct{}
	err      error
	panicMsg string
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }
func (j *testJob) RunOnStart() bool { return j.startup }

func (j *testJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.release != nil {
		select {
		case <-j.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if j.panicMsg != "" {
		panic(j.panicMsg)
	}
	return j.err
}

func waitForRuns(t *testing.T, s *Scheduler, name string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		h, err := s.GetJobHistory(name)
		return err == nil && len(h.Results) >= n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "@every 1h"}))
	assert.Error(t, s.AddJob(&testJob{name: "a", schedule: "@every 1h"}), "duplicate name")
	assert.Error(t, s.AddJob(&testJob{name: "b", schedule: "not a schedule"}))
	require.NoError(t, s.AddJob(&testJob{name: "c", schedule: "0 0 0 * * *"}))

	assert.Equal(t, []string{"a", "c"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.ErrorIs(t, s.RemoveJob("a"), ErrJobNotFound)
}

func TestScheduler_MidnightFollowsLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)

	tests := []struct {
		name string
		opts []Option
		loc  *time.Location
	}{
		{"default local", nil, time.Local},
		{"calendar zone", []Option{WithLocation(seoul)}, seoul},
		{"nil keeps local", []Option{WithLocation(nil)}, time.Local},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logger.Nop(), tt.opts...)
			assert.Equal(t, tt.loc, s.Location())
		})
	}

	s := New(logger.Nop(), WithLocation(seoul))
	require.NoError(t, s.AddJob(&testJob{name: "rollover", schedule: "0 0 0 * * *"}))

	// 16:00 UTC is 01:00 KST, so the next KST midnight is 15:00 UTC the same day
	now := time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC)
	next := s.cron.Entry(s.jobs["rollover"].id).Schedule.Next(now.In(s.Location()))
	assert.True(t, next.Equal(time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)), "got %s", next.UTC())
}

func TestScheduler_StartRunsStartupJobs(t *testing.T) {
	s := New(logger.Nop())
	startup := &testJob{name: "startup", schedule: "@every 1h", startup: true}
	lazy := &testJob{name: "lazy", schedule: "@every 1h"}
	require.NoError(t, s.AddJob(startup))
	require.NoError(t, s.AddJob(lazy))

	s.Start()
	waitForRuns(t, s, "startup", 1)
	s.Stop()

	assert.Equal(t, int32(1), startup.runs.Load())
	assert.Equal(t, int32(0), lazy.runs.Load())

	h, _ := s.GetJobHistory("startup")
	assert.Equal(t, TriggerStartup, h.Results[0].Trigger)
}

func TestScheduler_OverlappingTriggerIsSkipped(t *testing.T) {
	m := metrics.New()
	s := New(logger.Nop(), WithMetrics(m))
	job := &testJob{name: "slow", schedule: "@every 1h", release: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("slow"))
	require.Eventually(t, func() bool { return s.IsRunning("slow") }, time.Second, time.Millisecond)

	err := s.RunJob("slow")
	assert.ErrorIs(t, err, ErrJobRunning)

	close(job.release)
	waitForRuns(t, s, "slow", 1)
	require.Eventually(t, func() bool { return !s.IsRunning("slow") }, time.Second, time.Millisecond)

	stats := s.GetJobStats()["slow"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SkippedCount)
	assert.Equal(t, int32(1), job.runs.Load())

	// the next trigger runs normally
	require.NoError(t, s.RunJob("slow"))
	waitForRuns(t, s, "slow", 2)

	assert.ErrorIs(t, s.RunJob("missing"), ErrJobNotFound)
}

func TestScheduler_PanicAndFailureAreRecorded(t *testing.T) {
	s := New(logger.Nop())
	panicky := &testJob{name: "panicky", schedule: "@every 1h", panicMsg: "nil map"}
	failing := &testJob{name: "failing", schedule: "@every 1h", err: errors.New("upstream down")}
	require.NoError(t, s.AddJob(panicky))
	require.NoError(t, s.AddJob(failing))

	require.NoError(t, s.RunJob("panicky"))
	require.NoError(t, s.RunJob("failing"))
	waitForRuns(t, s, "panicky", 1)
	waitForRuns(t, s, "failing", 1)

	stats := s.GetJobStats()
	assert.Equal(t, 1, stats["panicky"].FailureCount)
	assert.Contains(t, stats["panicky"].LastError, "panic: nil map")
	assert.Equal(t, "upstream down", stats["failing"].LastError)
	assert.NotNil(t, stats["failing"].LastFailure)
	assert.Nil(t, stats["failing"].LastSuccess)

	// still schedulable after a panic
	require.NoError(t, s.RunJob("panicky"))
	waitForRuns(t, s, "panicky", 2)
}

func TestScheduler_RetryThenSucceed(t *testing.T) {
	s := New(logger.Nop(), WithRetry(2, time.Millisecond))
	job := &flakyJob{failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	waitForRuns(t, s, "flaky", 1)

	h, _ := s.GetJobHistory("flaky")
	assert.True(t, h.Results[0].Success)
	assert.Equal(t, int32(3), job.calls.Load())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(logger.Nop())
	job := &testJob{name: "blocked", schedule: "@every 1h", release: make(chan struct{})}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("blocked"))
	require.Eventually(t, func() bool { return s.IsRunning("blocked") }, time.Second, time.Millisecond)

	s.Stop()
	h, _ := s.GetJobHistory("blocked")
	require.Len(t, h.Results, 1)
	assert.False(t, h.Results[0].Success)
	assert.Equal(t, context.Canceled.Error(), h.Results[0].Error)
}

type flakyJob struct {
	failures int32
	calls    atomic.Int32
}

func (j *flakyJob) Name() string     { return "flaky" }
func (j *flakyJob) Schedule() string { return "@every 1h" }

func (j *flakyJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%4 != 0})
	}
	assert.Len(t, h.Results, 100, "history is capped")
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), 25)
	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)
}
