package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/movers/internal/scheduler"
)

func TestPrintStats(t *testing.T) {
	last := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	resp := jobsResponse{
		State: "idle",
		Jobs: map[string]scheduler.JobStats{
			"screening_cycle": {
				Schedule:     "@every 3m0s",
				TotalRuns:    4,
				SuccessCount: 3,
				FailureCount: 1,
				SkippedCount: 2,
				SuccessRate:  0.75,
				LastRun:      &last,
				LastFailure:  &last,
				LastError:    "universe unavailable",
			},
			"cache_cleanup": {Schedule: "0 0 * * * *"},
		},
	}

	var buf bytes.Buffer
	printStats(&buf, resp)
	out := buf.String()

	assert.Contains(t, out, "Cycle state: idle")
	assert.Contains(t, out, "📊 screening_cycle")
	assert.Contains(t, out, "Success: 3 (75.0%)")
	assert.Contains(t, out, "Skipped: 2")
	assert.Contains(t, out, "Last Failure: 2026-03-04 09:30:00 (universe unavailable)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("cache_cleanup")), bytes.Index(buf.Bytes(), []byte("screening_cycle")),
		"jobs print in name order")
}

func TestRemoteURL(t *testing.T) {
	old := schedulerAddr
	defer func() { schedulerAddr = old }()

	schedulerAddr = "http://localhost:8089/"
	assert.Equal(t, "http://localhost:8089/api/jobs", remoteURL("/api/jobs"))
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "cycle", "board", "purge", "rule", "scheduler"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
