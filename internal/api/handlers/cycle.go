package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/scheduler"
	"github.com/wonny/movers/internal/scheduler/jobs"
	"github.com/wonny/movers/internal/screening"
	"github.com/wonny/movers/pkg/logger"
)

// CycleSource exposes the latest screening cycle
type CycleSource interface {
	Last() *contracts.CycleResult
	State() screening.State
}

// JobRunner triggers and reports scheduled jobs
type JobRunner interface {
	RunJob(jobName string) error
	GetJobStats() map[string]scheduler.JobStats
}

// CycleHandler serves cycle results and triggers
type CycleHandler struct {
	cycles CycleSource
	jobs   JobRunner
	logger *logger.Logger
}

// NewCycleHandler creates a new cycle handler
func NewCycleHandler(cycles CycleSource, jobRunner JobRunner, log *logger.Logger) *CycleHandler {
	return &CycleHandler{
		cycles: cycles,
		jobs:   jobRunner,
		logger: log,
	}
}

// GetSnapshots returns the last cycle's full fetched table
// GET /api/snapshots
func (h *CycleHandler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	last := h.cycles.Last()
	if last == nil {
		respondError(w, http.StatusNotFound, "No screening cycle has completed yet")
		return
	}

	respondJSON(w, http.StatusOK, last)
}

// Trigger starts a cycle now unless one is already running
// POST /api/cycle
func (h *CycleHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	err := h.jobs.RunJob(jobs.ScreeningJobName)
	switch {
	case err == nil:
		respondJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"job":    jobs.ScreeningJobName,
		})
	case errors.Is(err, scheduler.ErrJobRunning):
		respondError(w, http.StatusConflict, "Screening cycle already running")
	case errors.Is(err, scheduler.ErrJobNotFound):
		respondError(w, http.StatusServiceUnavailable, "Screening job not scheduled")
	default:
		h.logger.WithError(err).Error("Failed to trigger screening cycle")
		respondError(w, http.StatusInternalServerError, "Failed to trigger screening cycle")
	}
}

// GetJobs returns scheduler statistics
// GET /api/jobs
func (h *CycleHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state": h.cycles.State(),
		"jobs":  h.jobs.GetJobStats(),
	})
}
