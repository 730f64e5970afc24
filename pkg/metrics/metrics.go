package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry for the screening engine.
// All methods are safe on a nil receiver so callers can run with metrics disabled.
// ⭐ SSOT: 모든 메트릭은 여기서만 정의
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal     *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	snapshotsTotal  *prometheus.CounterVec
	admissionsTotal *prometheus.CounterVec
	leaderboardSize *prometheus.GaugeVec
	storeErrors     *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
}

// New builds a registry with process/go collectors plus the engine metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movers",
			Name:      "cycles_total",
			Help:      "Screening cycles by result (completed, aborted).",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "movers",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a screening cycle.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		snapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movers",
			Name:      "snapshots_total",
			Help:      "Per-symbol fetch outcomes (scored, failed, invalid).",
		}, []string{"outcome"}),
		admissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movers",
			Name:      "admissions_total",
			Help:      "Snapshots newly admitted to a leaderboard.",
		}, []string{"kind"}),
		leaderboardSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "movers",
			Name:      "leaderboard_entries",
			Help:      "Entries currently held by each leaderboard.",
		}, []string{"kind"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movers",
			Name:      "store_errors_total",
			Help:      "Leaderboard store failures by operation and kind.",
		}, []string{"op", "kind"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "movers",
			Name:      "job_runs_total",
			Help:      "Scheduler job executions by status (success, failed, skipped).",
		}, []string{"job", "status"}),
	}

	reg.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.snapshotsTotal,
		m.admissionsTotal,
		m.leaderboardSize,
		m.storeErrors,
		m.jobRuns,
	)
	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) CountSnapshot(outcome string) {
	if m == nil {
		return
	}
	m.snapshotsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountAdmissions(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.admissionsTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) SetLeaderboardSize(kind string, n int) {
	if m == nil {
		return
	}
	m.leaderboardSize.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) CountStoreError(op, kind string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op, kind).Inc()
}

func (m *Metrics) CountJobRun(job, status string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
}
