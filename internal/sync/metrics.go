package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks sync and roll-up activity, exposed on the metrics port.
type Metrics struct {
	responsesScored    *prometheus.CounterVec
	responsesSkipped   *prometheus.CounterVec
	syncFailures       *prometheus.CounterVec
	rollupRuns         *prometheus.CounterVec
	benchmarksUpdated  *prometheus.CounterVec
	syncDuration       *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		responsesScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchmark_responses_scored_total",
				Help: "Survey responses scored and persisted.",
			},
			[]string{"tenant"},
		),
		responsesSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchmark_responses_skipped_total",
				Help: "Survey responses skipped during sync.",
			},
			[]string{"tenant", "reason"},
		),
		syncFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchmark_sync_failures_total",
				Help: "Sync cycles aborted by an upstream fetch failure.",
			},
			[]string{"tenant"},
		),
		rollupRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchmark_rollup_runs_total",
				Help: "Industry roll-up runs completed.",
			},
			[]string{"tenant"},
		),
		benchmarksUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchmark_industries_updated_total",
				Help: "Industry benchmark rows written by roll-up runs.",
			},
			[]string{"tenant"},
		),
		syncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchmark_sync_duration_seconds",
				Help:    "Duration of a full tenant sync cycle.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tenant"},
		),
	}
}

func (m *Metrics) ResponseScored(tenant string) {
	if m != nil {
		m.responsesScored.WithLabelValues(tenant).Inc()
	}
}

func (m *Metrics) ResponseSkipped(tenant, reason string) {
	if m != nil {
		m.responsesSkipped.WithLabelValues(tenant, reason).Inc()
	}
}

func (m *Metrics) SyncFailed(tenant string) {
	if m != nil {
		m.syncFailures.WithLabelValues(tenant).Inc()
	}
}

func (m *Metrics) RollupRan(tenant string) {
	if m != nil {
		m.rollupRuns.WithLabelValues(tenant).Inc()
	}
}

func (m *Metrics) BenchmarksUpdated(tenant string, n int) {
	if m != nil {
		m.benchmarksUpdated.WithLabelValues(tenant).Add(float64(n))
	}
}

func (m *Metrics) ObserveSyncDuration(tenant string, seconds float64) {
	if m != nil {
		m.syncDuration.WithLabelValues(tenant).Observe(seconds)
	}
}
