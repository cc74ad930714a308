// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"madtown/video-aggregator/internal/service"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "madtown_runs_total",
			Help: "Pipeline runs, by label and outcome.",
		},
		[]string{"label", "status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "madtown_run_duration_seconds",
			Help:    "Pipeline run duration in seconds, by label.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"label"},
	)

	videosWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "madtown_videos_written_total",
			Help: "Videos written by discovery runs, by write kind.",
		},
		[]string{"kind"},
	)

	videosExcluded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "madtown_videos_excluded_total",
			Help: "Candidate videos rejected by the inclusion predicate.",
		},
	)

	quotaUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "madtown_quota_units_total",
			Help: "Estimated API quota units spent, by run label.",
		},
		[]string{"label"},
	)

	shortsVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "madtown_shorts_verdicts_total",
			Help: "Shorts classifier verdicts.",
		},
		[]string{"verdict"},
	)
)

// ObserveRun records the outcome and cost of one discovery run.
func ObserveRun(summary *service.RunSummary) {
	status := "failure"
	if summary.Success {
		status = "success"
	}

	runsTotal.WithLabelValues(summary.Label, status).Inc()
	runDuration.WithLabelValues(summary.Label).
		Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	videosWritten.WithLabelValues("inserted").Add(float64(summary.Inserted))
	videosWritten.WithLabelValues("updated").Add(float64(summary.Updated))
	videosExcluded.Add(float64(summary.Excluded))
	quotaUnits.WithLabelValues(summary.Label).Add(float64(summary.QuotaUnits))
}

// ObserveMaintenanceRun records the outcome of a non-discovery pass.
func ObserveMaintenanceRun(label string, success bool, took time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	runsTotal.WithLabelValues(label, status).Inc()
	runDuration.WithLabelValues(label).Observe(took.Seconds())
}

// ObserveVerdicts records a classifier pass.
func ObserveVerdicts(shorts, longForm int) {
	shortsVerdicts.WithLabelValues("short").Add(float64(shorts))
	shortsVerdicts.WithLabelValues("long_form").Add(float64(longForm))
}

// RegisterPoolGauges exposes live connection pool stats. Call once at startup.
func RegisterPoolGauges(pool *pgxpool.Pool) {
	if pool == nil {
		return
	}

	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "madtown_db_connection_pool_active",
			Help: "Number of active database connections.",
		},
		func() float64 {
			return float64(pool.Stat().AcquiredConns())
		},
	)

	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "madtown_db_connection_pool_idle",
			Help: "Number of idle database connections.",
		},
		func() float64 {
			return float64(pool.Stat().IdleConns())
		},
	)
}
