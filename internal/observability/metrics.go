// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	RowsIngested       prometheus.Counter
	RowsSkipped        prometheus.Counter
	IngestionErrors    *prometheus.CounterVec
	DocumentsProcessed prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal prometheus.Counter
	PipelineErrors    prometheus.Counter
	PipelineDuration  prometheus.Histogram
	TransfersMatched  prometheus.Counter

	// Override metrics
	OverridesRecorded *prometheus.CounterVec

	// Export metrics
	SnapshotsExported   prometheus.Counter
	SnapshotsDeduped    prometheus.Counter
	VerificationsFailed prometheus.Counter

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "deal_parity"
	}

	return &Metrics{
		RowsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_ingested_total",
			Help:      "Total number of transaction rows ingested",
		}),
		RowsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_skipped_total",
			Help:      "Total number of duplicate rows skipped during ingestion",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"error_type"}),
		DocumentsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "documents_processed_total",
			Help:      "Total number of documents processed",
		}),

		PipelineRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of analysis runs computed",
		}),
		PipelineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Total number of failed analysis runs",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Analysis run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TransfersMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_matched_total",
			Help:      "Total number of transfer links produced",
		}),

		OverridesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "overrides",
			Name:      "recorded_total",
			Help:      "Total number of overrides recorded by weight",
		}, []string{"weight"}),

		SnapshotsExported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "snapshots_total",
			Help:      "Total number of snapshots exported",
		}),
		SnapshotsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "snapshots_deduplicated_total",
			Help:      "Total number of exports resolved to an existing snapshot",
		}),
		VerificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "verifications_failed_total",
			Help:      "Total number of snapshot hash verifications that failed",
		}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRowsIngested adds to the ingested row counter.
func RecordRowsIngested(n int) {
	DefaultMetrics.RowsIngested.Add(float64(n))
}

// RecordIngestionError records an ingestion error by type.
func RecordIngestionError(errorType string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(errorType).Inc()
}

// RecordPipelineRun records a completed analysis run.
func RecordPipelineRun(durationSeconds float64, links int) {
	DefaultMetrics.PipelineRunsTotal.Inc()
	DefaultMetrics.PipelineDuration.Observe(durationSeconds)
	DefaultMetrics.TransfersMatched.Add(float64(links))
}

// RecordOverride records an override by its weight bucket.
func RecordOverride(weight string) {
	DefaultMetrics.OverridesRecorded.WithLabelValues(weight).Inc()
}

// RecordExport records an export, deduplicated or fresh.
func RecordExport(deduplicated bool) {
	if deduplicated {
		DefaultMetrics.SnapshotsDeduped.Inc()
		return
	}
	DefaultMetrics.SnapshotsExported.Inc()
}
