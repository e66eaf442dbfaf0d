package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestListingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_listings_total",
			Help:      "Marketplace records processed by outcome",
		},
		[]string{"source", "outcome"}, // created / updated / skipped / failed
	)

	IngestFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_fetch_errors_total",
			Help:      "Marketplace pages dropped after retries",
		},
		[]string{"source"},
	)

	BackfillItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_items_total",
			Help:      "Backfill items by outcome",
		},
		[]string{"outcome"}, // embedded / failed
	)

	SchedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)

	SchedulerRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_run_duration_seconds",
			Help:      "Scheduled job duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"job"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestListingsTotal)
	prometheus.MustRegister(IngestFetchErrorsTotal)
	prometheus.MustRegister(BackfillItemsTotal)
	prometheus.MustRegister(SchedulerRunsTotal)
	prometheus.MustRegister(SchedulerRunDuration)
	ingestMetricsRegistered = true
}
