package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks validation runs by terminal status ("ok" | "error").
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_runs_total",
			Help: "Total number of validation runs executed, by status.",
		},
		[]string{"status"},
	)

	// Measures end-to-end duration of a validation run.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "curation_run_duration_seconds",
			Help:    "Duration of full ingest/enrich/validate runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~40s
		},
	)

	// Counts rows ingested into canonical batches.
	RowsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curation_rows_ingested_total",
			Help: "Total number of raw trade rows ingested.",
		},
	)

	// Counts breaches recorded, by rule and severity.
	BreachesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_breaches_total",
			Help: "Total number of rule breaches recorded.",
		},
		[]string{"rule_id", "severity"},
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages published.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)

	// Gauges the last successful run time (seconds since epoch).
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curation_last_run_timestamp",
			Help: "Timestamp (unix seconds) of the last successful validation run.",
		},
	)
)

// ObserveDuration records the time taken since start on the given histogram.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case prometheus.Histogram:
		metric.Observe(duration)
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters are not meant for duration tracking
	}
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
