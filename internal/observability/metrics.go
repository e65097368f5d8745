// Package observability holds the Prometheus collectors and logger setup shared by the service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Enrollment operations and outcomes used as metric labels.
const (
	OperationEnroll   = "enroll"
	OperationUnenroll = "unenroll"

	OutcomeOK               = "ok"
	OutcomeActivityNotFound = "activity_not_found"
	OutcomeAlreadyEnrolled  = "already_enrolled"
	OutcomeNotEnrolled      = "not_enrolled"
	OutcomeError            = "error"
)

var (
	enrollmentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "enrollment",
		Name:      "operations_total",
		Help:      "Enrollment write attempts grouped by operation and outcome.",
	}, []string{"operation", "outcome"})

	enrollmentPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activities_service",
		Subsystem: "enrollment",
		Name:      "last_change_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed roster change.",
	})

	publishFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Number of committed roster changes that could not be published to Kafka.",
	})

	migrationsAppliedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "bootstrap",
		Name:      "migrations_applied_total",
		Help:      "Number of migration scripts applied by this process.",
	})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activities_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests grouped by method, route pattern and status code.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(
		enrollmentCounter,
		enrollmentPersistGauge,
		publishFailureCounter,
		migrationsAppliedCounter,
		requestDuration,
	)
}

// RecordEnrollment counts one enroll or unenroll attempt.
func RecordEnrollment(operation, outcome string) {
	enrollmentCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordEnrollmentPersisted updates the roster change watermark gauge.
func RecordEnrollmentPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	enrollmentPersistGauge.Set(float64(ts.Unix()))
}

// RecordPublishFailure counts an event that could not be delivered.
func RecordPublishFailure() {
	publishFailureCounter.Inc()
}

// RecordMigrationsApplied adds n freshly applied migration scripts.
func RecordMigrationsApplied(n int) {
	if n <= 0 {
		return
	}
	migrationsAppliedCounter.Add(float64(n))
}

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
