// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for TransformRequests.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeCacheHit = "cache_hit"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	TransformRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_requests_total",
			Help: "Total number of transform requests by outcome",
		},
		[]string{"transform", "outcome"},
	)

	TransformUpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_upstream_failures_total",
			Help: "Total number of failed completion API calls",
		},
		[]string{"transform", "error_code"},
	)

	TransformDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_degraded_total",
			Help: "Total number of fallback objects returned for unparseable model output",
		},
		[]string{"transform"},
	)

	TransformSchemaMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_schema_mismatches_total",
			Help: "Total number of parsed model outputs that did not match the expected shape",
		},
		[]string{"transform"},
	)

	TransformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transform_request_duration_seconds",
			Help:    "Duration of transform request handling in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45, 90},
		},
		[]string{"transform"},
	)

	TransformRequestsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transform_requests_active",
			Help: "Number of in-flight requests per transform",
		},
		[]string{"transform"},
	)
)
