// Package metrics holds the Prometheus collectors shared across lovtrans.
// Collectors register with the default registry and are served by the health
// server on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	// Provider calls
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovtrans_provider_requests_total",
			Help: "Total number of calls to the translation provider",
		},
		[]string{"operation", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lovtrans_provider_request_duration_seconds",
			Help:    "Duration of translation provider calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"operation"},
	)

	detectionFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lovtrans_detection_fallbacks_total",
			Help: "Number of language detections that fell back to the default code",
		},
	)

	// Orchestration
	secondaryTranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovtrans_secondary_translations_total",
			Help: "Secondary common-language translations by outcome",
		},
		[]string{"outcome"},
	)

	// HTTP surface
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovtrans_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lovtrans_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lovtrans_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)
)

// RecordProviderRequest records one provider call.
func RecordProviderRequest(operation string, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	providerRequestsTotal.WithLabelValues(operation, status).Inc()
	providerRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDetectionFallback counts a detection that returned the fallback code.
func RecordDetectionFallback() {
	detectionFallbacksTotal.Inc()
}

// RecordSecondary counts a secondary translation outcome.
func RecordSecondary(outcome string) {
	secondaryTranslationsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records one served API request.
func RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected with 429.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}
