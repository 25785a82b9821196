package metrics

import (
	"strconv"
	"time"

	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks HTTP requests served by the API.
//
// Metrics:
//   - quill_http_requests_total: Request count by endpoint, method, status code
//   - quill_http_request_duration_seconds: Request duration histogram
//   - quill_rate_limited_requests_total: Requests rejected by the rate limiter
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"endpoint", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds, including streamed bodies",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"endpoint"},
		),

		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limited_requests_total",
				Help:      "Total number of requests rejected by the per-client rate limiter",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.rateLimited,
	)

	return rm
}

// RecordRequest records a completed HTTP request.
func (rm *RequestMetrics) RecordRequest(endpoint, method string, code int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
	rm.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordRateLimited records a request rejected by the rate limiter.
func (rm *RequestMetrics) RecordRateLimited(endpoint string) {
	rm.rateLimited.WithLabelValues(endpoint).Inc()
}
