package metrics

import (
	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls to the chat completion upstream.
//
// Metrics:
//   - quill_upstream_latency_seconds: Time to first byte for streams, full
//     round trip for one-shot calls
//   - quill_upstream_errors_total: Upstream error count by type
//   - quill_upstream_requests_total: Total calls by operation
type UpstreamMetrics struct {
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_latency_seconds",
				Help:      "Upstream chat completion latency in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"upstream", "operation"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream errors by type",
			},
			[]string{"upstream", "error_type"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream chat completion calls",
			},
			[]string{"upstream", "operation"},
		),
	}

	registry.MustRegister(
		um.latency,
		um.errors,
		um.requests,
	)

	return um
}

// RecordCall records an upstream call and its latency.
func (um *UpstreamMetrics) RecordCall(upstream, operation string, latencySeconds float64) {
	um.requests.WithLabelValues(upstream, operation).Inc()
	um.latency.WithLabelValues(upstream, operation).Observe(latencySeconds)
}

// RecordError records an upstream error.
func (um *UpstreamMetrics) RecordError(upstream, errorType string) {
	um.errors.WithLabelValues(upstream, errorType).Inc()
}
