package metrics

import (
	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks chat turns and copy generations.
//
// Metrics:
//   - quill_relay_outcomes_total: Chat turns by outcome (completed, failed, cancelled)
//   - quill_relay_chunks_total: Text fragments forwarded to clients
//   - quill_copy_generations_total: Copy generations by scene and status
//   - quill_active_sessions: Conversation sessions currently held in memory
type GenerationMetrics struct {
	outcomes       *prometheus.CounterVec
	chunks         prometheus.Counter
	copies         *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewGenerationMetrics creates and registers generation metrics with the provided registry.
func NewGenerationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GenerationMetrics {
	gm := &GenerationMetrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "relay_outcomes_total",
				Help:      "Total number of relayed chat turns by outcome",
			},
			[]string{"outcome"},
		),

		chunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "relay_chunks_total",
				Help:      "Total number of text fragments forwarded to clients",
			},
		),

		copies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "copy_generations_total",
				Help:      "Total number of copy generations by scene and status",
			},
			[]string{"scene", "status"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_sessions",
				Help:      "Number of conversation sessions held in memory",
			},
		),
	}

	registry.MustRegister(
		gm.outcomes,
		gm.chunks,
		gm.copies,
		gm.activeSessions,
	)

	return gm
}
