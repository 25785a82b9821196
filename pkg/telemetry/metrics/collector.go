package metrics

import (
	"sync"
	"time"

	"mercator-hq/quill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and every metric Quill exports.
//
// A nil *Collector is valid and records nothing, so components take one as
// an optional dependency without checking whether metrics are enabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics    *RequestMetrics
	upstreamMetrics   *UpstreamMetrics
	generationMetrics *GenerationMetrics

	// Label values that come from clients (paths, scene names) pass
	// through the limiter.
	cardinalityLimiter *CardinalityLimiter
}

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a private registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "quill",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), config.DefaultLatencyBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(256),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.generationMetrics = NewGenerationMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// limit returns value, or OtherLabel when value would add a new label set
// past the cardinality limit.
func (c *Collector) limit(kind, value string) string {
	if !c.cardinalityLimiter.Allow(kind + ":" + value) {
		return OtherLabel
	}
	return value
}

// RecordRequest records a completed HTTP request.
func (c *Collector) RecordRequest(endpoint, method string, code int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordRequest(c.limit("endpoint", endpoint), method, code, duration)
}

// RecordRateLimited records a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited(endpoint string) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordRateLimited(c.limit("endpoint", endpoint))
}

// RecordUpstreamCall records an upstream call. operation is "stream" or
// "completion".
func (c *Collector) RecordUpstreamCall(upstream, operation string, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordCall(upstream, operation, latency.Seconds())
}

// RecordUpstreamError records an upstream error by type (e.g. "auth",
// "rate_limit", "timeout", "stream").
func (c *Collector) RecordUpstreamError(upstream, errorType string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordError(upstream, errorType)
}

// RecordRelayOutcome records the outcome of one relayed chat turn.
func (c *Collector) RecordRelayOutcome(outcome string) {
	if !c.enabled() {
		return
	}
	c.generationMetrics.outcomes.WithLabelValues(outcome).Inc()
}

// RecordChunk records one text fragment forwarded to a client.
func (c *Collector) RecordChunk() {
	if !c.enabled() {
		return
	}
	c.generationMetrics.chunks.Inc()
}

// RecordCopyGeneration records a copy generation for a scene.
// status is "success" or "error".
func (c *Collector) RecordCopyGeneration(scene, status string) {
	if !c.enabled() {
		return
	}
	c.generationMetrics.copies.WithLabelValues(c.limit("scene", scene), status).Inc()
}

// SetActiveSessions sets the number of sessions held in memory.
func (c *Collector) SetActiveSessions(n int) {
	if !c.enabled() {
		return
	}
	c.generationMetrics.activeSessions.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already tracked or fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
