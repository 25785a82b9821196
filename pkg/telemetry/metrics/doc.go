// Package metrics provides Prometheus metrics collection for Quill.
//
// # Metrics Categories
//
//   - HTTP: request count and duration by endpoint, rate-limited requests
//   - Upstream: chat completion latency, call count and errors by type
//   - Generation: relay outcomes, forwarded chunks, copy generations by
//     scene, and sessions held in memory
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRelayOutcome("completed")
//	mux.Handle("/metrics", collector.Handler())
//
// All metrics live on a private registry, so tests can build as many
// collectors as they like.
package metrics
