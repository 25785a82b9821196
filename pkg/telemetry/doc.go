// Package telemetry groups Quill's observability packages.
//
// # Components
//
//   - logging: slog-based structured logging with redaction and a
//     runtime-adjustable level
//   - metrics: Prometheus metrics on a private registry
//   - health: liveness and readiness checks
//
// Log records never carry full user content; callers truncate it with
// logging.Truncate. Conversation text is not exported as metrics.
package telemetry
