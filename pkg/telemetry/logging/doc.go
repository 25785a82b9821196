// Package logging provides structured logging built on log/slog.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON or text output
//   - A level held in a slog.LevelVar so it can change on config reload
//   - Request and session IDs pulled from the context
//   - Redaction of API keys, bearer tokens and credential-named attributes
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "chat turn completed",
//	    "api_key", "sk-abc123",  // redacted
//	    "duration_ms", 1234,
//	)
//
// User content should be passed through Truncate before logging.
package logging
