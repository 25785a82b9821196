package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// statusRecorder remembers the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the chat stream needs to flush fragments.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func (rec *statusRecorder) code() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// LoggingMiddleware logs one line per request when it completes and records
// the request metrics. Streamed chat replies also log the session and the
// generation status sent in the trailer.
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/chat",
//	  "status": 200,
//	  "bytes": 734,
//	  "latency_ms": 5210,
//	  "client_ip": "192.168.1.100",
//	  "session_id": "default",
//	  "generation_status": "completed",
//	  "request_id": "3f0c..."
//	}
func LoggingMiddleware(logger *slog.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			meta := proxy.ExtractRequestMetadata(r, false)

			logger.DebugContext(ctx, "request started",
				"method", meta.Method,
				"path", meta.Path,
				"user_agent", meta.UserAgent,
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			latency := time.Since(start)
			status := rec.code()
			collector.RecordRequest(meta.Path, meta.Method, status, latency)

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", meta.Method,
				"path", meta.Path,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", latency.Milliseconds(),
				"client_ip", meta.ClientIP,
			}
			h := rec.Header()
			if session := h.Get(proxy.SessionIDHeader); session != "" {
				attrs = append(attrs, "session_id", session)
			}
			if generation := h.Get(proxy.GenerationStatusTrailer); generation != "" {
				attrs = append(attrs, "generation_status", generation)
			}

			logger.Log(ctx, level, "request completed", attrs...)
		})
	}
}
