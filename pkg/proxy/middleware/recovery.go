package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/types"
)

// RecoveryMiddleware turns a handler panic into a logged error. Before the
// response has started the client gets a generic 500. Once a streamed reply
// is under way the status line is gone, so the generation status trailer is
// set to "failed" instead. http.ErrAbortHandler is re-raised for net/http.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"response_started", rec.status != 0,
					"stack", string(debug.Stack()),
				)

				if rec.status == 0 {
					_ = proxy.WriteErrorResponse(rec, types.NewServerError(types.CodeInternalError))
					return
				}
				if w.Header().Get("Trailer") == proxy.GenerationStatusTrailer {
					w.Header().Set(proxy.GenerationStatusTrailer, "failed")
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
