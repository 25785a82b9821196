package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/telemetry/logging"
)

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// RequestIDMiddleware tags each request with an ID. A usable X-Request-ID
// from the client is kept, anything else is replaced by a UUID. The ID goes
// into the context through logging.WithRequestID and back out in the
// response header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := proxy.ExtractRequestID(r)
		if !usableRequestID(id) {
			id = uuid.NewString()
		}

		w.Header().Set(proxy.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// usableRequestID accepts non-empty printable ASCII up to maxRequestIDLength.
// IDs end up in log lines and response headers, so control bytes are out.
func usableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x20 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
