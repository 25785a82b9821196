package proxy

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// RequestMetadata contains extracted metadata from an HTTP request.
// This is used for logging and rate limiting.
type RequestMetadata struct {
	// RequestID is the client-supplied request ID, if any.
	RequestID string

	// SessionID is the raw X-Session-ID header.
	SessionID string

	// Method is the HTTP method (GET, POST, etc.).
	Method string

	// Path is the HTTP request path.
	Path string

	// UserAgent is the client's user agent string.
	UserAgent string

	// ClientIP is the client's address without the port.
	ClientIP string

	// Timestamp is when the request was received.
	Timestamp time.Time
}

// ExtractRequestMetadata extracts metadata from an HTTP request.
// trustForwarded makes the first X-Forwarded-For entry the client IP.
func ExtractRequestMetadata(r *http.Request, trustForwarded bool) *RequestMetadata {
	return &RequestMetadata{
		RequestID: ExtractRequestID(r),
		SessionID: r.Header.Get(SessionIDHeader),
		Method:    r.Method,
		Path:      r.URL.Path,
		UserAgent: r.UserAgent(),
		ClientIP:  ClientIP(r, trustForwarded),
		Timestamp: time.Now(),
	}
}

// ClientIP returns the address the request came from. When trustForwarded
// is set and X-Forwarded-For is present, its first entry wins.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
