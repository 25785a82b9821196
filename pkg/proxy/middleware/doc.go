// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// Every request to the service passes through the same chain:
//
//	handler = Recovery(RequestID(Logging(CORS(RateLimit(Timeout(handler))))))
//
// Order (innermost to outermost):
//  1. Timeout: put a deadline on the request context
//  2. RateLimit: reject clients over their allowance
//  3. CORS: add Cross-Origin Resource Sharing headers
//  4. Logging: log the request and record HTTP metrics
//  5. RequestID: generate and propagate the request ID
//  6. Recovery: turn panics into 500 responses
//
// # Request ID
//
// RequestIDMiddleware keeps a client-supplied X-Request-ID of at most 128
// bytes and otherwise generates a UUID v4. The ID is stored with
// logging.WithRequestID, so the context-aware log handler adds it to every
// line written during the request, and it is echoed in the response.
//
// # Logging
//
//	{
//	  "time": "2026-03-01T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/xiaohongshu/copy",
//	  "status": 200,
//	  "latency_ms": 2310,
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
//
// 5xx responses are logged at ERROR and 4xx at WARN.
//
// # Rate Limiting
//
// RateLimiter keeps one token bucket per client IP. With the defaults a
// client may send 100 requests at once and then one every nine seconds.
// Health, readiness and version probes are exempt. Rejected requests get:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 9
//
//	{"error": {"message": "Too many requests, please try again later.",
//	  "type": "rate_limit_exceeded", "code": "rate_limited"}}
//
// Idle buckets are dropped by RateLimiter.Run.
//
// # CORS
//
//	proxy:
//	  cors:
//	    enabled: true
//	    allowed_origins: ["http://localhost:3000"]
//	    exposed_headers: ["X-Request-ID", "X-Session-ID", "X-Generation-Status"]
//
// # Timeout
//
// TimeoutMiddleware only attaches a deadline. It never writes a response
// itself: the chat handler turns an expired deadline into the apology
// fragment and the copy handler into a 500 with code provider_timeout.
//
// # Thread Safety
//
// All middleware is safe for concurrent use.
package middleware
