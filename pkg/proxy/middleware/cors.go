package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig contains configuration for CORS middleware.
type CORSConfig struct {
	Enabled bool

	// AllowedOrigins lists exact origins. "*" allows any origin.
	AllowedOrigins []string

	AllowedMethods []string

	// AllowedHeaders lists request headers a preflight may ask for. When
	// empty, the headers named in Access-Control-Request-Headers are echoed.
	AllowedHeaders []string

	// ExposedHeaders are readable by browser scripts. The chat endpoint needs
	// X-Session-ID and X-Generation-Status here.
	ExposedHeaders []string

	// MaxAge is how long, in seconds, a preflight may be cached.
	MaxAge int

	AllowCredentials bool
}

// corsPolicy is a CORSConfig with its header values joined once.
type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]bool
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
}

func newCORSPolicy(c *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     make(map[string]bool, len(c.AllowedOrigins)),
		credentials: c.AllowCredentials,
		methods:     strings.Join(c.AllowedMethods, ", "),
		headers:     strings.Join(c.AllowedHeaders, ", "),
		exposed:     strings.Join(c.ExposedHeaders, ", "),
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[o] = true
	}
	if c.MaxAge > 0 {
		p.maxAge = strconv.Itoa(c.MaxAge)
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed. Credentialed responses never use "*".
func (p *corsPolicy) allowOrigin(origin string) string {
	switch {
	case origin == "":
		return ""
	case p.origins[origin]:
		return origin
	case p.anyOrigin && p.credentials:
		return origin
	case p.anyOrigin:
		return "*"
	}
	return ""
}

// CORSMiddleware adds Cross-Origin Resource Sharing headers and answers
// OPTIONS requests with 204 before they reach a handler. Disallowed origins
// get no CORS headers, so the browser blocks the response.
//
//	handler = CORSMiddleware(&CORSConfig{
//	    Enabled:        true,
//	    AllowedOrigins: []string{"http://localhost:3000"},
//	    AllowedMethods: []string{"GET", "POST", "OPTIONS"},
//	    ExposedHeaders: []string{"X-Session-ID", "X-Generation-Status"},
//	})(handler)
func CORSMiddleware(config *CORSConfig) func(http.Handler) http.Handler {
	if config == nil || !config.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	p := newCORSPolicy(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !p.anyOrigin || p.credentials {
				h.Add("Vary", "Origin")
			}

			if allowed := p.allowOrigin(r.Header.Get("Origin")); allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if p.exposed != "" {
					h.Set("Access-Control-Expose-Headers", p.exposed)
				}
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if p.methods != "" {
				h.Set("Access-Control-Allow-Methods", p.methods)
			}
			if p.headers != "" {
				h.Set("Access-Control-Allow-Headers", p.headers)
			} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
				h.Set("Access-Control-Allow-Headers", requested)
				h.Add("Vary", "Access-Control-Request-Headers")
			}
			if p.maxAge != "" {
				h.Set("Access-Control-Max-Age", p.maxAge)
			}
			h.Set("Content-Length", "0")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
