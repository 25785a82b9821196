package providers

import (
	"errors"
	"fmt"
	"time"
)

// ProviderError is a non-2xx reply from the upstream, or a transport
// failure when StatusCode is 0. Message holds the reply body and is only
// ever logged.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// AuthError is a 401 or 403, almost always a bad DEEPSEEK_API_KEY.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: credentials rejected: %s", e.Provider, e.Message)
}

// RateLimitError is a 429. RetryAfter is zero when the upstream sent no hint.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("%s: throttled", e.Provider)
	if e.RetryAfter > 0 {
		msg += " for " + e.RetryAfter.String()
	}
	return msg + ": " + e.Message
}

// TimeoutError means no reply arrived within Timeout, or the caller's
// deadline passed first.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
	Cause    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no reply within %s", e.Provider, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ParseError is a reply body or stream event that did not decode.
// RawResponse keeps the offending payload for the debug log.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: undecodable reply: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// StreamError is a failure after the stream opened: a dropped connection,
// broken framing, or an error event sent by the upstream.
type StreamError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *StreamError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: stream broke: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: stream broke: %s: %v", e.Provider, e.Message, e.Cause)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// ConfigError is a bad provider setting caught at construction.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Provider, e.Field, e.Message)
}

// IsUpstreamError reports whether err, or any error it wraps, is a failure
// of the upstream model service: a transport failure, non-2xx status,
// timeout or malformed payload. Context cancellation by the caller is not an
// upstream error.
func IsUpstreamError(err error) bool {
	return ErrorType(err) != ""
}

// ErrorType classifies an upstream error for logs and metrics. It returns
// "" when err is not an upstream error.
func ErrorType(err error) string {
	var (
		authErr      *AuthError
		rateLimitErr *RateLimitError
		timeoutErr   *TimeoutError
		parseErr     *ParseError
		streamErr    *StreamError
		providerErr  *ProviderError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateLimitErr):
		return "rate_limit"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &streamErr):
		return "stream"
	case errors.As(err, &providerErr):
		if providerErr.StatusCode >= 500 {
			return "server_error"
		}
		if providerErr.StatusCode == 0 {
			return "network"
		}
		return "client_error"
	}
	return ""
}
