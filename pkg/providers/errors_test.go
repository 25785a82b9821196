package providers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"cancelled", context.Canceled, ""},
		{"plain", fmt.Errorf("boom"), ""},
		{"auth", &AuthError{Provider: "p"}, "auth"},
		{"rate limit", &RateLimitError{Provider: "p"}, "rate_limit"},
		{"timeout", &TimeoutError{Provider: "p", Cause: context.DeadlineExceeded}, "timeout"},
		{"parse", &ParseError{Provider: "p", Cause: fmt.Errorf("bad")}, "parse"},
		{"stream", &StreamError{Provider: "p", Message: "eof"}, "stream"},
		{"server", &ProviderError{Provider: "p", StatusCode: 502}, "server_error"},
		{"client", &ProviderError{Provider: "p", StatusCode: 400}, "client_error"},
		{"network", &ProviderError{Provider: "p", Message: "dial"}, "network"},
		{"wrapped", fmt.Errorf("relay: %w", &StreamError{Provider: "p"}), "stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorType(tt.err); got != tt.want {
				t.Errorf("ErrorType() = %q, want %q", got, tt.want)
			}
			if got := IsUpstreamError(tt.err); got != (tt.want != "") {
				t.Errorf("IsUpstreamError() = %v", got)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty header: got %s", got)
	}
	if got := parseRetryAfter("12"); got != 12*time.Second {
		t.Errorf("seconds: got %s", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("http date: got %s", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("garbage: got %s", got)
	}
}

func TestHTTPProvider_RecordOutcome(t *testing.T) {
	p := NewHTTPProvider(ProviderConfig{Name: "deepseek"}, nil)

	for i := 0; i < 2; i++ {
		p.RecordOutcome(fmt.Errorf("fail %d", i))
	}
	if !p.IsHealthy() {
		t.Fatal("two failures should not mark the provider unhealthy")
	}

	p.RecordOutcome(fmt.Errorf("fail 3"))
	if p.IsHealthy() {
		t.Fatal("three consecutive failures should mark the provider unhealthy")
	}

	p.RecordOutcome(nil)
	h := p.GetHealth()
	if !h.IsHealthy || h.ConsecutiveFailures != 0 {
		t.Errorf("success should reset health, got %+v", h)
	}
	if h.TotalRequests != 4 || h.FailedRequests != 3 {
		t.Errorf("unexpected counters: %+v", h)
	}
}
