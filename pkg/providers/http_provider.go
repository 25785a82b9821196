package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// maxErrorBody caps how much of a failed reply is kept for the log.
	maxErrorBody = 4 << 10

	// unhealthyAfter consecutive failures flip ProviderHealth.IsHealthy.
	unhealthyAfter = 3
)

// HTTPProvider is the transport shared by upstream adapters. It owns the
// pooled client, maps HTTP failures onto the error types of this package,
// retries non-streaming calls and keeps ProviderHealth up to date.
type HTTPProvider struct {
	config ProviderConfig
	client *http.Client
	logger *slog.Logger

	mu     sync.RWMutex
	health ProviderHealth
}

// NewHTTPProvider builds the pooled client. config.Timeout bounds only the
// wait for response headers; a streamed body may run for as long as the
// caller's context allows.
func NewHTTPProvider(config ProviderConfig, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProvider{
		config: config,
		client: &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          config.MaxIdleConns,
			MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
			IdleConnTimeout:       config.IdleConnTimeout,
			ResponseHeaderTimeout: config.Timeout,
			ForceAttemptHTTP2:     true,
		}},
		logger: logger.With("provider", config.Name),
		health: ProviderHealth{IsHealthy: true},
	}
}

func (p *HTTPProvider) GetName() string          { return p.config.Name }
func (p *HTTPProvider) GetConfig() ProviderConfig { return p.config }
func (p *HTTPProvider) Logger() *slog.Logger      { return p.logger }

func (p *HTTPProvider) IsHealthy() bool {
	return p.GetHealth().IsHealthy
}

// GetHealth returns a snapshot of the request statistics.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// RecordOutcome counts one finished call. Adapters call it themselves for
// failures that surface after the headers, such as a broken stream.
func (p *HTTPProvider) RecordOutcome(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := &p.health
	h.TotalRequests++
	if err == nil {
		h.IsHealthy, h.ConsecutiveFailures, h.LastError = true, 0, nil
		h.LastSuccessfulRequest = time.Now()
		return
	}

	h.FailedRequests++
	h.ConsecutiveFailures++
	h.LastError = err
	if h.IsHealthy && h.ConsecutiveFailures >= unhealthyAfter {
		h.IsHealthy = false
		p.logger.Warn("upstream marked unhealthy", "consecutive_failures", h.ConsecutiveFailures, "error", err)
	}
}

// DoRequest sends a request and returns a 2xx response. 5xx replies and
// transport failures are retried up to MaxRetries times, the delay doubling
// from RetryBackoff.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	return p.send(ctx, method, url, body, headers, p.config.MaxRetries)
}

// DoStreamRequest is DoRequest without retries. A stream may already have
// reached the client in part, so it is never replayed.
func (p *HTTPProvider) DoStreamRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	return p.send(ctx, method, url, body, headers, 0)
}

func (p *HTTPProvider) send(ctx context.Context, method, url string, body []byte, headers map[string]string, retries int) (*http.Response, error) {
	delay := p.config.RetryBackoff
	if delay <= 0 {
		delay = time.Second
	}

	var err error
	for attempt := 0; ; attempt++ {
		var resp *http.Response
		var retry bool
		resp, retry, err = p.attempt(ctx, method, url, body, headers)
		if err == nil {
			return resp, nil
		}
		if !retry || attempt >= retries {
			return nil, err
		}

		p.logger.Debug("retrying upstream request", "attempt", attempt+1, "of", retries, "delay", delay, "error", err)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, p.contextError(ctx)
		case <-t.C:
		}
		delay *= 2
	}
}

// attempt makes one round trip. retry reports whether the failure is
// transient.
func (p *HTTPProvider) attempt(ctx context.Context, method, url string, body []byte, headers map[string]string) (resp *http.Response, retry bool, err error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, false, fmt.Errorf("build upstream request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err = p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = p.contextError(ctx)
			if !errors.Is(err, context.Canceled) {
				p.RecordOutcome(err)
			}
			return nil, false, err
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			err = &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: err}
		} else {
			err = &ProviderError{Provider: p.config.Name, Message: "request failed", Cause: err}
		}
		p.RecordOutcome(err)
		p.logger.Warn("upstream request failed", "error", err)
		return nil, true, err
	}

	if resp.StatusCode/100 == 2 {
		return resp, false, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	err = p.statusError(resp, raw)
	p.RecordOutcome(err)
	if resp.StatusCode >= 500 {
		p.logger.Warn("upstream returned error status", "status", resp.StatusCode)
		return nil, true, err
	}
	return nil, false, err
}

func (p *HTTPProvider) statusError(resp *http.Response, body []byte) error {
	name, msg := p.config.Name, string(body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: name, Message: msg}
	case http.StatusTooManyRequests:
		return &RateLimitError{Provider: name, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")), Message: msg}
	}
	return &ProviderError{Provider: name, StatusCode: resp.StatusCode, Message: msg}
}

// contextError passes cancellation through and turns a deadline into a
// TimeoutError.
func (p *HTTPProvider) contextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: err}
	}
	return err
}

// DoJSONRequest encodes in, sends it with DoRequest and decodes the reply
// into out when out is non-nil.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, in, out any, headers map[string]string) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode upstream request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return p.contextError(ctx)
		}
		err = &ParseError{Provider: p.config.Name, Cause: fmt.Errorf("read reply: %w", err)}
		p.RecordOutcome(err)
		return err
	}
	if out != nil {
		if jsonErr := json.Unmarshal(raw, out); jsonErr != nil {
			err = &ParseError{Provider: p.config.Name, RawResponse: string(raw), Cause: jsonErr}
			p.RecordOutcome(err)
			return err
		}
	}

	p.RecordOutcome(nil)
	return nil
}

// Close drops idle pooled connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter reads a Retry-After value given either in seconds or as
// an HTTP date. Anything else yields zero.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
