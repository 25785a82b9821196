package providers

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/quill/pkg/providers"
)

// TestConfig returns a provider configuration pointing at baseURL.
func TestConfig(baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                "deepseek",
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		RetryBackoff:        10 * time.Millisecond,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestCompletionRequest creates a test completion request.
func TestCompletionRequest(messages ...providers.Message) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:       "deepseek-chat",
		Messages:    messages,
		Temperature: 0.7,
	}
}

// ReadAll drains a stream and returns the concatenated text and the
// terminating error (nil on a clean end).
func ReadAll(ctx context.Context, stream providers.StreamReader) (string, error) {
	var b strings.Builder
	for {
		chunk, err := stream.Read(ctx)
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk.Delta)
	}
}

// WaitForCondition waits for a condition to become true within a timeout.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}
		<-ticker.C
	}
}

// ScriptedProvider is an in-process providers.Provider for tests that do not
// need HTTP. Each call consumes the next Script entry.
type ScriptedProvider struct {
	mu       sync.Mutex
	scripts  []Script
	requests []*providers.CompletionRequest
}

// Script describes one upstream call.
type Script struct {
	// OpenErr fails the call before any fragment.
	OpenErr error

	// Fragments are delivered in order; for SendCompletion they are joined.
	Fragments []string

	// FailAfter, when non-nil, is returned by Read after all fragments.
	FailAfter error

	// Block makes Read wait for context cancellation after the fragments.
	Block bool
}

// NewScriptedProvider creates a provider that plays back scripts in order.
// When the scripts run out the last one repeats.
func NewScriptedProvider(scripts ...Script) *ScriptedProvider {
	return &ScriptedProvider{scripts: scripts}
}

// Requests returns the requests received so far.
func (p *ScriptedProvider) Requests() []*providers.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*providers.CompletionRequest(nil), p.requests...)
}

func (p *ScriptedProvider) next(req *providers.CompletionRequest) Script {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := *req
	cp.Messages = append([]providers.Message(nil), req.Messages...)
	p.requests = append(p.requests, &cp)

	if len(p.scripts) == 0 {
		return Script{}
	}
	s := p.scripts[0]
	if len(p.scripts) > 1 {
		p.scripts = p.scripts[1:]
	}
	return s
}

// SendCompletion implements providers.Provider.
func (p *ScriptedProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	s := p.next(req)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	if s.FailAfter != nil {
		return nil, s.FailAfter
	}
	return &providers.CompletionResponse{
		ID:           "scripted",
		Model:        req.Model,
		Content:      strings.Join(s.Fragments, ""),
		FinishReason: providers.FinishReasonStop,
	}, nil
}

// StreamCompletion implements providers.Provider.
func (p *ScriptedProvider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (providers.StreamReader, error) {
	s := p.next(req)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	return &scriptedStream{script: s}, nil
}

// GetName implements providers.Provider.
func (p *ScriptedProvider) GetName() string { return "scripted" }

// GetHealth implements providers.Provider.
func (p *ScriptedProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: true}
}

// Close implements providers.Provider.
func (p *ScriptedProvider) Close() error { return nil }

type scriptedStream struct {
	script Script
	pos    int
	closed bool
}

func (s *scriptedStream) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos < len(s.script.Fragments) {
		f := s.script.Fragments[s.pos]
		s.pos++
		return &providers.StreamChunk{Delta: f}, nil
	}
	if s.script.FailAfter != nil {
		return nil, s.script.FailAfter
	}
	if s.script.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

var _ providers.Provider = (*ScriptedProvider)(nil)
