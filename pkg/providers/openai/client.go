package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/quill/pkg/providers"
)

// completionsPath is appended to the configured base URL.
const completionsPath = "/chat/completions"

// Provider is an OpenAI-compatible chat completion client. DeepSeek is the
// default upstream.
type Provider struct {
	*providers.HTTPProvider

	endpoint string
}

// NewProvider creates a new OpenAI-compatible provider.
func NewProvider(config providers.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required",
		}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config, logger),
		endpoint:     strings.TrimRight(config.BaseURL, "/") + completionsPath,
	}

	p.Logger().Info("upstream provider initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout,
		"max_retries", config.MaxRetries,
	)

	return p, nil
}

// SendCompletion sends a non-streaming completion request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	var reply chatResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, p.endpoint, newChatRequest(req, false), &reply, p.headers(false)); err != nil {
		return nil, err
	}

	resp, err := reply.completion()
	if err != nil {
		return nil, &providers.ParseError{Provider: p.GetName(), Cause: err}
	}

	p.Logger().Debug("completion received",
		"model", resp.Model,
		"finish_reason", resp.FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// StreamCompletion opens a streamed completion. The returned reader is
// bound to ctx: cancelling ctx aborts the upstream request.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (providers.StreamReader, error) {
	wireReq := newChatRequest(req, true)

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.DoStreamRequest(ctx, http.MethodPost, p.endpoint, body, p.headers(true))
	if err != nil {
		return nil, err
	}

	p.Logger().Debug("stream opened", "model", wireReq.Model, "messages", len(wireReq.Messages))

	return newStreamReader(ctx, p.HTTPProvider, resp.Body), nil
}

func (p *Provider) headers(stream bool) map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type":  "application/json",
	}
	if stream {
		h["Accept"] = "text/event-stream"
	}
	return h
}

// Compile-time interface check
var _ providers.Provider = (*Provider)(nil)
