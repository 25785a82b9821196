package providers

import "time"

// Message is one entry of a conversation sent to the model.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is a chat completion request in upstream-neutral form.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "deepseek-chat")
	Model string `json:"model"`

	// Messages is the conversation, oldest first
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate; zero leaves it
	// to the upstream
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stream indicates whether to stream the response. The client sets it;
	// callers need not.
	Stream bool `json:"stream,omitempty"`
}

// CompletionResponse is a finished, non-streamed completion.
type CompletionResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
	Created      int64      `json:"created"`
}

// StreamChunk is one text fragment of a streamed completion.
// Readers never return a chunk with an empty Delta.
type StreamChunk struct {
	ID           string      `json:"id"`
	Model        string      `json:"model"`
	Delta        string      `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// ProviderHealth tracks request outcomes against the upstream.
type ProviderHealth struct {
	// IsHealthy is false after three consecutive failed requests and true
	// again after the next success
	IsHealthy bool

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failed requests
	ConsecutiveFailures int

	// LastSuccessfulRequest is the timestamp of the last successful request
	LastSuccessfulRequest time.Time

	// TotalRequests is the total number of requests sent
	TotalRequests int64

	// FailedRequests is the total number of failed requests
	FailedRequests int64
}

// ProviderConfig contains the settings an upstream client needs.
type ProviderConfig struct {
	// Name identifies the upstream in logs, errors and metrics
	Name string

	// BaseURL is the API base URL; "/chat/completions" is appended
	BaseURL string

	// APIKey is sent as a bearer token
	APIKey string

	// Timeout bounds the wait for response headers
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures of
	// non-streaming calls
	MaxRetries int

	// RetryBackoff is the delay before the first retry; it doubles for each
	// later attempt. Zero means one second.
	RetryBackoff time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)
