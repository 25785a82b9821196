package openai

import (
	"errors"

	"mercator-hq/quill/pkg/providers"
)

// Wire format of POST /chat/completions as served by DeepSeek and other
// OpenAI-compatible gateways. Only the fields quill reads are declared.

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u wireUsage) neutral() providers.TokenUsage {
	return providers.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

func newChatRequest(req *providers.CompletionRequest, stream bool) *chatRequest {
	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, wireMessage(m))
	}
	return &chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage wireUsage `json:"usage"`
}

var errNoChoices = errors.New("reply has no choices")

// completion reads the first choice.
func (r *chatResponse) completion() (*providers.CompletionResponse, error) {
	if len(r.Choices) == 0 {
		return nil, errNoChoices
	}
	first := r.Choices[0]
	return &providers.CompletionResponse{
		ID:           r.ID,
		Model:        r.Model,
		Content:      first.Message.Content,
		FinishReason: finishReason(first.FinishReason),
		Usage:        r.Usage.neutral(),
		Created:      r.Created,
	}, nil
}

// streamEvent is the JSON payload of one "data:" line.
type streamEvent struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta        wireMessage `json:"delta"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage,omitempty"`
	Error *wireError `json:"error,omitempty"`
}

// chunk returns the text carried by the first choice, or nil for role
// announcements, usage-only events and other events without text.
func (e *streamEvent) chunk() *providers.StreamChunk {
	if len(e.Choices) == 0 || e.Choices[0].Delta.Content == "" {
		return nil
	}
	c := &providers.StreamChunk{
		ID:           e.ID,
		Model:        e.Model,
		Delta:        e.Choices[0].Delta.Content,
		FinishReason: finishReason(e.Choices[0].FinishReason),
	}
	if e.Usage != nil {
		u := e.Usage.neutral()
		c.Usage = &u
	}
	return c
}

func finishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter":
		return providers.FinishReasonContentFilter
	}
	return reason
}
