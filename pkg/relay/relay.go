package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// Apology is sent to the client in place of any upstream failure.
const Apology = "I apologize, but I encountered an error while processing your request. Please try again later."

// Outcome describes how a relayed generation ended.
type Outcome string

const (
	// OutcomeCompleted means the upstream stream ended normally.
	OutcomeCompleted Outcome = "completed"

	// OutcomeFailed means the upstream failed and the apology was sent.
	OutcomeFailed Outcome = "failed"

	// OutcomeCancelled means the client went away before the end.
	OutcomeCancelled Outcome = "cancelled"
)

// Sink receives text fragments in order. A non-nil error means the client
// can no longer be written to.
type Sink func(fragment string) error

// Result is the outcome of one relayed generation.
type Result struct {
	// Text is the concatenation of every fragment sent to the sink. On
	// failure it is the apology.
	Text string

	// Outcome is how the generation ended.
	Outcome Outcome

	// Err is the underlying upstream or sink error. It is never shown to the
	// client.
	Err error

	// Chunks is the number of fragments sent to the sink.
	Chunks int

	// Duration is the wall time of the generation.
	Duration time.Duration
}

// Config holds the generation parameters for chat turns.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Relay streams upstream completions to a sink.
type Relay struct {
	provider providers.Provider
	config   Config
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// New creates a relay over provider.
func New(provider providers.Provider, cfg Config, logger *slog.Logger, collector *metrics.Collector) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		provider: provider,
		config:   cfg,
		logger:   logger.With("component", "relay"),
		metrics:  collector,
	}
}

// Stream sends messages upstream and forwards each non-empty fragment to
// sink as it arrives, before reading the next one.
//
// Any upstream failure, before or after the first fragment, is logged and
// replaced by a single Apology fragment. If ctx is cancelled or the sink
// fails, the upstream stream is closed and the result is OutcomeCancelled;
// the caller must not commit its text.
func (r *Relay) Stream(ctx context.Context, messages []conversation.Message, sink Sink) Result {
	start := time.Now()

	req := &providers.CompletionRequest{
		Model:       r.config.Model,
		Messages:    toProviderMessages(messages),
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxTokens,
	}

	stream, err := r.provider.StreamCompletion(ctx, req)
	if err != nil {
		return r.finish(ctx, start, Result{}, err, sink)
	}
	defer stream.Close()

	var (
		text   strings.Builder
		result Result
	)
	for {
		chunk, err := stream.Read(ctx)
		if errors.Is(err, io.EOF) {
			result.Text = text.String()
			result.Outcome = OutcomeCompleted
			break
		}
		if err != nil {
			result.Text = text.String()
			return r.finish(ctx, start, result, err, sink)
		}
		if chunk.Delta == "" {
			continue
		}

		if err := sink(chunk.Delta); err != nil {
			result.Text = text.String()
			result.Outcome = OutcomeCancelled
			result.Err = err
			break
		}
		text.WriteString(chunk.Delta)
		result.Chunks++
		r.metrics.RecordChunk()
	}

	return r.done(start, result)
}

// finish classifies a read or open error and produces the final result.
func (r *Relay) finish(ctx context.Context, start time.Time, result Result, err error, sink Sink) Result {
	if errors.Is(ctx.Err(), context.Canceled) {
		result.Outcome = OutcomeCancelled
		result.Err = ctx.Err()
		return r.done(start, result)
	}

	errorType := errorTypeOf(err)
	r.logger.ErrorContext(ctx, "upstream generation failed",
		"error", err,
		"error_type", errorType,
		"chunks_sent", result.Chunks,
		"partial_chars", len([]rune(result.Text)),
	)
	r.metrics.RecordUpstreamError(r.provider.GetName(), errorType)

	result.Err = err
	if sinkErr := sink(Apology); sinkErr != nil {
		result.Outcome = OutcomeCancelled
		return r.done(start, result)
	}
	result.Chunks++
	result.Text = Apology
	result.Outcome = OutcomeFailed
	return r.done(start, result)
}

// errorTypeOf classifies a failed generation for metrics and the ledger.
func errorTypeOf(err error) string {
	if errorType := providers.ErrorType(err); errorType != "" {
		return errorType
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "unknown"
}

func (r *Relay) done(start time.Time, result Result) Result {
	result.Duration = time.Since(start)
	r.metrics.RecordUpstreamCall(r.provider.GetName(), "stream", result.Duration)
	r.metrics.RecordRelayOutcome(string(result.Outcome))

	r.logger.Debug("relay finished",
		"outcome", result.Outcome,
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result
}

func toProviderMessages(messages []conversation.Message) []providers.Message {
	out := make([]providers.Message, len(messages))
	for i, m := range messages {
		out[i] = providers.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
