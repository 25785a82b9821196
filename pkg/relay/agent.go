package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/ledger"
	"mercator-hq/quill/pkg/telemetry/logging"
)

// Agent runs chat turns against sessions.
type Agent struct {
	relay    *Relay
	recorder *ledger.Recorder
	logger   *slog.Logger
}

// NewAgent creates an agent. recorder may be nil.
func NewAgent(relay *Relay, recorder *ledger.Recorder, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		relay:    relay,
		recorder: recorder,
		logger:   logger.With("component", "agent"),
	}
}

// Respond runs one turn: it appends input as a user message, streams the
// reply to sink and appends the reply as an assistant message.
//
// Turns on the same session run one at a time. On OutcomeFailed the apology
// is appended in place of the reply. On OutcomeCancelled nothing is
// appended for the assistant; the user message stays. A turn whose deadline
// passes while it waits for the session fails with the apology and leaves
// the history untouched. A reply finishing after the session was cleared is
// not appended.
func (a *Agent) Respond(ctx context.Context, session *conversation.Session, input string, sink Sink) Result {
	ctx = logging.WithSessionID(ctx, session.ID())

	if err := session.Acquire(ctx); err != nil {
		result := a.abandon(ctx, err, sink)
		a.record(ctx, session, input, result)
		return result
	}
	defer session.Release()

	a.logger.InfoContext(ctx, "chat turn started",
		"input", logging.Truncate(input, logging.MaxContentLogLength),
		"history", session.Len(),
	)

	generation := session.Append(conversation.RoleUser, input)
	result := a.relay.Stream(ctx, session.Snapshot(), sink)

	switch result.Outcome {
	case OutcomeCompleted, OutcomeFailed:
		if !session.AppendAt(generation, conversation.RoleAssistant, result.Text) {
			a.logger.InfoContext(ctx, "session cleared during turn, reply not kept")
		}
	}

	a.logger.InfoContext(ctx, "chat turn finished",
		"outcome", result.Outcome,
		"chunks", result.Chunks,
		"output", logging.Truncate(result.Text, logging.MaxContentLogLength),
		"duration", result.Duration,
	)

	a.record(ctx, session, input, result)
	return result
}

// abandon ends a turn that never got the session slot.
func (a *Agent) abandon(ctx context.Context, err error, sink Sink) Result {
	start := time.Now()
	result := Result{Outcome: OutcomeCancelled, Err: err}

	if errors.Is(err, context.DeadlineExceeded) {
		a.logger.WarnContext(ctx, "turn timed out waiting for session", "error", err)
		if sink(Apology) == nil {
			result.Outcome = OutcomeFailed
			result.Text = Apology
			result.Chunks = 1
		}
	} else {
		a.logger.DebugContext(ctx, "turn abandoned while waiting for session", "error", err)
	}

	result.Duration = time.Since(start)
	a.relay.metrics.RecordRelayOutcome(string(result.Outcome))
	return result
}

func (a *Agent) record(ctx context.Context, session *conversation.Session, input string, result Result) {
	status := string(result.Outcome)
	var errorType string
	if result.Outcome == OutcomeFailed {
		errorType = errorTypeOf(result.Err)
	}

	a.recorder.Record(&ledger.Record{
		RequestID:   logging.GetRequestID(ctx),
		Kind:        ledger.KindChat,
		SessionID:   session.ID(),
		Model:       a.relay.config.Model,
		Status:      status,
		ErrorType:   errorType,
		InputChars:  len([]rune(input)),
		OutputChars: len([]rune(result.Text)),
		Chunks:      result.Chunks,
		CreatedAt:   time.Now(),
		Latency:     result.Duration,
	})
}
