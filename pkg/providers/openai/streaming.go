package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"mercator-hq/quill/pkg/providers"
)

// maxEventSize is the largest single SSE line accepted.
const maxEventSize = 1 << 20

// streamReader reads Server-Sent Events from a chat completion stream.
type streamReader struct {
	provider *providers.HTTPProvider
	body     io.ReadCloser
	scanner  *bufio.Scanner

	// stop detaches the context watcher once the stream is finished.
	stop func() bool

	closeOnce sync.Once
	done      bool

	// finished is set once an event carries a finish_reason.
	finished bool
}

// newStreamReader wraps an open stream body. When ctx is cancelled the body
// is closed, which unblocks a Read waiting on the network.
func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, body io.ReadCloser) *streamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	s := &streamReader{
		provider: provider,
		body:     body,
		scanner:  scanner,
	}
	s.stop = context.AfterFunc(ctx, func() { _ = s.Close() })
	return s
}

// Read returns the next non-empty text fragment.
// Events without text (role announcements, keep-alives, usage-only events)
// are consumed silently.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := s.scanner.Err(); err != nil {
				streamErr := &providers.StreamError{
					Provider: s.provider.GetName(),
					Message:  "failed to read stream",
					Cause:    err,
				}
				s.provider.RecordOutcome(streamErr)
				return nil, streamErr
			}
			if !s.finished {
				streamErr := &providers.StreamError{
					Provider: s.provider.GetName(),
					Message:  "stream ended before the reply was finished",
				}
				s.provider.RecordOutcome(streamErr)
				return nil, streamErr
			}
			return nil, s.finish()
		}

		line := s.scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// Blank separators, comments, event and id fields.
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil, s.finish()
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			parseErr := &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
			s.provider.RecordOutcome(parseErr)
			return nil, parseErr
		}

		if event.Error != nil {
			streamErr := &providers.StreamError{
				Provider: s.provider.GetName(),
				Message:  "upstream sent error event",
				Cause:    errors.New(event.Error.Message),
			}
			s.provider.RecordOutcome(streamErr)
			return nil, streamErr
		}

		if len(event.Choices) > 0 && event.Choices[0].FinishReason != "" {
			s.finished = true
		}
		if chunk := event.chunk(); chunk != nil {
			return chunk, nil
		}
	}
}

// finish marks a clean end of stream.
func (s *streamReader) finish() error {
	if !s.done {
		s.done = true
		s.provider.RecordOutcome(nil)
	}
	return io.EOF
}

// Close closes the stream and releases the connection.
func (s *streamReader) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		err = s.body.Close()
	})
	return err
}
