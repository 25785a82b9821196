package conversation

import (
	"context"
	"sync"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxMessages is the history bound used when none is configured.
const DefaultMaxMessages = 20

// Message is one entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the bounded message log of one conversation.
//
// Element 0 is always the system message carrying the persona and is never
// evicted. After every mutation the log holds at most maxMessages entries;
// when an append overflows it, the oldest non-system messages are dropped.
//
// Append, Snapshot and Clear are safe for concurrent use. Acquire and
// Release additionally serialize whole turns so that a second user message
// cannot be appended before the reply to the first. Clear does not wait for
// the slot; it bumps the generation instead, and AppendAt refuses writes
// stamped with an older one.
type Session struct {
	id          string
	persona     string
	maxMessages int

	mu          sync.Mutex
	messages    []Message
	lastTouched time.Time
	generation  uint64

	// slot holds a token while a turn is in flight.
	slot chan struct{}
}

// NewSession creates a session holding only the persona system message.
// maxMessages below 2 falls back to DefaultMaxMessages.
func NewSession(id, persona string, maxMessages int) *Session {
	if maxMessages < 2 {
		maxMessages = DefaultMaxMessages
	}
	s := &Session{
		id:          id,
		persona:     persona,
		maxMessages: maxMessages,
		slot:        make(chan struct{}, 1),
	}
	s.reset()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append adds a message at the end and trims the log to its bound. It
// returns the generation the message was written to.
func (s *Session) Append(role, content string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(role, content)
	return s.generation
}

// AppendAt appends like Append, but only while the log is still at
// generation. It reports whether the message was written.
func (s *Session) AppendAt(generation uint64, role, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		return false
	}
	s.appendLocked(role, content)
	return true
}

func (s *Session) appendLocked(role, content string) {
	s.messages = append(s.messages, Message{Role: role, Content: content})
	if len(s.messages) > s.maxMessages {
		// Keep the system message and the most recent maxMessages-1 entries.
		keep := s.maxMessages - 1
		trimmed := make([]Message, 0, s.maxMessages)
		trimmed = append(trimmed, s.messages[0])
		trimmed = append(trimmed, s.messages[len(s.messages)-keep:]...)
		s.messages = trimmed
	}
	s.lastTouched = time.Now()
}

// Snapshot returns an independent copy of the log.
func (s *Session) Snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	s.lastTouched = time.Now()
	return out
}

// Len returns the number of messages, including the system message.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Clear resets the log to a single fresh system message and starts a new
// generation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.reset()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastTouched = time.Now()
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.messages = []Message{{Role: RoleSystem, Content: s.persona}}
	s.lastTouched = time.Now()
}

// Acquire reserves the session for one turn, waiting while another turn is
// in flight. It returns ctx.Err() if ctx ends first.
func (s *Session) Acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release ends a turn started with Acquire.
func (s *Session) Release() {
	select {
	case <-s.slot:
	default:
	}
}

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	return len(s.slot) > 0
}

// LastTouched returns the time of the last read or mutation.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}
