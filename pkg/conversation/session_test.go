package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

const testPersona = "You are a helpful research assistant."

func TestSession_New(t *testing.T) {
	s := NewSession("s1", testPersona, 20)

	msgs := s.Snapshot()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != testPersona {
		t.Errorf("unexpected system message: %+v", msgs[0])
	}
	if s.ID() != "s1" {
		t.Errorf("expected ID s1, got %q", s.ID())
	}
}

func TestSession_AppendBound(t *testing.T) {
	tests := []struct {
		appends int
		wantLen int
	}{
		{1, 2},
		{5, 6},
		{19, 20},
		{20, 20},
		{21, 20},
		{100, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d appends", tt.appends), func(t *testing.T) {
			s := NewSession("s", testPersona, 20)
			for i := 0; i < tt.appends; i++ {
				role := RoleUser
				if i%2 == 1 {
					role = RoleAssistant
				}
				s.Append(role, fmt.Sprintf("m%d", i))
			}

			msgs := s.Snapshot()
			if len(msgs) != tt.wantLen {
				t.Fatalf("expected length %d, got %d", tt.wantLen, len(msgs))
			}
			if msgs[0].Role != RoleSystem || msgs[0].Content != testPersona {
				t.Errorf("system message not preserved: %+v", msgs[0])
			}
			if last := msgs[len(msgs)-1].Content; last != fmt.Sprintf("m%d", tt.appends-1) {
				t.Errorf("expected newest message last, got %q", last)
			}
		})
	}
}

func TestSession_TrimDropsOldestNonSystem(t *testing.T) {
	s := NewSession("s", testPersona, 20)
	for i := 0; i < 19; i++ {
		s.Append(RoleUser, fmt.Sprintf("m%d", i))
	}
	if got := s.Snapshot()[1].Content; got != "m0" {
		t.Fatalf("expected m0 at position 1, got %q", got)
	}

	// The 21st message overall evicts the first non-system message.
	s.Append(RoleUser, "m19")

	msgs := s.Snapshot()
	if len(msgs) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "m1" {
		t.Errorf("expected m1 at position 1 after trim, got %q", msgs[1].Content)
	}
	for _, m := range msgs {
		if m.Content == "m0" {
			t.Error("m0 should have been evicted")
		}
	}
}

func TestSession_SnapshotIsIndependent(t *testing.T) {
	s := NewSession("s", testPersona, 20)
	s.Append(RoleUser, "hello")

	snap := s.Snapshot()
	snap[1].Content = "tampered"
	s.Append(RoleAssistant, "hi")

	if len(snap) != 2 {
		t.Errorf("snapshot changed length to %d", len(snap))
	}
	if got := s.Snapshot()[1].Content; got != "hello" {
		t.Errorf("session observed snapshot mutation: %q", got)
	}
}

func TestSession_Clear(t *testing.T) {
	s := NewSession("s", testPersona, 20)
	s.Append(RoleUser, "a")
	s.Append(RoleAssistant, "b")

	s.Clear()

	msgs := s.Snapshot()
	if len(msgs) != 1 || msgs[0].Role != RoleSystem || msgs[0].Content != testPersona {
		t.Errorf("unexpected log after Clear: %+v", msgs)
	}
}

func TestSession_AppendAtAfterClear(t *testing.T) {
	s := NewSession("s", testPersona, 20)
	gen := s.Append(RoleUser, "question")

	if !s.AppendAt(gen, RoleAssistant, "answer") {
		t.Fatal("append at the current generation was refused")
	}

	gen = s.Append(RoleUser, "another")
	s.Clear()

	if s.AppendAt(gen, RoleAssistant, "stale") {
		t.Error("append at a cleared generation was accepted")
	}
	if got := s.Len(); got != 1 {
		t.Errorf("expected only the system message, got %d messages", got)
	}

	if next := s.Append(RoleUser, "fresh"); next == gen {
		t.Error("Clear did not start a new generation")
	}
}

func TestSession_SmallBoundFallsBack(t *testing.T) {
	s := NewSession("s", testPersona, 1)
	for i := 0; i < 30; i++ {
		s.Append(RoleUser, "x")
	}
	if got := s.Len(); got != DefaultMaxMessages {
		t.Errorf("expected default bound %d, got %d", DefaultMaxMessages, got)
	}
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := NewSession("s", testPersona, 20)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(RoleUser, fmt.Sprintf("m%d", i))
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	msgs := s.Snapshot()
	if len(msgs) != 20 || msgs[0].Role != RoleSystem {
		t.Errorf("invariants broken after concurrent appends: len=%d first=%s", len(msgs), msgs[0].Role)
	}
}

func TestSession_AcquireSerializesTurns(t *testing.T) {
	s := NewSession("s", testPersona, 20)

	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if !s.Busy() {
		t.Error("expected session to be busy")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded while held, got %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		if err := s.Acquire(context.Background()); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second turn started before Release")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second turn did not start after Release")
	}
	s.Release()

	if s.Busy() {
		t.Error("expected session to be idle")
	}
}
