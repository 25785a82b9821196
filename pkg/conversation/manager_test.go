package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/scheduler"
	"mercator-hq/quill/pkg/telemetry/logging"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

func testManager(ttl time.Duration) (*Manager, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, registry)
	m := NewManager(Config{
		MaxMessages:  20,
		SystemPrompt: testPersona,
		IdleTTL:      ttl,
		ReapSchedule: "@every 5m",
	}, logging.Discard(), collector)
	return m, registry
}

func activeSessions(t *testing.T, registry *prometheus.Registry) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "test_active_sessions" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("test_active_sessions not found")
	return 0
}

func TestManager_Default(t *testing.T) {
	m, registry := testManager(time.Hour)

	if m.Get("") != m.Default() {
		t.Error("empty ID should select the default session")
	}
	if m.Get(DefaultSessionID) != m.Default() {
		t.Error("default ID should select the default session")
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 session, got %d", m.Count())
	}
	if got := activeSessions(t, registry); got != 1 {
		t.Errorf("expected active_sessions 1, got %v", got)
	}
}

func TestManager_GetCreatesOnce(t *testing.T) {
	m, registry := testManager(time.Hour)

	a := m.Get("alpha")
	a.Append(RoleUser, "hi")

	if m.Get("alpha") != a {
		t.Error("Get returned a different session for the same ID")
	}
	if m.Get("beta") == a {
		t.Error("sessions with different IDs must be distinct")
	}
	if m.Count() != 3 {
		t.Errorf("expected 3 sessions, got %d", m.Count())
	}
	if got := activeSessions(t, registry); got != 3 {
		t.Errorf("expected active_sessions 3, got %v", got)
	}
}

func TestManager_Create(t *testing.T) {
	m, _ := testManager(time.Hour)

	s1 := m.Create()
	s2 := m.Create()
	if s1.ID() == s2.ID() {
		t.Error("expected distinct generated IDs")
	}
	if len(s1.ID()) != 36 {
		t.Errorf("expected UUID session ID, got %q", s1.ID())
	}
}

func TestManager_Delete(t *testing.T) {
	m, _ := testManager(time.Hour)

	m.Get("alpha")
	if !m.Delete("alpha") {
		t.Error("expected Delete to remove alpha")
	}
	if m.Delete("alpha") {
		t.Error("second Delete should report false")
	}

	m.Default().Append(RoleUser, "x")
	if !m.Delete("") {
		t.Error("deleting the default session should clear it")
	}
	if m.Default().Len() != 1 {
		t.Error("default session was not cleared")
	}
	if m.Count() != 1 {
		t.Errorf("expected only the default session, got %d", m.Count())
	}
}

func TestManager_Reap(t *testing.T) {
	m, registry := testManager(time.Minute)

	m.Get("idle")
	busy := m.Get("busy")
	if err := busy.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer busy.Release()

	// Nothing is idle yet.
	if removed := m.Reap(time.Now()); removed != 0 {
		t.Errorf("expected no sessions reaped, got %d", removed)
	}

	removed := m.Reap(time.Now().Add(2 * time.Minute))
	if removed != 1 {
		t.Fatalf("expected 1 session reaped, got %d", removed)
	}
	if hasSession(m, "idle") {
		t.Error("idle session should be gone")
	}
	if !hasSession(m, "busy") {
		t.Error("busy session must be kept")
	}
	if !hasSession(m, DefaultSessionID) {
		t.Error("default session must never be reaped")
	}
	if got := activeSessions(t, registry); got != 2 {
		t.Errorf("expected active_sessions 2, got %v", got)
	}
}

func TestManager_GetKeepsSessionAlive(t *testing.T) {
	m, _ := testManager(time.Minute)

	s := m.Get("alpha")
	s.mu.Lock()
	s.lastTouched = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	// A request resolving the session just before the sweep keeps it.
	if m.Get("alpha") != s {
		t.Fatal("Get returned a different session")
	}
	if removed := m.Reap(time.Now()); removed != 0 {
		t.Errorf("session resolved by Get was reaped, removed %d", removed)
	}
	if !hasSession(m, "alpha") {
		t.Error("alpha should still be live")
	}
}

func TestManager_ReapDisabled(t *testing.T) {
	m, _ := testManager(0)
	m.Get("old")

	if removed := m.Reap(time.Now().Add(24 * time.Hour)); removed != 0 {
		t.Errorf("reaping should be disabled, removed %d", removed)
	}

	s := scheduler.New(logging.Discard())
	if err := m.Schedule(s); err != nil {
		t.Fatal(err)
	}
	if s.Jobs() != 0 {
		t.Error("no job should be scheduled without an idle TTL")
	}
}

func TestManager_Schedule(t *testing.T) {
	m, _ := testManager(time.Hour)

	s := scheduler.New(logging.Discard())
	if err := m.Schedule(s); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if s.Jobs() != 1 {
		t.Errorf("expected 1 scheduled job, got %d", s.Jobs())
	}
}

func hasSession(m *Manager, id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok
}
