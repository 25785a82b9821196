package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/quill/pkg/scheduler"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// DefaultSessionID names the shared session used when a caller supplies no
// session identifier.
const DefaultSessionID = "default"

// Config holds the conversation settings.
type Config struct {
	// MaxMessages bounds each session's log, system message included.
	MaxMessages int

	// SystemPrompt is the persona placed at the head of every session.
	SystemPrompt string

	// IdleTTL is how long an untouched session is kept. Zero disables reaping.
	IdleTTL time.Duration

	// ReapSchedule is the cron schedule of the idle sweep.
	ReapSchedule string
}

// Manager is the registry of live sessions.
type Manager struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.Collector

	mu       sync.RWMutex
	sessions map[string]*Session
	def      *Session
}

// NewManager creates a manager holding only the default session.
func NewManager(cfg Config, logger *slog.Logger, collector *metrics.Collector) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		config:   cfg,
		logger:   logger.With("component", "conversation"),
		metrics:  collector,
		sessions: make(map[string]*Session),
	}
	m.def = NewSession(DefaultSessionID, cfg.SystemPrompt, cfg.MaxMessages)
	m.sessions[DefaultSessionID] = m.def
	m.metrics.SetActiveSessions(1)
	return m
}

// Default returns the shared session.
func (m *Manager) Default() *Session {
	return m.def
}

// Get returns the session with the given ID, creating it if needed. An
// empty ID selects the default session.
func (m *Manager) Get(id string) *Session {
	if id == "" || id == DefaultSessionID {
		return m.def
	}

	// Touch under the read lock so Reap cannot drop the session before the
	// caller uses it.
	m.mu.RLock()
	s, ok := m.sessions[id]
	if ok {
		s.touch()
	}
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = NewSession(id, m.config.SystemPrompt, m.config.MaxMessages)
	m.sessions[id] = s
	m.metrics.SetActiveSessions(len(m.sessions))
	m.logger.Debug("session created", "session_id", id)
	return s
}

// Create starts a session under a freshly generated ID.
func (m *Manager) Create() *Session {
	return m.Get(uuid.NewString())
}

// Delete removes a session. The default session cannot be deleted; it is
// cleared instead.
func (m *Manager) Delete(id string) bool {
	if id == "" || id == DefaultSessionID {
		m.def.Clear()
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.metrics.SetActiveSessions(len(m.sessions))
	return true
}

// Count returns the number of live sessions, the default one included.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap drops sessions untouched since now minus IdleTTL. The default
// session and sessions with a turn in flight are kept. It returns the
// number of sessions removed.
func (m *Manager) Reap(now time.Time) int {
	if m.config.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.config.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s == m.def || s.Busy() {
			continue
		}
		if s.LastTouched().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.metrics.SetActiveSessions(len(m.sessions))
		m.logger.Info("idle sessions reaped",
			"removed", removed,
			"remaining", len(m.sessions),
		)
	}
	return removed
}

// Schedule registers the idle sweep with s.
func (m *Manager) Schedule(s *scheduler.Scheduler) error {
	if m.config.IdleTTL <= 0 {
		return nil
	}
	return s.Add("conversation.reap", m.config.ReapSchedule, func(context.Context) error {
		m.Reap(time.Now())
		return nil
	})
}
