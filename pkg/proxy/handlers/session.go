package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/types"
)

// HistoryHandler serves GET /history: the session's messages, system
// message first.
type HistoryHandler struct {
	sessions SessionStore
	logger   *slog.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(sessions SessionStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{sessions: sessions, logger: loggerOrDefault(logger).With("handler", "history")}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	sessionID, err := proxy.SessionID(r)
	if err != nil {
		writeError(w, r, proxy.HandleError(err), h.logger)
		return
	}

	session := h.sessions.Get(sessionID)
	w.Header().Set(proxy.SessionIDHeader, session.ID())
	writeJSON(w, r, session.Snapshot(), h.logger)
}

// ClearHandler serves POST /clear, resetting the session to its persona.
type ClearHandler struct {
	sessions SessionStore
	logger   *slog.Logger
}

// NewClearHandler creates a clear handler.
func NewClearHandler(sessions SessionStore, logger *slog.Logger) *ClearHandler {
	return &ClearHandler{sessions: sessions, logger: loggerOrDefault(logger).With("handler", "clear")}
}

func (h *ClearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	sessionID, err := proxy.SessionID(r)
	if err != nil {
		writeError(w, r, proxy.HandleError(err), h.logger)
		return
	}

	session := h.sessions.Get(sessionID)
	session.Clear()
	h.logger.InfoContext(r.Context(), "session cleared", "session_id", session.ID())

	w.Header().Set(proxy.SessionIDHeader, session.ID())
	writeJSON(w, r, types.ClearResponse{Success: true}, h.logger)
}
