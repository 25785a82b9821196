package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/quill/pkg/proxy"
)

// ChatHandler serves POST /chat. The reply is streamed as plain text and
// its final status is sent in the X-Generation-Status trailer.
type ChatHandler struct {
	sessions SessionStore
	agent    Responder
	maxBody  int64
	logger   *slog.Logger
}

// NewChatHandler creates a chat handler. maxBody <= 0 selects
// proxy.MaxRequestBodySize.
func NewChatHandler(sessions SessionStore, agent Responder, maxBody int64, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		agent:    agent,
		maxBody:  maxBody,
		logger:   loggerOrDefault(logger).With("handler", "chat"),
	}
}

// ServeHTTP validates the request before any upstream call. Once streaming
// has started the status code is 200 whatever happens upstream.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	sessionID, err := proxy.SessionID(r)
	if err != nil {
		writeError(w, r, proxy.HandleError(err), h.logger)
		return
	}

	chatReq, err := proxy.ParseChatRequest(r, h.maxBody)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected chat request", "error", err)
		writeError(w, r, proxy.HandleError(err), h.logger)
		return
	}

	session := h.sessions.Get(sessionID)
	w.Header().Set(proxy.SessionIDHeader, session.ID())

	stream := proxy.NewTextStream(w)
	result := h.agent.Respond(ctx, session, chatReq.Message, stream.Write)
	stream.Finish(string(result.Outcome))
}
