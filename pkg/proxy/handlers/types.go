package handlers

import (
	"context"

	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/relay"
)

// SessionStore resolves the session a request talks to.
type SessionStore interface {
	Get(id string) *conversation.Session
}

// Responder runs one chat turn on a session, streaming the reply to sink.
type Responder interface {
	Respond(ctx context.Context, session *conversation.Session, input string, sink relay.Sink) relay.Result
}

// CopyGenerator produces one finished copy for a scene.
type CopyGenerator interface {
	Generate(ctx context.Context, req copywriter.SceneRequest) (*copywriter.Copy, error)
}
