// Package conversation keeps bounded, in-memory chat histories.
//
// A Session is an ordered message log that always starts with the persona
// system message. Once a log exceeds its bound, each append drops the
// oldest non-system message, so the model always sees the persona plus the
// most recent exchanges.
//
// The Manager maps session IDs to sessions. Callers that do not name a
// session share the default one. Sessions left idle longer than the
// configured TTL are removed by a scheduled sweep; nothing is persisted.
//
// # Turns
//
// A chat turn reads the log, streams a reply and appends it. Acquire and
// Release bracket the turn so that concurrent requests on one session are
// answered in order:
//
//	if err := session.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer session.Release()
//
//	gen := session.Append(conversation.RoleUser, input)
//	reply := generate(session.Snapshot())
//	session.AppendAt(gen, conversation.RoleAssistant, reply)
//
// AppendAt drops the reply when the session was cleared mid-turn.
package conversation
