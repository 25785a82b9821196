// Package relay forwards streamed model replies to HTTP clients.
//
// Relay.Stream pulls fragments from the upstream one at a time and hands
// each to a Sink before reading the next, so the client sees text in the
// order the model produced it with no buffering in between.
//
// # Failures
//
// The client never sees a raw upstream error. Whether the upstream fails
// before the first fragment or in the middle of a reply, the relay logs the
// error and sends one fixed Apology fragment instead. Fragments already
// delivered stay delivered.
//
// # Cancellation
//
// When the request context is cancelled, or the Sink reports a write
// failure, the relay closes the upstream stream and returns
// OutcomeCancelled.
//
// # Turns
//
// Agent.Respond wraps a relay in the conversation bookkeeping of one chat
// turn. It appends the user message, streams the reply over a snapshot of
// the session, and appends the reply (or the apology) for the assistant.
package relay
