// Package handlers provides the HTTP endpoint handlers.
//
//	POST /chat                 ChatHandler     streamed reply, plain text
//	GET  /history              HistoryHandler  session messages as JSON
//	POST /clear                ClearHandler    reset the session
//	POST /xiaohongshu/copy     CopyHandler     one generated copy
//	GET  /xiaohongshu/scenes   ScenesHandler   scene catalogue
//
// Chat, history and clear act on the session named by X-Session-ID, or on
// the default session when the header is absent. The resolved session ID
// is echoed in the response.
//
// Every handler checks its method first (405 otherwise) and validates the
// request before calling the model, so a rejected request never reaches
// upstream. Errors use the JSON error body of package proxy.
//
// # Streaming
//
// ChatHandler answers 200 as soon as the request is valid. Upstream
// failures after that point are not HTTP errors: the client receives the
// apology text and the X-Generation-Status trailer says "failed".
package handlers
