// Package types defines the JSON bodies exchanged on Quill's HTTP endpoints.
//
// Request types decode themselves strictly: a field with the wrong JSON type
// yields a *ValidationError naming the field, so the HTTP layer can reject
// the request before anything reaches the upstream model.
//
// Request types:
//   - ChatRequest: body of POST /chat
//   - CopyRequest: body of POST /xiaohongshu/copy ("fields" is accepted as an
//     alias of "config")
//
// Response types:
//   - ClearResponse, CopyResponse, ScenesResponse
//   - ErrorResponse: {"error": {"message", "type", "code", "param"}}
package types
