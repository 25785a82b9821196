// Package proxy holds the HTTP plumbing shared by the chat and copy
// handlers: request parsing, error mapping and response writing.
//
// # Requests
//
// ParseChatRequest and ParseCopyRequest read at most MaxRequestBodySize
// bytes (or the configured proxy.max_body_bytes), decode the JSON body and
// validate it. Every problem with a request comes back as a *RequestError
// naming the offending field:
//
//	{
//	  "error": {
//	    "message": "message is required",
//	    "type": "invalid_request_error",
//	    "param": "message",
//	    "code": "missing_field"
//	  }
//	}
//
// SessionID reads the X-Session-ID header. An absent header selects the
// default session.
//
// # Errors
//
// HandleError maps request errors to 400 and everything else to a generic
// 500. Upstream timeouts carry code provider_timeout and other upstream
// failures provider_error. Upstream messages are logged, never returned.
//
// # Streaming
//
// A chat reply is streamed as plain UTF-8 text through a TextStream, one
// flush per fragment:
//
//	HTTP/1.1 200 OK
//	Content-Type: text/plain; charset=utf-8
//	Trailer: X-Generation-Status
//
//	你好，有什么可以帮你的？
//
//	X-Generation-Status: completed
//
// The body carries no framing. A failed reply ends with the apology text
// and the trailer set to "failed".
package proxy
