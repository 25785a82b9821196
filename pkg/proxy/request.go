package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"mercator-hq/quill/pkg/proxy/types"
)

const (
	// MaxRequestBodySize is the default request body limit (1 MiB).
	MaxRequestBodySize = 1 << 20

	// SessionIDHeader selects the conversation session.
	SessionIDHeader = "X-Session-ID"

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// MaxSessionIDLength bounds the X-Session-ID header.
	MaxSessionIDLength = 128
)

// ParseChatRequest reads and validates a chat request body of at most
// maxBytes bytes (MaxRequestBodySize when maxBytes <= 0).
//
// Example usage:
//
//	req, err := ParseChatRequest(r, 0)
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func ParseChatRequest(r *http.Request, maxBytes int64) (*types.ChatRequest, error) {
	var req types.ChatRequest
	if err := decodeBody(r, maxBytes, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, asRequestError(err)
	}
	return &req, nil
}

// ParseCopyRequest reads and validates a copy request body.
func ParseCopyRequest(r *http.Request, maxBytes int64) (*types.CopyRequest, error) {
	var req types.CopyRequest
	if err := decodeBody(r, maxBytes, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, asRequestError(err)
	}
	return &req, nil
}

// decodeBody reads at most maxBytes from the body and decodes it into v.
func decodeBody(r *http.Request, maxBytes int64, v interface{}) error {
	if maxBytes <= 0 {
		maxBytes = MaxRequestBodySize
	}

	// Read one byte past the limit to detect oversize bodies.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		var valErr *types.ValidationError
		if errors.As(err, &valErr) {
			return asRequestError(valErr)
		}
		return &RequestError{
			Message: "request body must be a JSON object",
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return nil
}

// SessionID returns the session selected by the X-Session-ID header, or ""
// for the default session.
func SessionID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(SessionIDHeader))
	if len(id) > MaxSessionIDLength {
		return "", &RequestError{
			Message: fmt.Sprintf("%s must be at most %d bytes", SessionIDHeader, MaxSessionIDLength),
			Code:    types.CodeInvalidValue,
			Param:   SessionIDHeader,
		}
	}
	for _, c := range id {
		if !unicode.IsPrint(c) {
			return "", &RequestError{
				Message: SessionIDHeader + " contains invalid characters",
				Code:    types.CodeInvalidValue,
				Param:   SessionIDHeader,
			}
		}
	}
	return id, nil
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}

func asRequestError(err error) error {
	var valErr *types.ValidationError
	if errors.As(err, &valErr) {
		return &RequestError{
			Message: valErr.Message,
			Code:    valErr.Code,
			Param:   valErr.Field,
		}
	}
	return err
}
