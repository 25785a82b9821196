package types

import "net/http"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message. It never carries upstream
	// error text.
	Message string `json:"message"`

	// Type categorizes the error and selects the HTTP status.
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Param names the request field that caused the error, if any.
	Param string `json:"param,omitempty"`
}

// Error types.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeNotFound indicates an unknown route (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeMethodNotAllowed indicates a wrong HTTP method (405).
	ErrorTypeMethodNotAllowed = "method_not_allowed"

	// ErrorTypeRateLimitExceeded indicates too many requests (429).
	ErrorTypeRateLimitExceeded = "rate_limit_exceeded"

	// ErrorTypeServerError indicates an internal or upstream failure (500).
	ErrorTypeServerError = "server_error"
)

// Error codes.
const (
	CodeMissingField     = "missing_field"
	CodeInvalidValue     = "invalid_value"
	CodeInvalidJSON      = "invalid_json"
	CodeRequestTooLarge  = "request_too_large"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodeProviderError    = "provider_error"
	CodeProviderTimeout  = "provider_timeout"
	CodeInternalError    = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(code string) *ErrorResponse {
	return NewErrorResponse("Internal server error", ErrorTypeServerError, "", code)
}

// NewRateLimitError creates an error response for rejected clients (429).
func NewRateLimitError() *ErrorResponse {
	return NewErrorResponse("Too many requests, please try again later.", ErrorTypeRateLimitExceeded, "", CodeRateLimited)
}

// NewMethodNotAllowedError creates an error response for a wrong method (405).
func NewMethodNotAllowedError(method string) *ErrorResponse {
	return NewErrorResponse("Method "+method+" not allowed", ErrorTypeMethodNotAllowed, "method", CodeMethodNotAllowed)
}

// NewNotFoundError creates an error response for an unknown route (404).
func NewNotFoundError(path string) *ErrorResponse {
	return NewErrorResponse("Route "+path+" not found", ErrorTypeNotFound, "", CodeNotFound)
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
