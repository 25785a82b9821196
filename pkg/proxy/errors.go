package proxy

import (
	"context"
	"errors"

	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/proxy/types"
)

// HandleError converts an error to an error response.
//
// Request errors become 400 responses that name the offending field.
// Everything else, upstream failures included, becomes a generic 500 whose
// code tells upstream timeouts and other upstream failures apart from
// internal ones. Upstream error text never reaches the client.
//
// Example usage:
//
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var timeoutErr *providers.TimeoutError
	switch {
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return types.NewServerError(types.CodeProviderTimeout)
	case providers.IsUpstreamError(err):
		return types.NewServerError(types.CodeProviderError)
	default:
		return types.NewServerError(types.CodeInternalError)
	}
}
