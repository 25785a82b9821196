package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/quill/pkg/proxy/types"
)

// GenerationStatusTrailer is the trailer that reports how a streamed reply
// ended: "completed", "failed" or "cancelled".
const GenerationStatusTrailer = "X-Generation-Status"

// WriteJSONResponse writes a JSON response to the HTTP response writer.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes an error response with the status code that
// matches its type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}

// TextStream writes a reply as unframed UTF-8 text, flushing after every
// fragment. The final status is sent in the GenerationStatusTrailer trailer.
type TextStream struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

// NewTextStream prepares w for a streamed text reply. Nothing is written
// until the first fragment or Finish.
func NewTextStream(w http.ResponseWriter) *TextStream {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Trailer", GenerationStatusTrailer)

	return &TextStream{w: w, rc: http.NewResponseController(w)}
}

func (s *TextStream) start() {
	if !s.started {
		s.started = true
		s.w.WriteHeader(http.StatusOK)
	}
}

// Write sends one fragment and flushes it to the client.
func (s *TextStream) Write(fragment string) error {
	s.start()
	if _, err := io.WriteString(s.w, fragment); err != nil {
		return fmt.Errorf("failed to write fragment: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush fragment: %w", err)
	}
	return nil
}

// Finish records the final status in the trailer.
func (s *TextStream) Finish(status string) {
	s.start()
	s.w.Header().Set(GenerationStatusTrailer, status)
}
