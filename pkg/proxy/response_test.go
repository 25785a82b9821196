package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/proxy/types"
)

func TestWriteJSONResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       interface{}
		wantStatus int
	}{
		{
			name:       "clear response",
			statusCode: http.StatusOK,
			data:       types.ClearResponse{Success: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "copy response",
			statusCode: http.StatusOK,
			data:       types.CopyResponse{Copy: "✨ 成都必吃面馆 ✨"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := WriteJSONResponse(w, tt.statusCode, tt.data)
			if err != nil {
				t.Errorf("WriteJSONResponse() error = %v", err)
			}

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %v, want %v", w.Code, tt.wantStatus)
			}

			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("Content-Type = %v, want application/json", contentType)
			}

			var result map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				t.Errorf("Response is not valid JSON: %v", err)
			}
		})
	}
}

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        *types.ErrorResponse
		wantStatus int
	}{
		{
			name:       "invalid request",
			err:        types.NewInvalidRequestError("message is required", "message", types.CodeMissingField),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "method not allowed",
			err:        types.NewMethodNotAllowedError(http.MethodGet),
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "rate limited",
			err:        types.NewRateLimitError(),
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "server error",
			err:        types.NewServerError(types.CodeProviderError),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown type",
			err:        types.NewErrorResponse("odd", "unknown", "", "odd"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			if err := WriteErrorResponse(w, tt.err); err != nil {
				t.Fatalf("WriteErrorResponse() error = %v", err)
			}

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %v, want %v", w.Code, tt.wantStatus)
			}

			var errResp types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("Response is not valid JSON: %v", err)
			}
			if errResp.Error.Message != tt.err.Error.Message {
				t.Errorf("Error message = %v, want %v", errResp.Error.Message, tt.err.Error.Message)
			}
			if errResp.Error.Code != tt.err.Error.Code {
				t.Errorf("Error code = %v, want %v", errResp.Error.Code, tt.err.Error.Code)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "request error",
			err:        &RequestError{Message: "message is required", Code: types.CodeMissingField, Param: "message"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeMissingField,
		},
		{
			name:       "wrapped upstream timeout",
			err:        fmt.Errorf("generate copy: %w", &providers.TimeoutError{Provider: "deepseek"}),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeProviderTimeout,
		},
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("generate copy: %w", context.DeadlineExceeded),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeProviderTimeout,
		},
		{
			name:       "upstream rejection",
			err:        &providers.AuthError{Provider: "deepseek", Message: "invalid api key"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeProviderError,
		},
		{
			name:       "upstream server error",
			err:        &providers.ProviderError{Provider: "deepseek", StatusCode: 502, Message: "bad gateway"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeProviderError,
		},
		{
			name:       "internal error",
			err:        errors.New("ledger closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := HandleError(tt.err)
			if got := resp.Error.HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.Error.Message != "Internal server error" {
				t.Errorf("message = %q, upstream detail leaked", resp.Error.Message)
			}
		})
	}
}

func TestTextStream(t *testing.T) {
	w := httptest.NewRecorder()
	stream := NewTextStream(w)

	for _, fragment := range []string{"你好", "，", "世界"} {
		if err := stream.Write(fragment); err != nil {
			t.Fatalf("Write(%q) error = %v", fragment, err)
		}
	}
	stream.Finish("completed")

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if !w.Flushed {
		t.Error("fragments were not flushed")
	}
	if got := w.Body.String(); got != "你好，世界" {
		t.Errorf("body = %q, want %q", got, "你好，世界")
	}
	if got := resp.Trailer.Get(GenerationStatusTrailer); got != "completed" {
		t.Errorf("trailer = %q, want completed", got)
	}
}

func TestTextStream_FinishWithoutFragments(t *testing.T) {
	w := httptest.NewRecorder()
	stream := NewTextStream(w)
	stream.Finish("failed")

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if got := resp.Trailer.Get(GenerationStatusTrailer); got != "failed" {
		t.Errorf("trailer = %q, want failed", got)
	}
}
