package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockServer is a fake DeepSeek endpoint. Replies are configured per path
// and every request body and header set is kept for inspection.
type MockServer struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	bodies    [][]byte
	headers   []http.Header
}

// MockResponse describes one canned reply. A reply with StreamEvents or
// Hold is sent as Server-Sent Events, anything else as a plain body.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string

	// StreamEvents are written as "data:" lines.
	StreamEvents []string

	// OmitDone leaves out the closing "data: [DONE]".
	OmitDone bool

	// AbortAfter > 0 cuts the connection after that many events.
	AbortAfter int

	// Hold keeps the stream open until the client disconnects.
	Hold bool
}

func NewMockServer() *MockServer {
	ms := &MockServer{responses: make(map[string]MockResponse)}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.serve))
	return ms
}

func (ms *MockServer) URL() string { return ms.server.URL }

func (ms *MockServer) Close() {
	ms.server.CloseClientConnections()
	ms.server.Close()
}

func (ms *MockServer) SetResponse(path string, r MockResponse) {
	ms.mu.Lock()
	ms.responses[path] = r
	ms.mu.Unlock()
}

// GetRequestCount returns how many requests arrived on any path.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.bodies)
}

// LastRequest decodes the newest request body into v.
func (ms *MockServer) LastRequest(v any) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.bodies) == 0 {
		return errors.New("mock server: no requests yet")
	}
	return json.Unmarshal(ms.bodies[len(ms.bodies)-1], v)
}

// LastHeader returns header key of the newest request.
func (ms *MockServer) LastHeader(key string) string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.headers) == 0 {
		return ""
	}
	return ms.headers[len(ms.headers)-1].Get(key)
}

func (ms *MockServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.bodies = append(ms.bodies, body)
	ms.headers = append(ms.headers, r.Header.Clone())
	reply, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if reply.Delay > 0 {
		t := time.NewTimer(reply.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-r.Context().Done():
			return
		}
	}
	for k, v := range reply.Headers {
		w.Header().Set(k, v)
	}

	if reply.Hold || len(reply.StreamEvents) > 0 {
		ms.stream(w, r, reply)
		return
	}

	status := reply.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	switch b := reply.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, b)
	case []byte:
		_, _ = w.Write(b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

func (ms *MockServer) stream(w http.ResponseWriter, r *http.Request, reply MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	rc := http.NewResponseController(w)

	for i, ev := range reply.StreamEvents {
		if reply.AbortAfter > 0 && i == reply.AbortAfter {
			dropConnection(rc)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", ev)
		_ = rc.Flush()
	}

	switch {
	case reply.AbortAfter > 0:
		dropConnection(rc)
	case reply.Hold:
		<-r.Context().Done()
	case !reply.OmitDone:
		io.WriteString(w, "data: [DONE]\n\n")
		_ = rc.Flush()
	}
}

// dropConnection closes the TCP connection without ending the body.
func dropConnection(rc *http.ResponseController) {
	conn, _, err := rc.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

type mockMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

type mockChoice struct {
	Index        int          `json:"index"`
	Message      *mockMessage `json:"message,omitempty"`
	Delta        *mockMessage `json:"delta,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

type mockCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []mockChoice `json:"choices"`
	Usage   *mockUsage   `json:"usage,omitempty"`
}

type mockUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MockChatResponse is a finished completion whose only choice says content.
func MockChatResponse(content, model string) any {
	return mockCompletion{
		ID:      "chatcmpl-mock",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []mockChoice{{
			Message:      &mockMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: &mockUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

// MockStreamEvent is one stream chunk with the given delta text.
func MockStreamEvent(delta, finishReason string) string {
	b, _ := json.Marshal(mockCompletion{
		ID:      "chatcmpl-mock",
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   "deepseek-chat",
		Choices: []mockChoice{{Delta: &mockMessage{Content: delta}, FinishReason: finishReason}},
	})
	return string(b)
}

// MockStreamEvents returns one chunk per fragment.
func MockStreamEvents(fragments ...string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = MockStreamEvent(f, "")
	}
	return out
}

type mockError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code,omitempty"`
}

// MockStreamErrorEvent is an error object sent in place of a chunk.
func MockStreamErrorEvent(message string) string {
	b, _ := json.Marshal(struct {
		Error mockError `json:"error"`
	}{mockError{Message: message, Type: "server_error"}})
	return string(b)
}

// MockErrorResponse is a non-2xx reply in the upstream's error shape.
func MockErrorResponse(status int, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body: struct {
			Error mockError `json:"error"`
		}{mockError{Message: message, Type: "invalid_request_error", Code: status}},
	}
}

func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Authentication Fails (no such user)")
}

// MockRateLimitError is a 429 carrying Retry-After in seconds.
func MockRateLimitError(retryAfter int) MockResponse {
	r := MockErrorResponse(http.StatusTooManyRequests, "Rate limit reached for requests")
	r.Headers = map[string]string{"Retry-After": strconv.Itoa(retryAfter)}
	return r
}

func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Service is too busy")
}
