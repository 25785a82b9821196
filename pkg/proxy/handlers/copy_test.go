package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	testhelpers "mercator-hq/quill/internal/providers"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/proxy/types"
	"mercator-hq/quill/pkg/telemetry/logging"
)

func newCopyHandler(scripts ...testhelpers.Script) (*CopyHandler, *testhelpers.ScriptedProvider) {
	p := testhelpers.NewScriptedProvider(scripts...)
	svc := copywriter.NewService(p, config.CopywriterConfig{
		Model:        config.DefaultCopywriterModel,
		Temperature:  config.DefaultCopywriterTemperature,
		MaxTokens:    config.DefaultCopywriterMaxTokens,
		SystemPrompt: config.DefaultCopywriterSystemPrompt,
	}, nil, logging.Discard(), nil)
	return NewCopyHandler(svc, 0, logging.Discard()), p
}

func postCopy(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/xiaohongshu/copy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCopyHandler(t *testing.T) {
	h, p := newCopyHandler(testhelpers.Script{Fragments: []string{"✨ 大理慢生活 ✨"}})

	w := postCopy(h, `{"scene":"travel","config":{"destination":"大理","duration":"5"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp types.CopyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Copy != "✨ 大理慢生活 ✨" {
		t.Errorf("copy = %q", resp.Copy)
	}

	reqs := p.Requests()
	if len(reqs) != 1 {
		t.Fatalf("upstream calls = %d, want 1", len(reqs))
	}
	prompt := reqs[0].Messages[1].Content
	for _, want := range []string{"大理", "5天"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCopyHandler_FieldsAlias(t *testing.T) {
	h, p := newCopyHandler(testhelpers.Script{Fragments: []string{"ok"}})

	w := postCopy(h, `{"scene":"food","fields":{"restaurantName":"老王面馆"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if prompt := p.Requests()[0].Messages[1].Content; !strings.Contains(prompt, "老王面馆") {
		t.Errorf("prompt missing alias field value:\n%s", prompt)
	}
}

func TestCopyHandler_UnknownScene(t *testing.T) {
	h, p := newCopyHandler(testhelpers.Script{Fragments: []string{"ok"}})

	w := postCopy(h, `{"scene":"not-a-real-scene","config":{}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if prompt := p.Requests()[0].Messages[1].Content; prompt != copywriter.DefaultPrompt {
		t.Errorf("prompt = %q, want default prompt", prompt)
	}
}

func TestCopyHandler_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantParam string
	}{
		{name: "missing scene", body: `{"config":{}}`, wantParam: "scene"},
		{name: "non-string scene", body: `{"scene":3,"config":{}}`, wantParam: "scene"},
		{name: "missing config", body: `{"scene":"food"}`, wantParam: "config"},
		{name: "config array", body: `{"scene":"food","config":["a"]}`, wantParam: "config"},
		{name: "non-string value", body: `{"scene":"fitness","config":{"duration":30}}`, wantParam: "config.duration"},
		{name: "not json", body: `scene=food`, wantParam: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, p := newCopyHandler(testhelpers.Script{Fragments: []string{"unused"}})

			w := postCopy(h, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			resp := decodeError(t, w)
			if resp.Error.Type != types.ErrorTypeInvalidRequest {
				t.Errorf("type = %q, want %q", resp.Error.Type, types.ErrorTypeInvalidRequest)
			}
			if resp.Error.Param != tt.wantParam {
				t.Errorf("param = %q, want %q", resp.Error.Param, tt.wantParam)
			}
			if n := len(p.Requests()); n != 0 {
				t.Errorf("upstream called %d times for a rejected request", n)
			}
		})
	}
}

func TestCopyHandler_UpstreamFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "rejected", err: &providers.RateLimitError{Provider: "deepseek"}, wantCode: types.CodeProviderError},
		{name: "timed out", err: &providers.TimeoutError{Provider: "deepseek"}, wantCode: types.CodeProviderTimeout},
		{name: "network", err: &providers.ProviderError{Provider: "deepseek", Message: "dial tcp: connection refused"}, wantCode: types.CodeProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newCopyHandler(testhelpers.Script{OpenErr: tt.err})

			w := postCopy(h, `{"scene":"beauty","config":{"productName":"面霜"}}`)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			resp := decodeError(t, w)
			if resp.Error.Message != "Internal server error" {
				t.Errorf("message = %q, want generic message", resp.Error.Message)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(context.Context, copywriter.SceneRequest) (*copywriter.Copy, error) {
	return nil, g.err
}

func TestCopyHandler_InternalFailure(t *testing.T) {
	h := NewCopyHandler(failingGenerator{err: errors.New("ledger closed")}, 0, logging.Discard())

	w := postCopy(h, `{"scene":"home","config":{}}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w).Error.Code; got != types.CodeInternalError {
		t.Errorf("code = %q, want %q", got, types.CodeInternalError)
	}
}

func TestCopyHandler_BodyLimit(t *testing.T) {
	p := testhelpers.NewScriptedProvider(testhelpers.Script{Fragments: []string{"ok"}})
	h := NewCopyHandler(copywriter.NewService(p, config.CopywriterConfig{}, nil, logging.Discard(), nil), 64, logging.Discard())

	w := postCopy(h, `{"scene":"tech","config":{"productName":"`+strings.Repeat("长", 40)+`"}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w).Error.Code; got != types.CodeRequestTooLarge {
		t.Errorf("code = %q, want %q", got, types.CodeRequestTooLarge)
	}
}

func TestScenesHandler(t *testing.T) {
	h := NewScenesHandler(logging.Discard())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/xiaohongshu/scenes", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp types.ScenesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp.Scenes) != 8 {
		t.Fatalf("scenes = %d, want 8", len(resp.Scenes))
	}

	ids := make(map[string]bool)
	for _, s := range resp.Scenes {
		ids[s.ID] = true
		if s.Name == "" || len(s.Fields) == 0 {
			t.Errorf("scene %q is incomplete: %+v", s.ID, s)
		}
	}
	for _, id := range []string{"beauty", "fashion", "travel", "food", "home", "fitness", "parenting", "tech"} {
		if !ids[id] {
			t.Errorf("scene %q missing", id)
		}
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/xiaohongshu/scenes", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", w.Code)
	}
}
