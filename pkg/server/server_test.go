package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	testhelpers "mercator-hq/quill/internal/providers"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/ledger"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/middleware"
	"mercator-hq/quill/pkg/proxy/types"
	"mercator-hq/quill/pkg/relay"
	"mercator-hq/quill/pkg/telemetry/health"
	"mercator-hq/quill/pkg/telemetry/logging"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

type fixture struct {
	server   *Server
	provider providers.Provider
	store    *ledger.MemoryStorage
	recorder *ledger.Recorder
}

func newFixture(t *testing.T, cfg *config.Config, p providers.Provider) *fixture {
	t.Helper()
	logger := logging.Discard()
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	store := ledger.NewMemoryStorage()
	recorder := ledger.NewRecorder(store, ledger.RecorderConfig{}, logger)
	t.Cleanup(func() { _ = recorder.Close() })

	sessions := conversation.NewManager(conversation.Config{
		MaxMessages:  cfg.Conversation.MaxMessages,
		SystemPrompt: cfg.Conversation.SystemPrompt,
	}, logger, collector)
	r := relay.New(p, relay.Config{Model: cfg.Upstream.Model, Temperature: cfg.Upstream.Temperature}, logger, collector)

	srv := New(cfg, Dependencies{
		Sessions:   sessions,
		Agent:      relay.NewAgent(r, recorder, logger),
		Copywriter: copywriter.NewService(p, cfg.Copywriter, recorder, logger, collector),
		Provider:   p,
		Ledger:     store,
		Limiter:    middleware.NewRateLimiter(cfg.Limits, collector, logger),
		Metrics:    collector,
		Logger:     logger,
		Build:      BuildInfo{Version: "1.2.3", Commit: "abc123", BuildTime: "2026-03-01T00:00:00Z"},
	})
	return &fixture{server: srv, provider: p, store: store, recorder: recorder}
}

func testConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.Telemetry.Metrics.Namespace = "test"
	return cfg
}

func TestServer_Routes(t *testing.T) {
	f := newFixture(t, testConfig(), testhelpers.NewScriptedProvider(testhelpers.Script{Fragments: []string{"ok"}}))
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/version", "", http.StatusOK},
		{http.MethodGet, "/history", "", http.StatusOK},
		{http.MethodPost, "/clear", "", http.StatusOK},
		{http.MethodGet, "/xiaohongshu/scenes", "", http.StatusOK},
		{http.MethodPost, "/xiaohongshu/copy", `{"scene":"food","config":{"restaurantName":"老王面馆"}}`, http.StatusOK},
		{http.MethodPost, "/chat", `{"message":"Hello"}`, http.StatusOK},
		{http.MethodGet, "/chat", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/chat", `{}`, http.StatusBadRequest},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/v1/chat/completions", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if resp.Header.Get(proxy.RequestIDHeader) == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestServer_ChatStream(t *testing.T) {
	f := newFixture(t, testConfig(), testhelpers.NewScriptedProvider(testhelpers.Script{Fragments: []string{"你好", "，", "世界"}}))
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/chat", strings.NewReader(`{"message":"Hello"}`))
	req.Header.Set(proxy.SessionIDHeader, "tab-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(body) != "你好，世界" {
		t.Errorf("body = %q", body)
	}
	if got := resp.Trailer.Get(proxy.GenerationStatusTrailer); got != "completed" {
		t.Errorf("trailer = %q, want completed", got)
	}
	if got := resp.Header.Get(proxy.SessionIDHeader); got != "tab-1" {
		t.Errorf("session header = %q, want tab-1", got)
	}

	if err := f.recorder.Close(); err != nil {
		t.Fatalf("recorder close: %v", err)
	}
	records, err := f.store.Query(context.Background(), &ledger.Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].Kind != ledger.KindChat || records[0].SessionID != "tab-1" {
		t.Errorf("unexpected ledger records: %+v", records)
	}
}

func TestServer_NotFound(t *testing.T) {
	f := newFixture(t, testConfig(), testhelpers.NewScriptedProvider())

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Error.Type != types.ErrorTypeNotFound || resp.Error.Code != types.CodeNotFound {
		t.Errorf("unexpected error: %+v", resp.Error)
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.Requests = 2
	f := newFixture(t, cfg, testhelpers.NewScriptedProvider())
	handler := f.server.Handler()

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("/history"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := do("/history"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", code)
	}
	for _, path := range []string{"/health", "/ready", "/version"} {
		if code := do(path); code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, code)
		}
	}
}

func TestServer_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.Enabled = false
	cfg.Limits.Requests = 1
	f := newFixture(t, cfg, testhelpers.NewScriptedProvider())
	handler := f.server.Handler()

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}

// unhealthyProvider reports a failing upstream.
type unhealthyProvider struct {
	*testhelpers.ScriptedProvider
}

func (unhealthyProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: false, ConsecutiveFailures: 3, LastError: errors.New("503")}
}

func TestServer_NotReady(t *testing.T) {
	f := newFixture(t, testConfig(), unhealthyProvider{testhelpers.NewScriptedProvider()})

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var status health.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if _, ok := status.Checks["upstream"]; !ok {
		t.Errorf("upstream check missing from %+v", status.Checks)
	}
}

func TestServer_Version(t *testing.T) {
	f := newFixture(t, testConfig(), testhelpers.NewScriptedProvider())

	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info health.VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info: %+v", info)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	f := newFixture(t, testConfig(), testhelpers.NewScriptedProvider())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	testhelpers.WaitForCondition(t, time.Second, f.server.IsRunning, "server did not start")

	resp, err := http.Get("http://" + f.server.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if f.server.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Proxy.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	f := newFixture(t, cfg, testhelpers.NewScriptedProvider())

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, proxy.GenerationStatusTrailer) {
		t.Errorf("Access-Control-Expose-Headers = %q, want it to include %s", got, proxy.GenerationStatusTrailer)
	}
}
