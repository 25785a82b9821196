package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json", Redact: true},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text"},
		},
		{
			name:   "empty values use defaults",
			config: Config{},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Writer = &buf

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithSessionID(ctx, "sess-9")
	logger.InfoContext(ctx, "chat turn completed", "chunks", 3)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if lines[0]["request_id"] != "req-123" {
		t.Errorf("expected request_id req-123, got %v", lines[0]["request_id"])
	}
	if lines[0]["session_id"] != "sess-9" {
		t.Errorf("expected session_id sess-9, got %v", lines[0]["session_id"])
	}
	if lines[0]["chunks"] != float64(3) {
		t.Errorf("expected chunks 3, got %v", lines[0]["chunks"])
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	derived := logger.With("component", "relay")

	derived.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("expected level debug, got %v", logger.Level())
	}

	derived.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("derived logger should follow the new level, got %q", buf.String())
	}

	if err := logger.SetLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Redact: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("api_key", "sk-abcdef123456").Info("upstream call",
		"header", "Bearer abc.def.ghi",
		"error", errors.New("401 from upstream with key sk-zzz999"),
		"max_tokens", 1000,
	)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	line := lines[0]

	if line["api_key"] != "sk-a***" {
		t.Errorf("expected api_key redacted to prefix, got %v", line["api_key"])
	}
	if line["header"] != "Bearer ***" {
		t.Errorf("expected bearer token redacted, got %v", line["header"])
	}
	if s, _ := line["error"].(string); strings.Contains(s, "zzz999") {
		t.Errorf("expected key in error redacted, got %q", s)
	}
	if line["max_tokens"] != float64(1000) {
		t.Errorf("max_tokens should not be redacted, got %v", line["max_tokens"])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 5, "hello..."},
		{"你好世界", 2, "你好..."},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" {
		t.Error("expected empty request ID")
	}
	if GetSessionID(ctx) != "" {
		t.Error("expected empty session ID")
	}
}
