package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/ledger"
	"mercator-hq/quill/pkg/telemetry/logging"
)

// seedLedger writes records to a fresh SQLite ledger and returns a config
// file pointing at it.
func seedLedger(t *testing.T, records ...*ledger.Record) string {
	t.Helper()
	isolateEnv(t)

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	storage, err := ledger.NewSQLiteStorage(ledger.SQLiteConfig{Path: dbPath}, logging.Discard())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	for _, r := range records {
		if err := storage.Store(context.Background(), r); err != nil {
			t.Fatalf("store: %v", err)
		}
	}
	if err := storage.Close(); err != nil {
		t.Fatal(err)
	}

	return writeConfig(t, fmt.Sprintf(`ledger:
  enabled: true
  backend: sqlite
  path: %q
  retention_days: 30
  max_records: 0
`, dbPath))
}

func testRecord(id, kind, status string, age time.Duration) *ledger.Record {
	r := &ledger.Record{
		ID:        id,
		Kind:      kind,
		Model:     "deepseek-chat",
		Status:    status,
		CreatedAt: time.Now().Add(-age).UTC().Truncate(time.Millisecond),
		Latency:   1200 * time.Millisecond,
	}
	if kind == ledger.KindCopy {
		r.Scene = "food"
	} else {
		r.SessionID = "default"
	}
	return r
}

func TestLedgerExport(t *testing.T) {
	cfgPath := seedLedger(t,
		testRecord("r1", ledger.KindChat, ledger.StatusCompleted, 3*time.Hour),
		testRecord("r2", ledger.KindCopy, ledger.StatusFailed, 2*time.Hour),
		testRecord("r3", ledger.KindChat, ledger.StatusCancelled, time.Hour),
		testRecord("r4", ledger.KindCopy, ledger.StatusCompleted, 48*time.Hour),
	)

	tests := []struct {
		name    string
		args    []string
		wantIDs []string
	}{
		{name: "all, oldest first", wantIDs: []string{"r4", "r1", "r2", "r3"}},
		{name: "by kind", args: []string{"--kind", "copy"}, wantIDs: []string{"r4", "r2"}},
		{name: "by status", args: []string{"--status", "cancelled"}, wantIDs: []string{"r3"}},
		{name: "since", args: []string{"--since", "24h"}, wantIDs: []string{"r1", "r2", "r3"}},
		{name: "limit", args: []string{"--limit", "2"}, wantIDs: []string{"r4", "r1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"ledger", "export", "--config", cfgPath}, tt.args...)
			out, _, err := execute(t, "", args...)
			if err != nil {
				t.Fatalf("ledger export: %v", err)
			}

			var records []*ledger.Record
			if err := json.Unmarshal([]byte(out), &records); err != nil {
				t.Fatalf("invalid JSON: %v\n%s", err, out)
			}
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.ID
			}
			if got, want := strings.Join(ids, ","), strings.Join(tt.wantIDs, ","); got != want {
				t.Errorf("ids = %s, want %s", got, want)
			}
		})
	}
}

func TestLedgerExport_CSVToFile(t *testing.T) {
	cfgPath := seedLedger(t,
		testRecord("r1", ledger.KindChat, ledger.StatusCompleted, time.Hour),
		testRecord("r2", ledger.KindCopy, ledger.StatusCompleted, time.Minute),
	)
	outPath := filepath.Join(t.TempDir(), "ledger.csv")

	stdout, stderr, err := execute(t, "", "ledger", "export", "--config", cfgPath, "--format", "csv", "--out", outPath)
	if err != nil {
		t.Fatalf("ledger export: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty when writing to a file, got %q", stdout)
	}
	if !strings.Contains(stderr, "✓ Exported 2 records") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stderr, "(2/2 records)") {
		t.Errorf("stderr should show progress, got %q", stderr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d CSV lines, want header and 2 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "id,request_id,kind") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "r1,") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestLedgerExport_Errors(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		isolateEnv(t)
		_, _, err := execute(t, "", "ledger", "export")
		if cli.ExitCode(err) != cli.ExitUsage {
			t.Errorf("ExitCode = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		cfgPath := seedLedger(t)
		_, _, err := execute(t, "", "ledger", "export", "--config", cfgPath, "--format", "xml")
		if cli.ExitCode(err) != cli.ExitUsage {
			t.Errorf("ExitCode = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
		}
	})
}

func TestLedgerPrune(t *testing.T) {
	cfgPath := seedLedger(t,
		testRecord("old", ledger.KindChat, ledger.StatusCompleted, 40*24*time.Hour),
		testRecord("new", ledger.KindChat, ledger.StatusCompleted, time.Hour),
	)

	out, _, err := execute(t, "", "ledger", "prune", "--config", cfgPath)
	if err != nil {
		t.Fatalf("ledger prune: %v", err)
	}
	if !strings.Contains(out, "✓ Pruned 1 records") {
		t.Errorf("output = %q", out)
	}

	out, _, err = execute(t, "", "ledger", "export", "--config", cfgPath)
	if err != nil {
		t.Fatalf("ledger export: %v", err)
	}
	if strings.Contains(out, `"old"`) || !strings.Contains(out, `"new"`) {
		t.Errorf("only the recent record should remain:\n%s", out)
	}
}
