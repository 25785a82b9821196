package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/copywriter"
)

// execute runs the quill command with args and returns its output.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// isolateEnv clears the variables the config loader reads so the host
// environment cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "QUILL_") || key == "DEEPSEEK_API_KEY" || key == "PORT" {
			t.Setenv(key, "")
		}
	}
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	want := map[string]bool{"run": false, "chat": false, "render": false, "scenes": false, "ledger": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = "1.2.3-test", "abc123"
	defer func() { Version, GitCommit = origVersion, origCommit }()

	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"Quill 1.2.3-test", "Git Commit: abc123", "Go Version: go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("version --short: %v", err)
	}
	if out != "1.2.3-test\n" {
		t.Errorf("version --short = %q", out)
	}

	out, _, err = execute(t, "", "version", "-o", "json")
	if err != nil {
		t.Fatalf("version -o json: %v", err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if info.Version != "1.2.3-test" || info.GitCommit != "abc123" {
		t.Errorf("info = %+v", info)
	}

	if _, _, err := execute(t, "", "version", "-o", "csv"); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("version -o csv: err = %v, want usage error", err)
	}
}

func TestScenesCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "", "scenes")
		if err != nil {
			t.Fatalf("scenes: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != len(copywriter.Scenes())+1 {
			t.Fatalf("got %d lines, want header plus %d scenes:\n%s", len(lines), len(copywriter.Scenes()), out)
		}
		if !strings.HasPrefix(lines[0], "SCENE") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(out, "destination,duration,attractions") {
			t.Errorf("travel row should list its required fields:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "", "scenes", "--output", "json")
		if err != nil {
			t.Fatalf("scenes: %v", err)
		}
		var defs []copywriter.Definition
		if err := json.Unmarshal([]byte(out), &defs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(defs) != 8 {
			t.Errorf("got %d scenes, want 8", len(defs))
		}
	})

	t.Run("csv", func(t *testing.T) {
		out, _, err := execute(t, "", "scenes", "-o", "csv")
		if err != nil {
			t.Fatalf("scenes: %v", err)
		}
		if !strings.HasPrefix(out, "scene,name,required,optional\n") {
			t.Errorf("csv output = %q", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(t, "", "scenes", "-o", "yaml")
		if cli.ExitCode(err) != cli.ExitUsage {
			t.Errorf("ExitCode = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
		}
	})
}

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantOut    []string
		wantStderr string
	}{
		{
			name:    "travel with fields",
			args:    []string{"render", "travel", "--set", "destination=京都", "--set", "duration=5"},
			wantOut: []string{"目的地：京都", "5天"},
		},
		{
			name:       "missing required fields",
			args:       []string{"render", "travel", "--set", "destination=京都"},
			wantOut:    []string{"目的地：京都"},
			wantStderr: "missing required fields: duration, attractions",
		},
		{
			name:       "unknown field",
			args:       []string{"render", "food", "--set", "restaurantName=老王面馆", "--set", "colour=red"},
			wantOut:    []string{"老王面馆"},
			wantStderr: "fields not used by food: colour",
		},
		{
			name:       "unknown scene",
			args:       []string{"render", "gardening"},
			wantOut:    []string{copywriter.DefaultPrompt},
			wantStderr: `unknown scene "gardening"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, err := execute(t, "", tt.args...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			if tt.wantStderr != "" && !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRenderCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	body := `{"scene": "beauty", "fields": {"productName": "水光精华", "brand": "某品牌", "price": null}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "render", "--file", path, "--set", "brand=另一个品牌")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "水光精华") {
		t.Errorf("output should contain the file's product name:\n%s", out)
	}
	if !strings.Contains(out, "另一个品牌") || strings.Contains(out, "某品牌") {
		t.Errorf("--set should override the file's brand:\n%s", out)
	}
	if !strings.Contains(out, copywriter.Placeholder) {
		t.Errorf("null price should render the placeholder:\n%s", out)
	}
}

func TestRenderCommand_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no scene", args: []string{"render"}},
		{name: "bad set", args: []string{"render", "food", "--set", "restaurantName"}},
		{name: "empty key", args: []string{"render", "food", "--set", "=x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			if cli.ExitCode(err) != cli.ExitUsage {
				t.Errorf("ExitCode = %d, want %d (err %v)", cli.ExitCode(err), cli.ExitUsage, err)
			}
		})
	}
}
