package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"postscan/internal/config"
	"postscan/internal/store"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	contents := fmt.Sprintf(`
[paths]
data_dir = %q
log_dir = %q

[api]
base_url = "http://127.0.0.1:0"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func seedStore(t *testing.T, configPath string, records ...store.Record) {
	t.Helper()
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	for i := range records {
		if err := st.SaveScan(context.Background(), &records[i]); err != nil {
			t.Fatalf("seed scan: %v", err)
		}
	}
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, buf.String())
	}
	return buf.String()
}

func TestHistoryCommandFiltersAndCounts(t *testing.T) {
	configPath := writeTestConfig(t)
	day := func(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }
	seedStore(t, configPath,
		store.Record{ID: "s1", Status: store.StatusProcessed, CreatedAt: day(1)},
		store.Record{ID: "s2", Status: store.StatusPending, CreatedAt: day(2)},
		store.Record{ID: "s3", Status: store.StatusFailed, CreatedAt: day(3)},
	)

	output := runCommand(t, "--config", configPath, "history", "--filter", "active")
	if !strings.Contains(output, "s2") {
		t.Fatalf("expected s2 in output:\n%s", output)
	}
	if strings.Contains(output, "s1") || strings.Contains(output, "s3") {
		t.Fatalf("filtered-out records leaked into output:\n%s", output)
	}
	if !strings.Contains(output, "1 scan(s)") {
		t.Fatalf("count must reflect the filtered set:\n%s", output)
	}
}

func TestHistoryCommandJSONOutput(t *testing.T) {
	configPath := writeTestConfig(t)
	seedStore(t, configPath,
		store.Record{ID: "s1", Status: store.StatusPending, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	)

	output := runCommand(t, "--config", configPath, "history", "--json")
	if !strings.Contains(output, `"ID": "s1"`) {
		t.Fatalf("unexpected JSON output:\n%s", output)
	}
}

func TestHistoryCommandRejectsUnknownFilter(t *testing.T) {
	configPath := writeTestConfig(t)
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--config", configPath, "history", "--filter", "everything"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestConfigInitWritesSampleAndRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	runCommand(t, "config", "init", "--path", target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[reconcile]") {
		t.Fatal("sample config missing [reconcile] section")
	}

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestWhoamiWithoutSession(t *testing.T) {
	configPath := writeTestConfig(t)
	output := runCommand(t, "--config", configPath, "whoami")
	if !strings.Contains(output, "No session on this device") {
		t.Fatalf("unexpected whoami output:\n%s", output)
	}
}
