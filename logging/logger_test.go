package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesConsoleAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, flush, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", zap.Int("rows", 3))
	flush()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message must be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "WARN") {
		t.Fatalf("expected warn message, got %q", out)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shopintent.log")
	var buf bytes.Buffer
	logger, flush, err := New(Options{Level: "info", File: path, MaxSizeMB: 1, Console: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("dataset loaded", zap.Int("rows", 12))
	flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", data, err)
	}
	if entry["msg"] != "dataset loaded" || entry["rows"] != float64(12) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "WARN", "error", ""} {
		if _, err := ParseLevel(level); err != nil {
			t.Fatalf("level %q: unexpected error: %v", level, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
