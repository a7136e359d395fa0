package logging

import (
	"bytes"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_FiltersByLevelAndWritesFile(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "rrtile.log")
	logger, closer, err := New(Options{Level: "warn", File: path, Stderr: &buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "output", "eDP-1")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info record should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "output=eDP-1") {
		t.Fatalf("expected warn record on stderr: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "shown") {
		t.Fatalf("expected warn record in file: %q", data)
	}
}
