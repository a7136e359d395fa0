// Package logging builds the daemon's structured logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configure New.
type Options struct {
	Level string // debug, info, warn or error
	File  string // optional; appended to in addition to Stderr
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns a text logger and a closer for the optional file sink. The
// standard library logger is pointed at the same writer so plain log.Printf
// calls end up in the same place.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	if opts.Stderr != nil {
		w = opts.Stderr
	}
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		w = io.MultiWriter(w, f)
		closer = f
	}

	log.SetOutput(w)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
