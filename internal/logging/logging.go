// ABOUTME: Process-wide logging service with explicit lifecycle
// ABOUTME: Builds injectable slog loggers writing to a file or stderr
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls where and how much the process logs.
type Config struct {
	// File is the log file path; empty logs to stderr.
	File string

	// Level is one of "debug", "info", "warn", "error".
	Level string

	// AlsoStderr duplicates file output to stderr.
	AlsoStderr bool
}

// Init builds the process logger. The returned close function flushes
// and releases the log file; call it on shutdown. Components receive
// the logger by reference and never look it up globally.
func Init(cfg Config) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if cfg.AlsoStderr {
			w = io.MultiWriter(f, os.Stderr)
		} else {
			w = f
		}
		closer = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}

// Discard returns a logger that drops everything, for components that
// run before Init or in benchmarks.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}
