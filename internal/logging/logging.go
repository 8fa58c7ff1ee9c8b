// Package logging configures the process-wide structured logger.
//
// The terminal belongs to the TUI, so nothing is ever written to stdout or
// stderr. With debugging enabled records go to a JSON log file; otherwise
// they are discarded.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup builds the logger and installs it as the slog default. When path is
// empty or debug is false a discarding logger is installed. The returned
// closer must be called on shutdown.
func Setup(path string, debug bool) (*slog.Logger, io.Closer, error) {
	if !debug || path == "" {
		logger := Discard()
		slog.SetDefault(logger)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}

	logger := New(f, slog.LevelDebug)
	slog.SetDefault(logger)
	return logger, f, nil
}

// New returns a JSON logger writing to w at the given level
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
