package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewConsoleLogger creates a logger writing text lines to stdout.
func NewConsoleLogger(level string) Logger {
	return newTextLogger(os.Stdout, level)
}

func newTextLogger(w io.Writer, level string) Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	return &slogLogger{logger: slog.New(slog.NewTextHandler(w, opts)), exit: os.Exit}
}

// NewNopLogger discards everything; used by tests and tooling.
func NewNopLogger() Logger {
	return &slogLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), exit: func(int) {}}
}
