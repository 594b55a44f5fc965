package main

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// newLogger builds the process logger. Every record carries the run id so
// the lines of one invocation can be grouped.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("run_id", uuid.NewString())
}
