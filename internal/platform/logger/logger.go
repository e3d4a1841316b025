package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output to stderr; verbose drops the
// level to debug.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
