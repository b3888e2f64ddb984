// Package logging configures the application logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the lutra logger. It writes to stderr so stdout stays clean
// for command output (game lists, JSON), and standardizes the "error"
// attribute key to "err".
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
