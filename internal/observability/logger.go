package observability

import (
	"io"
	"log/slog"
	"os"
)

// NoOpLogger discards everything. Used by tests so service constructors never
// need a nil check.
var NoOpLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NewLogger builds the process-wide structured logger. Production environments
// get JSON for the log pipeline; anything else gets human-readable text.
func NewLogger(environment string) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	switch environment {
	case "production", "staging":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
