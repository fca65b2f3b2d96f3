// Package logging configures the process-wide structured logger used by
// both the builder and the engine's command-line entry points.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs a slog handler at the given level ("debug", "info",
// "warn", "error"), either text (default, for local runs) or JSON (for
// production log shipping).
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// For returns a logger scoped to a named component, e.g. For("builder"),
// For("loader"), For("evaluator").
func For(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
