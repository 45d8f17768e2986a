// Package logger builds the process-wide slog logger and provides the
// attribute helpers used across the pipeline.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a logger whose level follows LOG_LEVEL. Production
// (GO_ENV=production) gets JSON output, everything else a text handler.
func NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(os.Getenv("LOG_LEVEL"))}

	var handler slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Scope tags log records with the emitting component.
func Scope(name string) slog.Attr {
	return slog.String("scope", name)
}

// Error wraps an error as a structured attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Document tags log records with a legislative document id and language.
func Document(id, lang string) slog.Attr {
	return slog.Group("document", slog.String("id", id), slog.String("lang", lang))
}
