// Package logging builds the structured logger shared by the pipeline stages.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects level, handler format and destination.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New returns a slog.Logger; unknown levels fall back to info, unknown formats to text.
func New(opt Options) *slog.Logger {
	w := opt.Writer
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: ParseLevel(opt.Level)}

	var handler slog.Handler
	switch strings.ToLower(opt.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, hopts)
	default:
		handler = slog.NewTextHandler(w, hopts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
