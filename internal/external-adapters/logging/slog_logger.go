// Package logging adapts log/slog to the domain Logger contract.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
)

// SlogLogger implements interfaces.Logger on top of a slog.Logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a logger writing to w. level is one of debug, info,
// warn, error (default info); format is "json" or text.
func NewSlogLogger(level, format string, w io.Writer) *SlogLogger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

// FromSlog wraps an existing slog.Logger
func FromSlog(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// ParseLevel maps a level name to a slog.Level
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

// Slog returns the underlying slog.Logger
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

// Debug logs debug-level messages
func (l *SlogLogger) Debug(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelDebug, msg, fields)
}

// Info logs informational messages
func (l *SlogLogger) Info(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelInfo, msg, fields)
}

// Warn logs warning messages
func (l *SlogLogger) Warn(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelWarn, msg, fields)
}

// Error logs error messages
func (l *SlogLogger) Error(msg string, fields ...interfaces.Field) {
	l.log(slog.LevelError, msg, fields)
}

// With returns a logger that adds fields to every message
func (l *SlogLogger) With(fields ...interfaces.Field) interfaces.Logger {
	return &SlogLogger{logger: l.logger.With(toArgs(fields)...)}
}

func (l *SlogLogger) log(level slog.Level, msg string, fields []interfaces.Field) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.LogAttrs(ctx, level, msg, toAttrs(fields)...)
}

func toAttrs(fields []interfaces.Field) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, attr(f))
	}
	return attrs
}

func toArgs(fields []interfaces.Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, attr(f))
	}
	return args
}

func attr(f interfaces.Field) slog.Attr {
	// slog renders error values through Error() in text but as {} in JSON
	if err, ok := f.Value.(error); ok && err != nil {
		return slog.String(f.Key, err.Error())
	}
	return slog.Any(f.Key, f.Value)
}
