// Package logging provides structured logging with Azure Application Insights integration.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey is used for storing logger in context.
type contextKey struct{}

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
	level slog.Level
}

// Options configures a Logger.
type Options struct {
	Level string
	// Format is "json" or "text".
	Format string
	// Output defaults to stderr so command output on stdout stays clean.
	Output io.Writer
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level string) *Logger {
	return NewLoggerWithOptions(Options{Level: level})
}

// NewLoggerWithOptions creates a logger from options.
func NewLoggerWithOptions(opts Options) *Logger {
	l := parseLevel(opts.Level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	hopts := &slog.HandlerOptions{
		Level:     l,
		AddSource: l == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, hopts)
	} else {
		handler = slog.NewJSONHandler(out, hopts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  l,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewLoggerWithOptions(Options{Level: "error", Output: io.Discard})
}

// WithContext returns a new context with the logger.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}
	return NewLogger("info")
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithUserID returns a logger with user ID.
func (l *Logger) WithUserID(userID string) *Logger {
	return l.With("user_id", userID)
}

// WithError returns a logger with error.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With("error", err.Error())
}

// Level returns the configured minimum level.
func (l *Logger) Level() slog.Level {
	return l.level
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
