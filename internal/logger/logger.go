// Package logger provides structured logging for the executive, gated by
// named debug categories per §6/§7.
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/taless474/plexil1-sub000/internal/config"
)

// Logger wraps slog.Logger with category gating for exec debug messages.
type Logger struct {
	logger     *slog.Logger
	categories map[string]bool
}

// New creates a logger from the given configuration.
func New(cfg config.LoggingConfig) *Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: cfg.Level == "debug"}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	cats := make(map[string]bool, len(cfg.DebugCategories))
	for name, enabled := range cfg.DebugCategories {
		cats[name] = enabled
	}

	return &Logger{logger: slog.New(handler), categories: cats}
}

// With returns a logger carrying the given structured attributes.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{logger: l.logger.With(args...), categories: l.categories}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...interface{}) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...interface{}) { l.logger.Error(msg, args...) }

// InfoContext logs at info level with a context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	l.logger.InfoContext(ctx, msg, args...)
}

// ErrorContext logs at error level with a context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// DebugCategory logs a debug message only if the named category is enabled,
// implementing the "Exec debug messages are gated by named categories" rule
// of §7.
func (l *Logger) DebugCategory(category, msg string, args ...interface{}) {
	if !l.categories[category] {
		return
	}
	l.logger.Debug(msg, append([]interface{}{"category", category}, args...)...)
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

var defaultLogger = New(config.LoggingConfig{Level: "info", Format: "json"})

// Default returns the package default logger.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the package default logger.
func SetDefault(l *Logger) { defaultLogger = l }
