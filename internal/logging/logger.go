// Package logging gives the analysis pipeline and the AI provider clients a
// printf-style logger, so they log through the service's slog handler without
// importing it.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"stressoscope/internal/observability"
)

// Logger is what the analyzer and provider clients log through.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}

// Nop returns a logger that drops everything.
func Nop() Logger {
	return discard{}
}

// IsNil reports whether logger is nil, including a typed nil pointer.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	v := reflect.ValueOf(logger)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// OrNop substitutes Nop for a nil logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// ForComponent scopes logger with a component attribute, e.g. "analysis" or
// "llm". A nil logger yields Nop.
func ForComponent(logger *observability.Logger, component string) Logger {
	if logger == nil {
		return Nop()
	}
	if component != "" {
		logger = logger.With("component", component)
	}
	return &componentLogger{slog: logger.Slog()}
}

type componentLogger struct {
	slog *slog.Logger
}

// log formats the message only when level is enabled.
func (l *componentLogger) log(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	l.slog.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (l *componentLogger) Debug(format string, args ...any) { l.log(slog.LevelDebug, format, args) }
func (l *componentLogger) Info(format string, args ...any)  { l.log(slog.LevelInfo, format, args) }
func (l *componentLogger) Warn(format string, args ...any)  { l.log(slog.LevelWarn, format, args) }
func (l *componentLogger) Error(format string, args ...any) { l.log(slog.LevelError, format, args) }
