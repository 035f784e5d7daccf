package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// DefaultContextProvider returns the context used by context-unaware
// logging functions.
var DefaultContextProvider = context.TODO

var (
	defaultMu  sync.RWMutex
	defaultLog = Make(os.Stderr)
)

// Default returns the package default logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	return defaultLog
}

// Config updates the default logger with the given options.
func Config(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultLog = defaultLog.Wrap(opts...)
}

// TraceContext logs at Trace level using the default logger.
func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().logContext(ctx, LevelTrace, msg, attrs...)
}

// DebugContext logs at Debug level using the default logger.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().logContext(ctx, LevelDebug, msg, attrs...)
}

// Debug logs at Debug level using the default logger.
func Debug(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelDebug, msg, attrs...)
}

// InfoContext logs at Info level using the default logger.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().logContext(ctx, LevelInfo, msg, attrs...)
}

// Info logs at Info level using the default logger.
func Info(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelInfo, msg, attrs...)
}

// WarnContext logs at Warn level using the default logger.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().logContext(ctx, LevelWarn, msg, attrs...)
}

// Warn logs at Warn level using the default logger.
func Warn(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelWarn, msg, attrs...)
}

// ErrorContext logs at Error level using the default logger.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().logContext(ctx, LevelError, msg, attrs...)
}

// Error logs at Error level using the default logger.
func Error(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelError, msg, attrs...)
}

// With returns a Logger derived from the default logger that includes attrs
// in each message.
func With(attrs ...slog.Attr) Logger {
	return Default().With(attrs...)
}
