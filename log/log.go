package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger provides a concurrency-safe simplified logging interface.
// The zero value discards all messages.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a new [Logger] that writes to w.
//
// The default configuration is [DefaultFormat], [DefaultLevel],
// [DefaultTimeLayout], pretty printing, and no caller info; opts override it.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)

	return Logger{
		config: cfg,
		Logger: slog.New(cfg.handler()),
	}
}

// Wrap returns a new [Logger] derived from l with opts applied on top of
// its configuration. Attributes added with [Logger.With] are not carried.
func (l Logger) Wrap(opts ...Option) Logger {
	if l.mutex == nil {
		return Make(io.Discard, opts...)
	}

	l.mutex.RLock()
	cfg := l.clone(opts...)
	l.mutex.RUnlock()

	return Logger{
		config: cfg,
		Logger: slog.New(cfg.handler()),
	}
}

// With returns a new [Logger] that includes attrs in each log message.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	l.mutex.RLock()
	cfg := l.clone()
	l.mutex.RUnlock()

	return Logger{
		config: cfg,
		Logger: slog.New(l.Logger.Handler().WithAttrs(attrs)),
	}
}

// Component returns a Logger tagged with the name of a plugin component.
func (l Logger) Component(name string) Logger {
	return l.With(slog.String("component", name))
}

// Level returns the current minimum log level.
func (l Logger) Level() Level {
	if l.Logger == nil || l.mutex == nil {
		return DefaultLevel
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.level
}

// Format returns the current log output format.
func (l Logger) Format() Format {
	if l.Logger == nil || l.mutex == nil {
		return DefaultFormat
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.format
}

// TraceContext logs a message at Trace level with the provided context.
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelTrace, msg, attrs...)
}

// Trace logs a message at Trace level.
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelTrace, msg, attrs...)
}

// DebugContext logs a message at Debug level with the provided context.
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelDebug, msg, attrs...)
}

// Debug logs a message at Debug level.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelDebug, msg, attrs...)
}

// InfoContext logs a message at Info level with the provided context.
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelInfo, msg, attrs...)
}

// Info logs a message at Info level.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelInfo, msg, attrs...)
}

// WarnContext logs a message at Warn level with the provided context.
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelWarn, msg, attrs...)
}

// Warn logs a message at Warn level.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelWarn, msg, attrs...)
}

// ErrorContext logs a message at Error level with the provided context.
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelError, msg, attrs...)
}

// Error logs a message at Error level.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelError, msg, attrs...)
}

func (l Logger) logContext(
	ctx context.Context,
	level Level,
	msg string,
	attrs ...slog.Attr,
) {
	if l.Logger == nil {
		return
	}

	if l.mutex != nil {
		l.mutex.RLock()
		defer l.mutex.RUnlock()
	}

	if !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	// 0=runtime.Callers, 1=logContext, 2=Logger method or package-level
	// function, 3=caller. Every entry point calls logContext directly.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
