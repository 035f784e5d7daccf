package pkg

import (
	"errors"
	"log/slog"
	"strings"
)

// Sentinel errors shared by the plugin packages.
// These can be tested using errors.Is after wrapping.
var (
	// ErrReadInput is returned when reading a menu definition fails.
	ErrReadInput = NewError("failed to read input")
	// ErrYAMLMarshal is returned when YAML (un)marshaling fails.
	ErrYAMLMarshal = NewError("YAML marshal error")
	// ErrJSONMarshal is returned when JSON (un)marshaling fails.
	ErrJSONMarshal = NewError("JSON marshal error")
	// ErrInvalidFormat is returned for malformed data or an unknown format name.
	ErrInvalidFormat = NewError("invalid format")
	// ErrIPC is returned when the host IPC connection fails.
	ErrIPC = NewError("host IPC error")
	// ErrCommand is returned when the host rejects a command.
	ErrCommand = NewError("host command failed")
	// ErrClosed is returned by operations on a torn-down component.
	ErrClosed = NewError("closed")
	// ErrTelemetry is returned when collecting or flushing metrics fails.
	ErrTelemetry = NewError("telemetry error")
)

// Error is an error with optional structured logging attributes.
// It implements both error and slog.LogValuer.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error. An existing *Error in the
// chain is returned as-is.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Use the first available format:
	//
	//   1. "<msg>: <err>"
	//   2. "<msg>"
	//   3. "<err>"
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same sentinel as e, so that wrapped
// copies produced by [Error.Wrap] and [Error.With] still match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// A new Error is returned; the receiver is unchanged.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}
