//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

package log

import (
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the default log level.
const DefaultLevel = LevelInfo

// Levels returns an iterator over all named log levels.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, level := range []Level{
			LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError,
		} {
			if !yield(level.String()) {
				return
			}
		}
	}
}

// ParseLevel parses a string representation of a log level.
// Valid level strings are "trace", "debug", "info", "warn", and "error",
// optionally followed by a "+" or "-" and an integer offset.
// Unrecognized input yields [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	// slog.Level.UnmarshalText doesn't know "trace"
	if strings.EqualFold(s, "trace") {
		return LevelTrace
	}

	l := new(slog.Level)
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(*l)
}

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the default log message format.
const DefaultFormat = FormatText

// Formats returns an iterator over all defined log formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, format := range []Format{FormatText, FormatJSON} {
			if !yield(format.String()) {
				return
			}
		}
	}
}

// ParseFormat parses a string representation of a log format.
// Valid format strings are "json" and "text".
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return DefaultFormat
	}
}

// FormatTime formats a time.Time value as a string. An empty result omits
// the timestamp from the record.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the default used when no valid time layout is provided.
const DefaultTimeLayout = time.RFC3339

// config holds the configuration options for a Logger.
type config struct {
	mutex      *sync.RWMutex
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// Option applies a configuration option to config.
type Option func(config) config

func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// locked returns an Option that runs set with the config mutex held,
// creating the mutex first if the config has none yet.
func locked(set func(*config)) Option {
	return func(c config) config {
		if c.mutex == nil {
			c.mutex = &sync.RWMutex{}
		} else {
			c.mutex.Lock()
			defer c.mutex.Unlock()
		}

		set(&c)

		return c
	}
}

func makeConfig(w io.Writer, opts ...Option) config {
	return apply(apply(config{mutex: &sync.RWMutex{}}, WithDefaults(w)), opts...)
}

// clone copies the config with a separate mutex and applies opts.
func (c config) clone(opts ...Option) config {
	c.mutex = &sync.RWMutex{}

	return apply(c, opts...)
}

func (c config) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: c.caller,
		Level:     slog.Level(c.level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if t, ok := a.Value.Any().(time.Time); ok {
					formatted := c.formatTime(t)
					if formatted == "" {
						return slog.Attr{}
					}

					a.Value = slog.StringValue(formatted)
				}

			case slog.LevelKey:
				// "TRACE" instead of "DEBUG-4"
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(strings.ToUpper(Level(level).String()))
				}
			}

			return a
		},
	}
}

func (c config) handler() slog.Handler {
	opts := c.handlerOptions()

	switch {
	case c.format == FormatText && c.pretty:
		return newPrettyHandler(c.output, opts, c.formatTime)
	case c.format == FormatText:
		return slog.NewTextHandler(c.output, opts)
	case c.format == FormatJSON:
		return slog.NewJSONHandler(c.output, opts)
	default:
		return slog.DiscardHandler
	}
}

// WithDefaults returns an Option that resets every setting to its default:
// [DefaultTimeLayout], [DefaultLevel], [DefaultFormat], no caller info, and
// pretty printing enabled. A nil writer discards output.
func WithDefaults(w io.Writer) Option {
	return locked(func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
		c.formatTime = makeFormatTimeFunc(DefaultTimeLayout)
		c.level = DefaultLevel
		c.format = DefaultFormat
		c.caller = false
		c.pretty = true
	})
}

// WithOutput sets the output writer. A nil writer discards output.
func WithOutput(w io.Writer) Option {
	return locked(func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	})
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) Option {
	return locked(func(c *config) { c.level = level })
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return locked(func(c *config) { c.format = format })
}

// WithTimeLayout sets the layout used to format log timestamps.
//
// The layout may name one of the [time] package layouts (for example
// "RFC3339" or "Kitchen"); otherwise it is passed verbatim to
// [time.Time.Format]. An empty layout, or "none", disables timestamps.
func WithTimeLayout(layout string) Option {
	format := makeFormatTimeFunc(layout)

	return locked(func(c *config) { c.formatTime = format })
}

// WithCaller controls whether caller information is included.
func WithCaller(enable bool) Option {
	return locked(func(c *config) { c.caller = enable })
}

// WithPretty controls colorized output for the text format.
func WithPretty(enable bool) Option {
	return locked(func(c *config) { c.pretty = enable })
}

var timeLayout = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rfc822":      time.RFC822,
	"kitchen":     time.Kitchen,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"ms":          time.StampMilli,
	"stampmicro":  time.StampMicro,
	"us":          time.StampMicro,
	"none":        "",
}

func makeFormatTimeFunc(layout string) FormatTime {
	key := strings.ToLower(strings.TrimSpace(layout))
	if std, ok := timeLayout[key]; ok {
		layout = std
	}

	if strings.TrimSpace(layout) == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
