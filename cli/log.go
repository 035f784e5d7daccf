package cli

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tsl0922/mpv-menu-plugin/log"
)

// logFormat configures the logger format as a side effect of parsing, so
// that errors reported by kong itself already use the requested format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format     logFormat `default:"json"    enum:"json,text"                   help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                                    help:"Set timestamp format."`
	File       string    `help:"Write logs to this file instead of stderr. The menu owns the terminal while it is shown." placeholder:"FILE" type:"path"`
	Caller     bool      `default:"false"                                      help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                                       help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start applies the parsed configuration. The returned function closes the
// log file, if any.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	stop = func() {}

	opts := []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}

	if f.File != "" {
		file, err := os.OpenFile(f.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.WarnContext(ctx, "log file not opened",
				slog.String("file", f.File),
				slog.Any("error", err))
		} else {
			// a file never gets ANSI colors
			opts = append(opts, log.WithOutput(file), log.WithPretty(false))
			stop = func() { _ = file.Close() }
		}
	}

	log.Config(opts...)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.String("file", f.File),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	return stop
}

// scan applies logger flags before kong parses the command line, so the
// logger is configured regardless of flag position. Level and format also
// go through TextUnmarshaler during parsing; the boolean flags only get
// applied here.
func (f *logConfig) scan(args []string) {
	bools := map[string]struct {
		field *bool
		apply func(bool) log.Option
	}{
		"caller": {&f.Caller, log.WithCaller},
		"pretty": {&f.Pretty, log.WithPretty},
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		negated := false

		name, ok := strings.CutPrefix(arg, "--log-")
		if !ok {
			if name, ok = strings.CutPrefix(arg, "--no-log-"); !ok {
				continue
			}

			negated = true
		}

		name, value, assigned := strings.Cut(name, "=")

		if b, ok := bools[name]; ok {
			v := true
			if assigned {
				parsed, err := strconv.ParseBool(value)
				if err != nil {
					continue
				}

				v = parsed
			}

			*b.field = v != negated
			log.Config(b.apply(*b.field))

			continue
		}

		if negated {
			continue
		}

		// the value of a non-boolean flag may be the next argument
		if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			value = args[i+1]
			i++
		}

		switch name {
		case "level":
			_ = f.Level.UnmarshalText([]byte(value))
		case "format":
			_ = f.Format.UnmarshalText([]byte(value))
		}
	}
}
