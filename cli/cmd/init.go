package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/profile"
)

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(i.settings(ktx), yaml.Indent(2))
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// settings collects the current values of the global flags in
// declaration order.
func (i *Init) settings(ktx *kong.Context) yaml.MapSlice {
	var out yaml.MapSlice

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := settingValue(ktx.FlagValue(flag))
		if val == nil {
			continue
		}

		out = append(out, yaml.MapItem{Key: flag.Name, Value: val})
	}

	return out
}

// settingValue converts a flag value to a YAML scalar, or nil to omit it.
func settingValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case bool, int, int64, float64:
		return v
	case string:
		if v == "" {
			return nil
		}

		return v
	case fmt.Stringer:
		return v.String()
	default:
		s := fmt.Sprint(v)
		if s == "" {
			return nil
		}

		return s
	}
}
