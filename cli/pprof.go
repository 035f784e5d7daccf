//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
	"github.com/tsl0922/mpv-menu-plugin/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Enable profiling"         placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory"                                 type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(pkg.CacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	var group kong.Group

	group.Key = "pprof"
	group.Title = "Profiling (pprof)"

	return group
}

// start profiles the named command into its own subdirectory, so runs of
// different commands do not overwrite each other.
func (f pprofConfig) start(ctx context.Context, command string) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	dir := f.Dir
	if command != "" {
		dir = filepath.Join(dir, command)
	}

	attrs := []slog.Attr{
		slog.String("mode", f.Mode),
		slog.String("dir", dir),
	}

	log.DebugContext(ctx, "pprof start", attrs...)

	profiler := profile.New(
		profile.WithMode(f.Mode),
		profile.WithDir(dir),
		profile.WithQuiet(true),
	).Start()

	return func() {
		profiler.Stop()
		log.DebugContext(ctx, "pprof stop", attrs...)
	}
}
