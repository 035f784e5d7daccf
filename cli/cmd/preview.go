package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/menu"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
	"github.com/tsl0922/mpv-menu-plugin/state"
	"github.com/tsl0922/mpv-menu-plugin/tui"
)

// Preview shows a menu definition with dynamic submenus filled from a
// recorded player state, and prints the command of the chosen item.
type Preview struct {
	State  string `help:"YAML file mapping player properties to values." placeholder:"FILE" short:"S" type:"existingfile"`
	Dump   bool   `help:"Print the native menu instead of showing it." short:"d"`
	Format string `default:"json" enum:"json,yaml" help:"Output format of --dump." short:"f"`

	Source string `arg:"" default:"-" help:"Menu definition file or '-' for stdin." name:"source"`
}

// Run executes the preview command.
func (p *Preview) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := parseSource(ctx, p.Source)
	if err != nil {
		return err
	}

	if tree.Len() == 0 {
		return ErrNoMenu.With(slog.String("source", p.Source))
	}

	cache := state.New(state.WithLogger(log.Default().Component("state")))

	if p.State != "" {
		if err := loadState(cache, p.State); err != nil {
			return err
		}
	}

	mem := native.NewMemory()
	r := menu.NewRenderer(mem,
		menu.WithRenderDialect(dialectFrom(ctx)),
		menu.WithRenderLogger(log.Default().Component("render")),
	)
	defer r.Close()

	r.Render(ctx, tree)
	r.Regenerate(ctx, cache)

	out := outputFrom(ctx)

	if p.Dump {
		return encode(out, mem.Dump(r.Root()), p.Format)
	}

	id, ok, err := tui.New(tui.WithLogger(log.Default().Component("tui"))).
		Track(ctx, mem, r.Root(), native.Point{})
	if err != nil || !ok {
		return err
	}

	if cmd, ok := r.Command(id); ok {
		_, err = fmt.Fprintln(out, cmd)
	}

	return err
}

func loadState(cache *state.Cache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkg.ErrReadInput.Wrap(err).With(slog.String("file", path))
	}
	defer f.Close()

	return cache.LoadYAML(f)
}
