package plugin

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tsl0922/mpv-menu-plugin/menu"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Load reads the menu definition and renders it. The source is, in order,
// Config.InputConf, the player's input-conf property, or
// [DefaultInputConf].
func (p *Plugin) Load(ctx context.Context) error {
	path := p.inputConf(ctx)

	r, err := p.open(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()

	tree, err := menu.ParseReader(ctx, r,
		menu.WithDialect(p.conf.Dialect),
		menu.WithLogger(p.log.Component("parse")),
	)
	if err != nil {
		return err
	}

	p.renderer.Render(ctx, tree)

	p.log.DebugContext(ctx, "menu loaded",
		slog.String("path", path),
		slog.Int("entries", tree.Len()))

	return nil
}

func (p *Plugin) inputConf(ctx context.Context) string {
	if p.conf.InputConf != "" {
		return p.conf.InputConf
	}

	v, err := p.host.GetProperty(ctx, "input-conf")
	if err != nil {
		p.log.DebugContext(ctx, "get input-conf", slog.Any("error", err))

		return DefaultInputConf
	}

	if s, ok := v.Str(); ok && s != "" {
		return s
	}

	return DefaultInputConf
}

// open returns the menu data at path. Inline data follows [MemoryScheme];
// other paths are expanded by the player first and used as given when
// expansion fails.
func (p *Plugin) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if data, ok := strings.CutPrefix(path, MemoryScheme); ok {
		return io.NopCloser(strings.NewReader(data)), nil
	}

	expanded, err := p.host.ExpandPath(ctx, path)
	if err != nil || expanded == "" {
		p.log.DebugContext(ctx, "expand path",
			slog.String("path", path),
			slog.Any("error", err))

		expanded = path
	}

	f, err := os.Open(expanded)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err).With(slog.String("path", expanded))
	}

	return f, nil
}
