package cmd

import (
	"context"

	"github.com/tsl0922/mpv-menu-plugin/menu"
)

// Fmt rewrites a menu definition in canonical form: one line per entry,
// with the full submenu path spelled out.
type Fmt struct {
	Source string `arg:"" default:"-" help:"Menu definition file or '-' for stdin." name:"source"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := parseSource(ctx, f.Source)
	if err != nil {
		return err
	}

	return menu.Format(outputFrom(ctx), tree)
}
