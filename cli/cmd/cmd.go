package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/menu"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

type (
	contextKey struct{}
	dialectKey struct{}
	outputKey  struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithDialect stores the menu dialect selected on the command line.
func WithDialect(ctx context.Context, d menu.Dialect) context.Context {
	return context.WithValue(ctx, dialectKey{}, d)
}

func dialectFrom(ctx context.Context) menu.Dialect {
	if d, ok := ctx.Value(dialectKey{}).(menu.Dialect); ok {
		return d
	}

	return menu.DefaultDialect
}

// WithOutput redirects command output, which defaults to stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// openSource opens a menu definition file, or stdin for "-".
func openSource(path string) (io.ReadCloser, error) {
	if path == stdinSource || path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err)
	}

	return f, nil
}

// parseSource reads and parses the menu definition at path.
func parseSource(ctx context.Context, path string) (*node.Node, error) {
	r, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return menu.ParseReader(ctx, r,
		menu.WithDialect(dialectFrom(ctx)),
		menu.WithLogger(log.Default().Component("parse")),
	)
}
