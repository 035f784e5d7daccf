package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/tsl0922/mpv-menu-plugin/menu"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Parse prints the descriptor tree built from a menu definition.
type Parse struct {
	Format string `default:"json" enum:"json,yaml" help:"Output format." short:"f"`
	Native bool   `help:"Print the rendered native menu instead of the descriptor tree." short:"n"`

	Source string `arg:"" default:"-" help:"Menu definition file or '-' for stdin." name:"source"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	tree, err := parseSource(ctx, p.Source)
	if err != nil {
		return err
	}

	if p.Native {
		mem := native.NewMemory()
		r := menu.NewRenderer(mem, menu.WithRenderDialect(dialectFrom(ctx)))
		r.Render(ctx, tree)

		tree = mem.Dump(r.Root())
	}

	return encode(outputFrom(ctx), tree, p.Format)
}

// encode writes n as indented JSON or YAML.
func encode(w io.Writer, n *node.Node, format string) error {
	switch format {
	case "yaml":
		b, err := node.EncodeYAML(n)
		if err != nil {
			return err
		}

		_, err = w.Write(b)

		return err

	case "json", "":
		b, err := n.MarshalJSON()
		if err != nil {
			return pkg.ErrJSONMarshal.Wrap(err)
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, b, "", "  "); err != nil {
			return pkg.ErrJSONMarshal.Wrap(err)
		}

		buf.WriteByte('\n')

		_, err = buf.WriteTo(w)

		return err

	default:
		return pkg.ErrInvalidFormat.With(slog.String("format", format))
	}
}
