package menu

import (
	"bufio"
	"io"
	"strings"

	"github.com/tsl0922/mpv-menu-plugin/node"
)

// Format writes tree back as input.conf menu lines using the "#menu:"
// trigger, one line per item, separator, empty or dynamic submenu. Parsing
// the output with a merging dialect yields a tree equal to tree, provided
// titles contain neither ">" nor "#" and state flags are limited to what
// the command implies.
func Format(w io.Writer, tree *node.Node) error {
	bw := bufio.NewWriter(w)

	if err := formatLevel(bw, tree, nil); err != nil {
		return err
	}

	return bw.Flush()
}

func formatLevel(w *bufio.Writer, arr *node.Node, path []string) error {
	for _, child := range arr.All() {
		d, ok := Describe(child)
		if !ok {
			continue
		}

		switch d.Type {
		case TypeSeparator:
			if err := writeLine(w, Placeholder, NoopCommand, path, "-", ""); err != nil {
				return err
			}
		case TypeItem:
			key := d.Shortcut
			if key == "" {
				key = Placeholder
			}

			if err := writeLine(w, key, d.Cmd, path, d.Title, ""); err != nil {
				return err
			}
		case TypeSubmenu:
			if d.Keyword != "" || d.Children.Len() == 0 {
				if err := writeLine(w, Placeholder, "", path, d.Title, d.Keyword); err != nil {
					return err
				}
			}

			if err := formatLevel(w, d.Children, append(path, d.Title)); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeLine(w *bufio.Writer, key, cmd string, path []string, name, keyword string) error {
	var b strings.Builder

	b.WriteString(key)
	b.WriteByte(' ')

	if cmd != "" {
		b.WriteString(cmd)
		b.WriteByte(' ')
	}

	b.WriteString(Trigger)
	b.WriteByte(' ')

	for _, p := range path {
		b.WriteString(p)
		b.WriteString(" > ")
	}

	b.WriteString(name)

	if keyword != "" {
		b.WriteByte(' ')
		b.WriteString(DynamicMarker)
		b.WriteString(keyword)
	}

	b.WriteByte('\n')

	_, err := w.WriteString(b.String())

	return err
}
