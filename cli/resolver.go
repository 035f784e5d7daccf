package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tsl0922/mpv-menu-plugin/node"
)

// resolve is a [kong.ConfigurationLoader] that reads a YAML configuration
// file.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// The document is a mapping from flag names to values. Names may use
// hyphens or underscores, and nested mappings are flattened by joining keys
// with a hyphen:
//
//	log:
//	  level: debug
//	  pretty: false
//	uosc: true
//	sub_off: false
//
// This configuration will be applied to Kong flags:
//
//	--log-level=debug
//	--no-log-pretty
//	--uosc
//	--no-sub-off
//
// Command-line flags override config file values. A file that is not valid
// YAML, or whose document is not a mapping, yields an empty configuration.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return config{}, nil
	}

	doc, err := node.DecodeYAML(data)
	if err != nil || !doc.Is(node.KindMap) {
		return config{}, nil
	}

	cfg := make(config)
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] for flattened YAML configs.
type config map[string]any

func (r config) flatten(prefix string, m *node.Node) {
	for key, val := range m.Pairs() {
		name := strings.ReplaceAll(key, "_", "-")
		if prefix != "" {
			name = prefix + "-" + name
		}

		if val.Is(node.KindMap) {
			r.flatten(name, val)

			continue
		}

		if v, ok := scalar(val); ok {
			if _, dup := r[name]; !dup {
				r[name] = v
			}
		}
	}
}

// scalar converts a leaf to the value kong expects. Kong parses numbers
// from strings; sequences become string slices.
func scalar(n *node.Node) (any, bool) {
	switch n.Kind() {
	case node.KindFlag:
		v, _ := n.Flag()

		return v, true
	case node.KindInt64:
		v, _ := n.Int64()

		return strconv.FormatInt(v, 10), true
	case node.KindDouble:
		v, _ := n.Double()

		return strconv.FormatFloat(v, 'f', -1, 64), true
	case node.KindString:
		v, _ := n.Str()

		return v, true
	case node.KindArray:
		out := make([]any, 0, n.Len())

		for _, e := range n.All() {
			if v, ok := scalar(e); ok {
				out = append(out, v)
			}
		}

		return out, true
	default:
		return nil, false
	}
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
