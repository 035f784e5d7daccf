package menu

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Option configures parsing.
type Option func(*parser)

// WithDialect selects the mini-language dialect. The default is
// [DefaultDialect].
func WithDialect(d Dialect) Option {
	return func(p *parser) { p.dialect = d }
}

// WithLogger sets the logger that traces skipped lines.
func WithLogger(logger log.Logger) Option {
	return func(p *parser) { p.logger = logger }
}

type parser struct {
	dialect Dialect
	logger  log.Logger

	// scopes maps a parent submenu array to its child submenus by title.
	scopes map[*node.Node]map[string]*node.Node
}

func newParser(opts ...Option) *parser {
	p := &parser{
		dialect: DefaultDialect,
		scopes:  make(map[*node.Node]map[string]*node.Node),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse builds a descriptor tree from input.conf lines. It never fails:
// lines that are not menu lines, or whose menu spec is empty, are skipped.
// The result is an Array of descriptor maps (see [Describe]).
func Parse(ctx context.Context, lines iter.Seq[string], opts ...Option) *node.Node {
	p := newParser(opts...)
	root := node.NewArray()

	n := 0
	for line := range lines {
		n++
		p.line(ctx, root, n, line)
	}

	p.logger.DebugContext(ctx, "menu parsed",
		slog.Int("lines", n),
		slog.Int("items", root.Len()))

	return root
}

// ParseLines parses a slice of lines.
func ParseLines(ctx context.Context, lines []string, opts ...Option) *node.Node {
	return Parse(ctx, slices.Values(lines), opts...)
}

// ParseString parses newline-separated input.
func ParseString(ctx context.Context, source string, opts ...Option) *node.Node {
	return Parse(ctx, splitLines(source), opts...)
}

func splitLines(source string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(source) {
			if !yield(strings.TrimRight(line, "\r\n")) {
				return
			}
		}
	}
}

func (p *parser) line(ctx context.Context, root *node.Node, n int, line string) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if line == "" {
		return
	}

	var key, cmd string

	if rest, ok := strings.CutPrefix(line, "#"); ok {
		if !p.dialect.MessageSyntax {
			return
		}

		cmd = strings.TrimSpace(rest)
	} else {
		i := strings.IndexFunc(line, unicode.IsSpace)
		if i < 0 {
			p.logger.TraceContext(ctx, "skip line without command", slog.Int("line", n))

			return
		}

		key, cmd = line[:i], strings.TrimSpace(line[i:])
	}

	left, right, ok := p.dialect.split(cmd)
	if !ok {
		return
	}

	p.logger.TraceContext(ctx, "menu line",
		slog.Int("line", n),
		slog.String("key", key),
		slog.String("spec", right))

	p.spec(ctx, root, key, left, right)
}

// spec places one menu spec "NAME [> NAME]..." under root. The path is
// resolved before anything is created, so a spec with an empty name at any
// level leaves the tree untouched.
func (p *parser) spec(ctx context.Context, root *node.Node, key, cmd, text string) {
	var path []string

	for {
		name, rest, nested := strings.Cut(text, ">")
		name, comment, commented := strings.Cut(name, "#")

		name = strings.TrimSpace(name)
		if name == "" {
			p.logger.TraceContext(ctx, "skip empty menu name", slog.Any("path", path))

			return
		}

		if p.dialect.isSeparator(name) {
			p.descend(root, path).AppendNode(NewSeparator())

			return
		}

		if nested {
			path = append(path, name)
			if commented {
				// the rest of the spec is a comment
				p.descend(root, path)

				return
			}

			text = rest

			continue
		}

		p.leaf(p.descend(root, path), key, cmd, name, comment, commented)

		return
	}
}

func (p *parser) leaf(parent *node.Node, key, cmd, name, comment string, commented bool) {
	keyword, dynamic := "", false
	if commented {
		if ann, ok := strings.CutPrefix(comment, "@"); ok {
			dynamic = true
			keyword, _, _ = strings.Cut(ann, "#")
			keyword = strings.TrimRightFunc(keyword, unicode.IsSpace)
		}
	}

	if dynamic || cmd == "" {
		sub := p.submenu(parent, name)
		if keyword != "" {
			if _, ok := sub.Get("keyword"); !ok {
				sub.SetString("keyword", keyword)
			}
		}

		return
	}

	var state State
	if cmd == NoopCommand || strings.HasPrefix(cmd, "#") {
		state = Disabled
	}

	parent.AppendNode(NewItem(name, key, cmd, state))
}

// descend returns the child array at path below root, creating or merging
// submenus along the way.
func (p *parser) descend(root *node.Node, path []string) *node.Node {
	parent := root
	for _, name := range path {
		parent = children(p.submenu(parent, name))
	}

	return parent
}

// submenu returns the child submenu of parent titled name, creating it
// unless merging finds an existing one.
func (p *parser) submenu(parent *node.Node, name string) *node.Node {
	scope := p.scopes[parent]
	if scope == nil {
		scope = make(map[string]*node.Node)
		p.scopes[parent] = scope
	}

	if p.dialect.Merge {
		if sub, ok := scope[name]; ok {
			return sub
		}
	}

	sub := parent.AppendNode(NewSubmenu(name, ""))
	if _, ok := scope[name]; !ok {
		scope[name] = sub
	}

	return sub
}

func children(sub *node.Node) *node.Node {
	c, _ := sub.Get("submenu")

	return c
}

// cache maps a (source, dialect) key to a *cached entry.
var cache sync.Map

type cached struct {
	once sync.Once
	tree *node.Node
}

// ParseReader reads all of r and parses it. Results are memoized by a hash
// of the content and dialect; every call returns an independent copy.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*node.Node, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	p := newParser(opts...)

	sourceHash := xxh3.Hash(data)
	dialectHash := xxh3.Hash([]byte{byte(p.dialect.bits())})
	key := strconv.FormatUint(sourceHash^dialectHash, 36)

	value, hit := cache.LoadOrStore(key, new(cached))
	entry := value.(*cached)

	p.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.Bool("cache_hit", hit))

	entry.once.Do(func() {
		entry.tree = ParseString(ctx, string(data), opts...)
	})

	return node.Copy(entry.tree), nil
}

// ClearCache drops every memoized parse result.
func ClearCache() {
	cache.Range(func(k, _ any) bool {
		cache.Delete(k)

		return true
	})
}
