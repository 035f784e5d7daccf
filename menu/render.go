package menu

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/state"
)

// IDAllocator hands out native command ids from [native.FirstID] through
// [native.MaxID], then wraps to FirstID. Every [Renderer.Render] draws a
// fresh id for each static item, and a dynamic submenu draws new ids only
// when its provider emits more entries than in any earlier regeneration.
// Ids are unique until the range is exhausted; after a wrap, a menu that
// outgrows the range reuses live ids.
type IDAllocator struct {
	mu   sync.Mutex
	next uint16
}

// NewIDAllocator returns an allocator positioned at FirstID.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: native.FirstID}
}

// Next returns the next id.
func (a *IDAllocator) Next() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.next < native.FirstID {
		a.next = native.FirstID
	}

	id := a.next
	if a.next == native.MaxID {
		a.next = native.FirstID
	} else {
		a.next++
	}

	return id
}

// anchor binds a rendered submenu to its provider. block holds the ids
// given to the submenu's entries; each regeneration reuses them in order
// and only draws from the allocator when a provider emits more entries
// than ever before.
type anchor struct {
	menu     native.Handle
	id       uint16
	keyword  string
	state    native.State
	provider Provider
	block    []uint16
}

// RenderOption configures a [Renderer].
type RenderOption func(*Renderer)

// WithRegistry sets the dynamic provider registry. The default is
// [DefaultRegistry].
func WithRegistry(reg *Registry) RenderOption {
	return func(r *Renderer) { r.registry = reg }
}

// WithRenderDialect sets the dialect passed to providers and used for
// sibling merging of externally built trees.
func WithRenderDialect(d Dialect) RenderOption {
	return func(r *Renderer) { r.dialect = d }
}

// withIDAllocator shares an id allocator between renderers.
func withIDAllocator(ids *IDAllocator) RenderOption {
	return func(r *Renderer) { r.ids = ids }
}

// WithRenderLogger sets the renderer's logger.
func WithRenderLogger(logger log.Logger) RenderOption {
	return func(r *Renderer) { r.log = logger }
}

// Renderer turns descriptor trees into native menus and keeps the dynamic
// submenus of the current menu up to date.
//
// Render and Regenerate are called from the goroutine owning the menu;
// Command and Root may be called from any goroutine.
type Renderer struct {
	menu     native.Menu
	registry *Registry
	dialect  Dialect
	ids      *IDAllocator
	log      log.Logger

	mu       sync.RWMutex
	root     native.Handle
	prev     *node.Node
	prevHash uint64
	anchors  []anchor
}

// NewRenderer returns a Renderer drawing into m.
func NewRenderer(m native.Menu, opts ...RenderOption) *Renderer {
	r := &Renderer{
		menu:     m,
		registry: DefaultRegistry(),
		dialect:  DefaultDialect,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.ids == nil {
		r.ids = NewIDAllocator()
	}

	return r
}

// Render replaces the native menu with one built from tree, an Array of
// descriptors. A tree equal to the previously rendered one is ignored.
// Render reports whether the menu was rebuilt.
func (r *Renderer) Render(ctx context.Context, tree *node.Node) bool {
	if tree == nil {
		tree = node.NewArray()
	}

	hash := node.Fingerprint(tree)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prev != nil && hash == r.prevHash && node.Equal(r.prev, tree) {
		r.log.TraceContext(ctx, "render skipped")

		return false
	}

	if r.root != 0 {
		if err := r.menu.Destroy(r.root); err != nil {
			r.log.WarnContext(ctx, "destroy menu", slog.Any("error", err))
		}

		r.root = 0
	}

	r.anchors = nil
	r.prev = nil

	root, err := r.menu.CreatePopupMenu()
	if err != nil {
		r.log.ErrorContext(ctx, "create menu", slog.Any("error", err))

		return false
	}

	r.root = root
	r.build(ctx, root, tree, 0)
	r.prev = node.Copy(tree)
	r.prevHash = hash

	r.log.DebugContext(ctx, "menu rendered",
		slog.Int("items", r.menu.Count(root)),
		slog.Int("anchors", len(r.anchors)))

	return true
}

const maxDepth = 32

func (r *Renderer) build(ctx context.Context, h native.Handle, arr *node.Node, depth int) {
	if depth > maxDepth {
		r.log.WarnContext(ctx, "menu nesting too deep", slog.Int("depth", depth))

		return
	}

	// submenus already inserted at this level, by title
	var merged map[string]anchor

	for i, child := range arr.All() {
		d, ok := Describe(child)
		if !ok {
			r.log.TraceContext(ctx, "skip descriptor", slog.Int("index", i))

			continue
		}

		if d.State.Has(Hidden) {
			continue
		}

		switch d.Type {
		case TypeSeparator:
			r.insert(ctx, h, native.ItemInfo{ID: r.ids.Next(), Type: native.ItemSeparator})
		case TypeItem:
			r.insert(ctx, h, native.ItemInfo{
				ID:    r.ids.Next(),
				Title: Escape(d.DisplayTitle()),
				State: d.State.widget(),
				Data:  d.Cmd,
			})
		case TypeSubmenu:
			if sib, ok := merged[d.Title]; ok && r.dialect.Merge {
				r.build(ctx, sib.menu, d.Children, depth+1)
				r.bind(ctx, sib, d.Keyword)

				continue
			}

			sub, id, ok := r.submenu(ctx, h, d)
			if !ok {
				continue
			}

			if merged == nil {
				merged = make(map[string]anchor)
			}

			sib := anchor{menu: sub, id: id, state: d.State.widget()}
			merged[d.Title] = sib

			r.build(ctx, sub, d.Children, depth+1)
			r.bind(ctx, sib, d.Keyword)
		}
	}
}

// bind attaches the provider for keyword to the submenu sib. A submenu
// holds at most one provider; later keywords of merged siblings are
// ignored once one is bound.
func (r *Renderer) bind(ctx context.Context, sib anchor, keyword string) {
	if keyword == "" {
		return
	}

	for _, a := range r.anchors {
		if a.menu == sib.menu {
			return
		}
	}

	p, ok := r.registry.Lookup(keyword)
	if !ok {
		r.log.TraceContext(ctx, "unknown dynamic keyword", slog.String("keyword", keyword))

		return
	}

	sib.keyword = keyword
	sib.provider = p
	r.anchors = append(r.anchors, sib)
}

func (r *Renderer) submenu(ctx context.Context, h native.Handle, d Descriptor) (native.Handle, uint16, bool) {
	sub, err := r.menu.CreatePopupMenu()
	if err != nil {
		r.log.WarnContext(ctx, "create submenu",
			slog.String("title", d.Title),
			slog.Any("error", err))

		return 0, 0, false
	}

	id := r.ids.Next()

	if !r.insert(ctx, h, native.ItemInfo{
		ID:      id,
		Title:   Escape(d.Title),
		State:   d.State.widget(),
		Submenu: sub,
	}) {
		_ = r.menu.Destroy(sub)

		return 0, 0, false
	}

	return sub, id, true
}

func (r *Renderer) insert(ctx context.Context, h native.Handle, item native.ItemInfo) bool {
	if err := r.menu.Insert(h, item); err != nil {
		r.log.WarnContext(ctx, "insert menu item",
			slog.String("title", item.Title),
			slog.Any("error", err))

		return false
	}

	return true
}

// Regenerate refreshes every dynamic submenu of the current menu from
// cache: each is cleared, refilled by its provider, and its parent item is
// grayed when the provider produced nothing.
func (r *Renderer) Regenerate(ctx context.Context, cache *state.Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.anchors {
		a := &r.anchors[i]

		if err := r.menu.RemoveAll(a.menu); err != nil {
			r.log.WarnContext(ctx, "clear dynamic menu",
				slog.String("keyword", a.keyword),
				slog.Any("error", err))

			continue
		}

		em := &emitter{ctx: ctx, r: r, h: a.menu, block: &a.block}

		var filled bool

		cache.View(func(s *state.Snapshot) {
			filled = a.provider(Input{State: s, Dialect: r.dialect}, em)
		})

		filled = filled && em.n > 0

		st := a.state &^ native.StateDisabled
		if !filled {
			st |= native.StateDisabled
		}

		if err := r.menu.SetState(r.root, a.id, st); err != nil {
			r.log.WarnContext(ctx, "update dynamic menu state",
				slog.String("keyword", a.keyword),
				slog.Any("error", err))
		}

		r.log.TraceContext(ctx, "dynamic menu regenerated",
			slog.String("keyword", a.keyword),
			slog.Int("entries", em.n))
	}
}

type emitter struct {
	ctx   context.Context
	r     *Renderer
	h     native.Handle
	block *[]uint16
	k     int
	n     int
}

func (e *emitter) id() uint16 {
	defer func() { e.k++ }()

	if e.k < len(*e.block) {
		return (*e.block)[e.k]
	}

	id := e.r.ids.Next()
	*e.block = append(*e.block, id)

	return id
}

func (e *emitter) Emit(en Entry) {
	ok := e.r.insert(e.ctx, e.h, native.ItemInfo{
		ID:    e.id(),
		Title: Escape(joinTitle(en.Title, en.Supplement)),
		State: en.State,
		Data:  en.Cmd,
	})
	if ok {
		e.n++
	}
}

// Root returns the handle of the current native menu, or 0 before the
// first successful render.
func (r *Renderer) Root() native.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.root
}

// Anchors returns the keywords of the live dynamic submenus in render
// order.
func (r *Renderer) Anchors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.anchors))
	for i, a := range r.anchors {
		out[i] = a.keyword
	}

	return out
}

// Command returns the command bound to the item with the given id.
func (r *Renderer) Command(id uint16) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.root == 0 {
		return "", false
	}

	it, ok := r.menu.ItemByID(r.root, id)
	if !ok || it.Data == "" {
		return "", false
	}

	return it.Data, true
}

// Close destroys the native menu.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.anchors = nil
	r.prev = nil

	if r.root == 0 {
		return nil
	}

	err := r.menu.Destroy(r.root)
	r.root = 0

	return err
}
