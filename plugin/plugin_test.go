package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/menu"
	"github.com/tsl0922/mpv-menu-plugin/mpv"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
	"github.com/tsl0922/mpv-menu-plugin/state"
	"github.com/tsl0922/mpv-menu-plugin/telemetry"
)

type fakeHost struct {
	events chan mpv.Event
	props  map[string]*node.Node
	paths  map[string]string

	mu       sync.Mutex
	observed []string
	commands []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		events: make(chan mpv.Event, 16),
		props:  map[string]*node.Node{},
		paths:  map[string]string{},
	}
}

func (h *fakeHost) ObserveProperty(_ context.Context, _ int64, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.observed = append(h.observed, name)

	return nil
}

func (h *fakeHost) GetProperty(_ context.Context, name string) (*node.Node, error) {
	if v, ok := h.props[name]; ok {
		return v, nil
	}

	return nil, pkg.ErrCommand
}

func (h *fakeHost) ExpandPath(_ context.Context, path string) (string, error) {
	if p, ok := h.paths[path]; ok {
		return p, nil
	}

	return "", pkg.ErrCommand
}

func (h *fakeHost) CommandString(_ context.Context, cmd string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.commands = append(h.commands, cmd)

	return nil
}

func (h *fakeHost) Events() <-chan mpv.Event { return h.events }

func (h *fakeHost) sent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.commands...)
}

func (h *fakeHost) property(name string, v *node.Node) {
	h.events <- mpv.Event{Kind: mpv.EventPropertyChange, Name: name, Data: v}
}

func (h *fakeHost) message(args ...string) {
	h.events <- mpv.Event{Kind: mpv.EventClientMessage, Args: args}
}

func (h *fakeHost) shutdown() {
	h.events <- mpv.Event{Kind: mpv.EventShutdown}
}

// fakeTracker picks an item with choose.
type fakeTracker struct {
	rect   native.Rect
	choose func(m native.Menu, h native.Handle) (uint16, bool)

	mu     sync.Mutex
	shown  []native.Point
	tracks int
}

func (t *fakeTracker) ContentRect() (native.Rect, error) { return t.rect, nil }

func (t *fakeTracker) Track(_ context.Context, m native.Menu, h native.Handle, pt native.Point) (uint16, bool, error) {
	t.mu.Lock()
	t.shown = append(t.shown, pt)
	t.tracks++
	t.mu.Unlock()

	if t.choose == nil {
		return 0, false, nil
	}

	id, ok := t.choose(m, h)

	return id, ok, nil
}

func (t *fakeTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.tracks
}

func chooseSubtitleOff(m native.Menu, h native.Handle) (uint16, bool) {
	sub, ok := m.Item(h, 0)
	if !ok {
		return 0, false
	}

	off, ok := m.Item(sub.Submenu, 1)
	if !ok {
		return 0, false
	}

	return off.ID, true
}

func subtitleTrack() *node.Node {
	list := node.NewArray()
	tr := list.Append(node.KindMap)
	tr.SetInt64("id", 1)
	tr.SetString("type", "sub")
	tr.SetString("title", "Eng")
	tr.SetFlag("selected", true)

	return list
}

const inline = MemoryScheme + "_ ignore #menu: Subtitles #@tracks/sub\nq quit #menu: Quit\n"

func runPlugin(t *testing.T, mode Mode) {
	t.Helper()

	host := newFakeHost()
	tracker := &fakeTracker{
		rect:   native.Rect{Right: 100, Bottom: 100},
		choose: chooseSubtitleOff,
	}

	conf := DefaultConfig()
	conf.InputConf = inline
	conf.Mode = mode

	mem := native.NewMemory()
	tel := telemetry.New()
	p := New(host, mem, tracker, conf, WithMeter(tel.Meter("dispatch")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()

	host.property("track-list", subtitleTrack())
	host.property("sid", node.NewInt64(1))
	host.message("show", "10", "20")

	require.Eventually(t, func() bool { return len(host.sent()) == 1 },
		2*time.Second, time.Millisecond)

	host.shutdown()
	require.NoError(t, <-errc)

	assert.Equal(t, []string{"set sid no"}, host.sent())
	assert.Equal(t, []native.Point{{X: 10, Y: 20}}, tracker.shown)
	assert.Equal(t, 0, mem.Live(), "menu destroyed on exit")

	names := make([]string, 0)
	for _, prop := range state.Properties() {
		names = append(names, prop.Name)
	}

	assert.Equal(t, append(names, MenuProperty), host.observed)
	assert.False(t, p.Queue().Enqueue(func(context.Context) {}), "queue closed after Run")

	totals, err := tel.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals["dispatch.executed"])
	assert.Equal(t, int64(1), totals["dispatch.dropped"])
}

func TestRun_ThreadMode(t *testing.T) { runPlugin(t, ModeThread) }

func TestRun_DrainMode(t *testing.T) { runPlugin(t, ModeDrain) }

func TestRun_MenuProperty(t *testing.T) {
	host := newFakeHost()
	conf := DefaultConfig()
	conf.Load = false

	p := New(host, native.NewMemory(), &fakeTracker{}, conf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()

	host.property(MenuProperty, node.NewString("not a menu"))
	host.property(MenuProperty, node.NewArray(menu.NewItem("Quit", "q", "quit", 0)))

	require.Eventually(t, func() bool { return p.Renderer().Root() != 0 },
		2*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestRun_ConnectionClosed(t *testing.T) {
	host := newFakeHost()
	conf := DefaultConfig()
	conf.Load = false

	p := New(host, native.NewMemory(), &fakeTracker{}, conf)

	close(host.events)
	assert.NoError(t, p.Run(context.Background()))
}

func TestShowMenu_Guards(t *testing.T) {
	ctx := context.Background()
	host := newFakeHost()
	tracker := &fakeTracker{rect: native.Rect{Left: 0, Top: 0, Right: 50, Bottom: 50}}

	p := New(host, native.NewMemory(), tracker, DefaultConfig())

	shown, err := p.ShowMenu(ctx, nil)
	require.NoError(t, err)
	assert.False(t, shown, "nothing to show before a menu is loaded")

	require.True(t, p.SetMenu(ctx, menu.ParseString(ctx, "q quit #menu: Quit")))

	shown, err = p.ShowMenu(ctx, &native.Point{X: 80, Y: 10})
	require.NoError(t, err)
	assert.False(t, shown)
	assert.Equal(t, 0, tracker.count(), "points outside the content area are ignored")

	shown, err = p.ShowMenu(ctx, nil)
	require.NoError(t, err)
	assert.False(t, shown, "dismissed menu enqueues nothing")
	assert.Equal(t, []native.Point{{X: 25, Y: 25}}, tracker.shown)

	assert.False(t, p.HandleMenu(1), "unknown id")
}

func TestLoad_FromExpandedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.conf")
	require.NoError(t, os.WriteFile(path, []byte("f cycle fullscreen #menu: Fullscreen\n"), 0o600))

	host := newFakeHost()
	host.props["input-conf"] = node.NewString("")
	host.paths[DefaultInputConf] = path

	mem := native.NewMemory()
	p := New(host, mem, &fakeTracker{}, DefaultConfig())

	require.NoError(t, p.Load(context.Background()))

	it, ok := mem.Item(p.Renderer().Root(), 0)
	require.True(t, ok)
	assert.Equal(t, "Fullscreen\tf", it.Title)
}

func TestLoad_MissingFile(t *testing.T) {
	host := newFakeHost()
	host.props["input-conf"] = node.NewString(filepath.Join(t.TempDir(), "missing.conf"))

	p := New(host, native.NewMemory(), &fakeTracker{}, DefaultConfig())

	err := p.Load(context.Background())
	assert.ErrorIs(t, err, pkg.ErrReadInput)
	assert.Equal(t, native.Handle(0), p.Renderer().Root())
}

func TestReadScriptOpts(t *testing.T) {
	conf := DefaultConfig()

	src := strings.Join([]string{
		"# menu options",
		"uosc = yes",
		"load=no",
		"bogus=1",
		"novalue=",
		"junk",
	}, "\n")

	require.NoError(t, ReadScriptOpts(strings.NewReader(src), &conf, log.Logger{}))
	assert.Equal(t, menu.UOSCDialect, conf.Dialect)
	assert.False(t, conf.Load)

	require.NoError(t, ReadScriptOpts(strings.NewReader("uosc=no"), &conf, log.Logger{}))
	assert.Equal(t, menu.DefaultDialect, conf.Dialect)
}

func TestReadScriptOpts_UOSCKeepsOtherSettings(t *testing.T) {
	conf := DefaultConfig()
	conf.Dialect = menu.Dialect{AltTrigger: true, MessageSyntax: true, DashSeparator: true}

	require.NoError(t, ReadScriptOpts(strings.NewReader("uosc=no"), &conf, log.Logger{}))
	assert.Equal(t, menu.Dialect{}, conf.Dialect, "merge and sub-off stay off")

	conf.Dialect = menu.Dialect{SubOff: true}

	require.NoError(t, ReadScriptOpts(strings.NewReader("uosc=yes"), &conf, log.Logger{}))
	assert.Equal(t, menu.Dialect{
		AltTrigger:    true,
		MessageSyntax: true,
		DashSeparator: true,
		SubOff:        true,
	}, conf.Dialect)
}

func TestParsePoint(t *testing.T) {
	assert.Nil(t, parsePoint(nil))
	assert.Nil(t, parsePoint([]string{"1"}))
	assert.Nil(t, parsePoint([]string{"x", "2"}))
	assert.Equal(t, &native.Point{X: 3, Y: 4}, parsePoint([]string{"3", "4", "extra"}))
}
