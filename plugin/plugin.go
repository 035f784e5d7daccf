// Package plugin wires the player connection, the live-state cache, the
// menu renderer and the command queue into a running context menu.
//
// Two goroutines share a [Plugin]: the event loop started by [Plugin.Run]
// is the only writer of the state cache, and the UI goroutine shows the
// menu and enqueues the chosen command.
package plugin

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/tsl0922/mpv-menu-plugin/dispatch"
	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/menu"
	"github.com/tsl0922/mpv-menu-plugin/mpv"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/state"
)

// MenuProperty carries a descriptor tree published by other scripts.
const MenuProperty = "user-data/menu/items"

// Host is the player connection.
type Host interface {
	ObserveProperty(ctx context.Context, id int64, name string) error
	GetProperty(ctx context.Context, name string) (*node.Node, error)
	ExpandPath(ctx context.Context, path string) (string, error)
	CommandString(ctx context.Context, cmd string) error
	Events() <-chan mpv.Event
}

// Option configures a [Plugin].
type Option func(*Plugin)

// WithLogger sets the logger shared by the plugin's components.
func WithLogger(logger log.Logger) Option {
	return func(p *Plugin) { p.log = logger }
}

// WithMeter records the command queue counters through m.
func WithMeter(m metric.Meter) Option {
	return func(p *Plugin) { p.meter = m }
}

// WithRegistry replaces the dynamic provider registry.
func WithRegistry(reg *menu.Registry) Option {
	return func(p *Plugin) { p.registry = reg }
}

// Plugin is one running menu instance.
type Plugin struct {
	host     Host
	menu     native.Menu
	tracker  native.Tracker
	conf     Config
	log      log.Logger
	registry *menu.Registry
	meter    metric.Meter

	cache    *state.Cache
	queue    *dispatch.Queue
	renderer *menu.Renderer

	show chan *native.Point
}

// New returns a Plugin drawing into m and showing menus through tr.
func New(host Host, m native.Menu, tr native.Tracker, conf Config, opts ...Option) *Plugin {
	p := &Plugin{
		host:     host,
		menu:     m,
		tracker:  tr,
		conf:     conf,
		registry: menu.DefaultRegistry(),
		show:     make(chan *native.Point, 1),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.cache = state.New(state.WithLogger(p.log.Component("state")))
	qopts := []dispatch.Option{dispatch.WithLogger(p.log.Component("dispatch"))}
	if p.meter != nil {
		qopts = append(qopts, dispatch.WithMeter(p.meter))
	}

	p.queue = dispatch.New(qopts...)
	p.renderer = menu.NewRenderer(m,
		menu.WithRegistry(p.registry),
		menu.WithRenderDialect(conf.Dialect),
		menu.WithRenderLogger(p.log.Component("render")),
	)

	return p
}

// Cache returns the live-state cache.
func (p *Plugin) Cache() *state.Cache { return p.cache }

// Renderer returns the menu renderer.
func (p *Plugin) Renderer() *menu.Renderer { return p.renderer }

// Queue returns the command queue.
func (p *Plugin) Queue() *dispatch.Queue { return p.queue }

// Run observes the player, loads the menu and processes events until the
// player shuts down, the connection ends, or ctx is done. On return the
// queue is closed and the native menu destroyed.
func (p *Plugin) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.observe(ctx)

	if p.conf.Load {
		if err := p.Load(ctx); err != nil {
			p.log.WarnContext(ctx, "load menu", slog.Any("error", err))
		}
	}

	var wg sync.WaitGroup

	if p.conf.Mode == ModeThread {
		wg.Go(func() { _ = p.queue.Run(context.WithoutCancel(ctx)) })
	}

	wg.Go(func() { p.ui(ctx) })

	err := p.loop(ctx)

	p.queue.Close(p.conf.Mode == ModeDrain)
	cancel()
	wg.Wait()

	if cerr := p.renderer.Close(); cerr != nil {
		p.log.DebugContext(ctx, "close menu", slog.Any("error", cerr))
	}

	p.log.DebugContext(ctx, "plugin stopped")

	return err
}

func (p *Plugin) observe(ctx context.Context) {
	props := state.Properties()

	names := make([]string, 0, len(props)+1)
	for _, prop := range props {
		names = append(names, prop.Name)
	}

	names = append(names, MenuProperty)

	for i, name := range names {
		if err := p.host.ObserveProperty(ctx, int64(i+1), name); err != nil {
			p.log.WarnContext(ctx, "observe property",
				slog.String("name", name),
				slog.Any("error", err))
		}
	}
}

func (p *Plugin) loop(ctx context.Context) error {
	events := p.host.Events()

	// a nil channel never fires; in thread mode the consumer owns the signal
	var wake <-chan struct{}
	if p.conf.Mode == ModeDrain {
		wake = p.queue.Wake()
	}

	for {
		if p.conf.Mode == ModeDrain {
			p.queue.Drain(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		case ev, ok := <-events:
			if !ok {
				p.log.DebugContext(ctx, "host connection closed")

				return nil
			}

			if !p.handle(ctx, ev) {
				return nil
			}
		}
	}
}

// handle processes one event and reports whether the loop continues.
func (p *Plugin) handle(ctx context.Context, ev mpv.Event) bool {
	switch ev.Kind {
	case mpv.EventPropertyChange:
		if ev.Name == MenuProperty {
			p.SetMenu(ctx, ev.Data)

			return true
		}

		p.cache.Apply(ev.Name, ev.Data)
	case mpv.EventClientMessage:
		if len(ev.Args) == 0 || ev.Args[0] != "show" {
			return true
		}

		p.RequestShow(parsePoint(ev.Args[1:]))
	case mpv.EventShutdown:
		p.log.DebugContext(ctx, "host shutdown")

		return false
	case mpv.EventOther:
	}

	return true
}

func parsePoint(args []string) *native.Point {
	if len(args) < 2 {
		return nil
	}

	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])

	if errX != nil || errY != nil {
		return nil
	}

	return &native.Point{X: x, Y: y}
}

// SetMenu renders a descriptor tree published through [MenuProperty].
// Values other than an Array are ignored.
func (p *Plugin) SetMenu(ctx context.Context, tree *node.Node) bool {
	if !tree.Is(node.KindArray) {
		p.log.TraceContext(ctx, "ignore menu data", slog.String("kind", tree.Kind().String()))

		return false
	}

	return p.renderer.Render(ctx, tree)
}

// RequestShow asks the UI goroutine to show the menu at pt, or at the
// center of the content area when pt is nil. A request made while another
// is pending is dropped.
func (p *Plugin) RequestShow(pt *native.Point) bool {
	select {
	case p.show <- pt:
		return true
	default:
		return false
	}
}

func (p *Plugin) ui(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pt := <-p.show:
			if _, err := p.ShowMenu(ctx, pt); err != nil {
				p.log.WarnContext(ctx, "show menu", slog.Any("error", err))
			}
		}
	}
}

// ShowMenu refreshes the dynamic submenus and tracks the menu at pt. It
// does nothing when pt lies outside the content area or no menu is
// loaded. The chosen command, if any, is enqueued; ShowMenu reports
// whether one was.
func (p *Plugin) ShowMenu(ctx context.Context, pt *native.Point) (bool, error) {
	rc, err := p.tracker.ContentRect()
	if err != nil {
		return false, err
	}

	at := native.Point{X: (rc.Left + rc.Right) / 2, Y: (rc.Top + rc.Bottom) / 2}
	if pt != nil {
		at = *pt
	}

	if !rc.Contains(at) {
		p.log.TraceContext(ctx, "show outside content area", slog.Int("x", at.X), slog.Int("y", at.Y))

		return false, nil
	}

	root := p.renderer.Root()
	if root == 0 {
		return false, nil
	}

	p.renderer.Regenerate(ctx, p.cache)

	id, ok, err := p.tracker.Track(ctx, p.menu, root, at)
	if err != nil || !ok {
		return false, err
	}

	return p.HandleMenu(id), nil
}

// HandleMenu enqueues the command bound to item id.
func (p *Plugin) HandleMenu(id uint16) bool {
	cmd, ok := p.renderer.Command(id)
	if !ok {
		return false
	}

	return p.queue.EnqueueCommand(p.host, cmd)
}
