// Package tui shows native menus in a terminal. It is the tracker used by
// the run and preview commands when no windowing system is attached.
package tui

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

const (
	defaultWidth   = 80
	defaultHeight  = 24
	separatorWidth = 32
)

// Option configures a [Tracker].
type Option func(*Tracker)

// WithInput reads keys from r instead of stdin.
func WithInput(r io.Reader) Option {
	return func(t *Tracker) { t.in = r }
}

// WithOutput draws to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(t *Tracker) { t.out = w }
}

// WithLogger sets the tracker's logger.
func WithLogger(logger log.Logger) Option {
	return func(t *Tracker) { t.log = logger }
}

// Tracker implements [native.Tracker] with an interactive terminal list.
// Entries are filtered by typing; Enter opens a submenu or chooses an
// item, Esc clears the filter or goes back.
type Tracker struct {
	in  io.Reader
	out io.Writer
	log log.Logger
}

// New returns a Tracker on stdin and stdout.
func New(opts ...Option) *Tracker {
	t := &Tracker{in: os.Stdin, out: os.Stdout}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ContentRect returns the terminal size in cells. Outputs that are not a
// terminal report the default 80x24.
func (t *Tracker) ContentRect() (native.Rect, error) {
	w, h := defaultWidth, defaultHeight

	if f, ok := t.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tw, th, err := term.GetSize(int(f.Fd()))
		if err != nil {
			return native.Rect{}, pkg.WrapError(err).With(slog.String("op", "terminal size"))
		}

		w, h = tw, th
	}

	return native.Rect{Right: w, Bottom: h}, nil
}

// Track runs the menu rooted at h until an item is chosen or the menu is
// dismissed. pt is ignored; the menu is drawn inline.
func (t *Tracker) Track(ctx context.Context, m native.Menu, h native.Handle, _ native.Point) (uint16, bool, error) {
	if m.Count(h) < 0 {
		return 0, false, native.ErrInvalidHandle.With(slog.Uint64("handle", uint64(h)))
	}

	p := tea.NewProgram(newModel(ctx, m, h, t.log),
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)

	final, err := p.Run()
	if err != nil {
		return 0, false, err
	}

	res, _ := final.(model)

	t.log.DebugContext(ctx, "menu closed",
		slog.Bool("chosen", res.ok),
		slog.Int("id", int(res.chosen)))

	return res.chosen, res.ok, nil
}
