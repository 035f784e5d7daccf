package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles for pretty printing. Colors degrade to plain text when the output
// is not a terminal.
var (
	styleKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleString = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleTrue   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFalse  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleTime   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleMsg    = lipgloss.NewStyle().Bold(true)

	styleLevel = map[slog.Level]lipgloss.Style{
		slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	}
)

// prettyHandler is a colorized single-line text handler.
type prettyHandler struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	mu         *sync.Mutex
	w          io.Writer
	attrs      []slog.Attr
	group      string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyHandler {
	return &prettyHandler{
		opts:       *opts,
		formatTime: formatTime,
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() && h.formatTime != nil {
		if ts := h.formatTime(r.Time); ts != "" {
			buf.WriteString(styleTime.Render(ts))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(levelStyle(r.Level).Render(fmt.Sprintf("%-5s", levelLabel(r.Level))))
	buf.WriteByte(' ')

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			buf.WriteString(styleKey.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(styleMsg.Render(r.Message))

	for _, a := range h.attrs {
		h.writeAttr(buf, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, h.group, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)

	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}

		clone.attrs = append(clone.attrs, a)
	}

	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}

	clone.group = name

	return &clone
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if group != "" {
		key = group + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, key, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(styleKey.Render(key + "="))
	buf.WriteString(renderValue(a.Value))
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return styleString.Render(v.String())
	case slog.KindInt64:
		return styleNumber.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return styleNumber.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return styleNumber.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return styleTrue.Render("true")
		}

		return styleFalse.Render("false")
	case slog.KindDuration:
		return styleNumber.Render(v.Duration().String())
	case slog.KindTime:
		return styleTime.Render(v.Time().String())
	default:
		return styleString.Render(v.String())
	}
}

func levelLabel(l slog.Level) string {
	return strings.ToUpper(Level(l).String())
}

func levelStyle(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return styleLevel[slog.LevelError]
	case l >= slog.LevelWarn:
		return styleLevel[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return styleLevel[slog.LevelInfo]
	default:
		return styleLevel[slog.LevelDebug]
	}
}
