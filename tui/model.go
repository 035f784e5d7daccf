package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/native"
)

// Styles.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
)

const filterPrompt = "/ "

// level is one open menu in the navigation stack.
type level struct {
	title  string
	handle native.Handle
	items  []native.ItemInfo
}

// row is a visible entry of the current level.
type row struct {
	item    native.ItemInfo
	matched []int // byte offsets of the filter match in the label
}

type model struct {
	ctx   context.Context
	menu  native.Menu
	log   log.Logger
	stack []level

	filter textinput.Model
	rows   []row
	cursor int
	width  int

	chosen   uint16
	ok       bool
	quitting bool
}

func newModel(ctx context.Context, m native.Menu, h native.Handle, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = hintStyle.Render(filterPrompt)
	ti.Placeholder = "type to filter"
	ti.Focus()
	ti.CharLimit = 256

	mod := model{
		ctx:    ctx,
		menu:   m,
		log:    logger,
		filter: ti,
		width:  defaultWidth,
	}

	mod.push("", h)

	return mod
}

func (m *model) push(title string, h native.Handle) {
	n := m.menu.Count(h)

	items := make([]native.ItemInfo, 0, max(n, 0))
	for i := range n {
		if it, ok := m.menu.Item(h, i); ok {
			items = append(items, it)
		}
	}

	m.stack = append(m.stack, level{title: title, handle: h, items: items})
	m.filter.SetValue("")
	m.refresh()
	m.cursor = m.next(-1, 1)
}

func (m *model) pop() bool {
	if len(m.stack) <= 1 {
		return false
	}

	m.stack = m.stack[:len(m.stack)-1]
	m.filter.SetValue("")
	m.refresh()
	m.cursor = m.next(-1, 1)

	return true
}

func (m *model) top() level { return m.stack[len(m.stack)-1] }

// label is the display text of an item without the shortcut column.
func label(it native.ItemInfo) (name, shortcut string) {
	name, shortcut, _ = strings.Cut(it.Title, "\t")

	return strings.ReplaceAll(name, "&&", "&"), shortcut
}

// refresh recomputes the visible rows from the filter. An empty filter
// shows every entry; otherwise separators are hidden and entries are
// ranked by fuzzy match score.
func (m *model) refresh() {
	items := m.top().items
	query := m.filter.Value()

	m.rows = nil

	if query == "" {
		for _, it := range items {
			m.rows = append(m.rows, row{item: it})
		}

		return
	}

	names := make([]string, 0, len(items))
	index := make([]int, 0, len(items))

	for i, it := range items {
		if it.Type == native.ItemSeparator {
			continue
		}

		name, _ := label(it)
		names = append(names, name)
		index = append(index, i)
	}

	for _, match := range fuzzy.Find(query, names) {
		m.rows = append(m.rows, row{
			item:    items[index[match.Index]],
			matched: match.MatchedIndexes,
		})
	}
}

func selectable(it native.ItemInfo) bool {
	return it.Type != native.ItemSeparator && !it.State.Has(native.StateDisabled)
}

// next returns the first selectable row after from in direction dir, or
// from when there is none.
func (m *model) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.rows); i += dir {
		if selectable(m.rows[i].item) {
			return i
		}
	}

	if from < 0 {
		return 0
	}

	return from
}

func (m model) current() (native.ItemInfo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return native.ItemInfo{}, false
	}

	it := m.rows[m.cursor].item

	return it, selectable(it)
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.filter.Width = msg.Width - len(filterPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)

	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.log.TraceContext(m.ctx, "menu key", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true

		return m, tea.Quit

	case tea.KeyEsc, tea.KeyLeft:
		if msg.Type == tea.KeyEsc && m.filter.Value() != "" {
			m.filter.SetValue("")
			m.refresh()
			m.cursor = m.next(-1, 1)

			return m, nil
		}

		if !m.pop() && msg.Type == tea.KeyEsc {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyUp:
		m.cursor = m.next(m.cursor, -1)

		return m, nil

	case tea.KeyDown:
		m.cursor = m.next(m.cursor, 1)

		return m, nil

	case tea.KeyEnter, tea.KeyRight:
		it, ok := m.current()
		if !ok {
			return m, nil
		}

		if it.Submenu != 0 {
			name, _ := label(it)
			m.push(name, it.Submenu)

			return m, nil
		}

		if msg.Type == tea.KeyRight {
			return m, nil
		}

		m.chosen, m.ok = it.ID, true
		m.quitting = true

		return m, tea.Quit
	}

	before := m.filter.Value()

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)

	if m.filter.Value() != before {
		m.refresh()
		m.cursor = m.next(-1, 1)
	}

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	path := make([]string, 0, len(m.stack))
	for _, l := range m.stack[1:] {
		path = append(path, l.title)
	}

	if len(path) > 0 {
		b.WriteString(titleStyle.Render(strings.Join(path, " › ")))
		b.WriteByte('\n')
	}

	for i, r := range m.rows {
		b.WriteString(m.renderRow(r, i == m.cursor))
		b.WriteByte('\n')
	}

	if len(m.rows) == 0 {
		b.WriteString(hintStyle.Render("(empty)"))
		b.WriteByte('\n')
	}

	b.WriteString(m.filter.View())

	return b.String()
}

func (m model) renderRow(r row, selected bool) string {
	it := r.item

	if it.Type == native.ItemSeparator {
		return disabledStyle.Render(strings.Repeat("─", min(m.width, separatorWidth)))
	}

	mark := "  "

	switch {
	case it.State.Has(native.StateChecked | native.StateRadio):
		mark = "● "
	case it.State.Has(native.StateChecked):
		mark = "✓ "
	}

	name, shortcut := label(it)

	style := itemStyle
	if !selectable(it) {
		style = disabledStyle
	}

	if selected {
		style = selectedStyle
	}

	text := highlight(name, r.matched, style)
	if it.Submenu != 0 {
		text += style.Render(" ▸")
	}

	if shortcut != "" {
		text += "  " + hintStyle.Render(shortcut)
	}

	return mark + text
}

func highlight(s string, matched []int, base lipgloss.Style) string {
	if len(matched) == 0 {
		return base.Render(s)
	}

	set := make(map[int]bool, len(matched))
	for _, idx := range matched {
		set[idx] = true
	}

	var b strings.Builder

	for i, r := range s {
		if set[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
