package menu

import (
	"strings"

	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/node"
)

// Type is the kind of a menu item descriptor.
type Type string

const (
	TypeItem      Type = "item"
	TypeSubmenu   Type = "submenu"
	TypeSeparator Type = "separator"
)

// State is the set of flags in a descriptor's "state" array.
type State uint8

const (
	Checked State = 1 << iota
	Disabled
	Hidden
)

var stateNames = []struct {
	flag State
	name string
}{
	{Checked, "checked"},
	{Disabled, "disabled"},
	{Hidden, "hidden"},
}

// Has reports whether all flags in f are set.
func (s State) Has(f State) bool { return s&f == f }

// Names returns the flag names in canonical order.
func (s State) Names() []string {
	var out []string

	for _, sn := range stateNames {
		if s.Has(sn.flag) {
			out = append(out, sn.name)
		}
	}

	return out
}

// widget maps descriptor flags onto widget state. Hidden has no widget
// equivalent; hidden items are never inserted.
func (s State) widget() native.State {
	var ns native.State

	if s.Has(Checked) {
		ns |= native.StateChecked
	}

	if s.Has(Disabled) {
		ns |= native.StateDisabled
	}

	return ns
}

func parseState(n *node.Node) State {
	var s State

	for _, v := range n.All() {
		name, _ := v.Str()
		for _, sn := range stateNames {
			if sn.name == name {
				s |= sn.flag
			}
		}
	}

	return s
}

// Descriptor is a typed view of a menu item descriptor node.
type Descriptor struct {
	Type     Type
	Title    string
	Cmd      string
	Shortcut string
	State    State
	Keyword  string     // dynamic provider keyword, submenus only
	Children *node.Node // Array, submenus only
}

// Describe reads a descriptor node. It reports false when n does not have
// a renderable shape: an item needs a title and a command, a submenu needs
// a title.
func Describe(n *node.Node) (Descriptor, bool) {
	if !n.Is(node.KindMap) {
		return Descriptor{}, false
	}

	var d Descriptor

	typ, ok := n.GetString("type")
	if !ok {
		typ = string(TypeItem)
	}

	d.Type = Type(typ)
	d.Title, _ = n.GetString("title")
	d.Cmd, _ = n.GetString("cmd")
	d.Shortcut, _ = n.GetString("shortcut")
	d.Keyword, _ = n.GetString("keyword")

	if st, ok := n.Get("state"); ok {
		d.State = parseState(st)
	}

	switch d.Type {
	case TypeSeparator:
		return d, true
	case TypeItem:
		_, hasCmd := n.GetString("cmd")

		return d, d.Title != "" && hasCmd
	case TypeSubmenu:
		if sub, ok := n.Get("submenu"); ok && sub.Is(node.KindArray) {
			d.Children = sub
		}

		return d, d.Title != ""
	default:
		return d, false
	}
}

// DisplayTitle is the unescaped widget title: the title followed by a tab
// and the shortcut, when there is one.
func (d Descriptor) DisplayTitle() string {
	return joinTitle(d.Title, d.Shortcut)
}

func joinTitle(title, supplement string) string {
	if supplement == "" || supplement == Placeholder {
		return title
	}

	return title + "\t" + supplement
}

// Escape doubles every "&" so the widget does not treat it as a mnemonic.
func Escape(title string) string {
	return strings.ReplaceAll(title, "&", "&&")
}

// NewItem builds an item descriptor.
func NewItem(title, shortcut, cmd string, state State) *node.Node {
	n := node.NewMap()
	n.SetString("type", string(TypeItem))
	n.SetString("title", title)

	if shortcut != "" && shortcut != Placeholder {
		n.SetString("shortcut", shortcut)
	}

	n.SetString("cmd", cmd)
	setState(n, state)

	return n
}

// NewSubmenu builds a submenu descriptor with an empty child list. A
// non-empty keyword binds it to a dynamic provider.
func NewSubmenu(title, keyword string) *node.Node {
	n := node.NewMap()
	n.SetString("type", string(TypeSubmenu))
	n.SetString("title", title)
	n.Set("submenu", node.KindArray)

	if keyword != "" {
		n.SetString("keyword", keyword)
	}

	return n
}

// NewSeparator builds a separator descriptor.
func NewSeparator() *node.Node {
	n := node.NewMap()
	n.SetString("type", string(TypeSeparator))

	return n
}

func setState(n *node.Node, s State) {
	if s == 0 {
		return
	}

	arr := n.Set("state", node.KindArray)
	for _, name := range s.Names() {
		arr.AppendNode(node.NewString(name))
	}
}
