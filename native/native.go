// Package native defines the platform menu primitive the renderer drives,
// and an in-memory implementation of it.
//
// The primitive mirrors a popup-menu widget API: menus are opaque handles,
// items are appended at the end and addressed either by position or by
// their 16-bit command id. A platform binding (a Win32 HMENU wrapper, for
// instance) satisfies [Menu] outside this module.
package native

import (
	"context"
	"fmt"
	"strings"
)

// ID space of menu commands. The low range is reserved by the platform.
const (
	FirstID uint16 = 0x0400 + 100
	MaxID   uint16 = 0xFFFF
)

// Handle identifies a popup menu. The zero Handle is never valid.
type Handle uint32

// ItemType distinguishes text items from separators.
type ItemType uint8

const (
	ItemString ItemType = iota
	ItemSeparator
)

// State is a set of item state flags.
type State uint8

const (
	StateChecked State = 1 << iota
	StateDisabled
	StateRadio
)

// Has reports whether all flags in f are set.
func (s State) Has(f State) bool { return s&f == f }

// String lists the set flags, e.g. "checked|disabled".
func (s State) String() string {
	var parts []string

	if s.Has(StateChecked) {
		parts = append(parts, "checked")
	}

	if s.Has(StateDisabled) {
		parts = append(parts, "disabled")
	}

	if s.Has(StateRadio) {
		parts = append(parts, "radio")
	}

	if len(parts) == 0 {
		return "none"
	}

	return strings.Join(parts, "|")
}

// ItemInfo describes one native menu item. Title is already escaped for
// the widget. Data is the opaque command string carried by leaf items.
type ItemInfo struct {
	ID      uint16
	Type    ItemType
	Title   string
	State   State
	Submenu Handle
	Data    string
}

// Menu is the thin platform wrapper around a native popup-menu API.
// Implementations must be safe for use by one writer goroutine and
// concurrent readers.
type Menu interface {
	// CreatePopupMenu allocates an empty menu.
	CreatePopupMenu() (Handle, error)
	// Insert appends item to the end of menu h.
	Insert(h Handle, item ItemInfo) error
	// Count returns the number of items in h, or -1 for an invalid handle.
	Count(h Handle) int
	// Item returns the item at position pos of h.
	Item(h Handle, pos int) (ItemInfo, bool)
	// ItemByID finds an item by command id in h or any of its submenus.
	ItemByID(h Handle, id uint16) (ItemInfo, bool)
	// RemoveAll detaches every item of h. Submenus are not destroyed.
	RemoveAll(h Handle) error
	// SetState replaces the state of the item with the given id, searching
	// h and its submenus.
	SetState(h Handle, id uint16, state State) error
	// Destroy frees h and, recursively, every submenu attached to it.
	Destroy(h Handle) error
}

// Point is a position in screen coordinates.
type Point struct{ X, Y int }

// Rect is a screen-space rectangle; Right and Bottom are exclusive.
type Rect struct{ Left, Top, Right, Bottom int }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Tracker shows a popup menu and reports the user's choice. Track blocks
// until the menu is dismissed; ok is false if nothing was chosen.
type Tracker interface {
	ContentRect() (Rect, error)
	Track(ctx context.Context, m Menu, h Handle, pt Point) (id uint16, ok bool, err error)
}
