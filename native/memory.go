package native

import (
	"log/slog"
	"sync"

	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

var (
	// ErrInvalidHandle is returned for unknown or destroyed menu handles.
	ErrInvalidHandle = pkg.NewError("invalid menu handle")
	// ErrItemNotFound is returned when no item carries the requested id.
	ErrItemNotFound = pkg.NewError("menu item not found")
	// ErrInsertRejected is returned when an insert is refused.
	ErrInsertRejected = pkg.NewError("menu insert rejected")
)

// Memory is an in-memory [Menu]. The zero value is not usable; call
// [NewMemory].
type Memory struct {
	mu    sync.RWMutex
	next  Handle
	menus map[Handle][]ItemInfo

	// Reject, when set, is consulted on every Insert; returning true makes
	// the insert fail with ErrInsertRejected.
	Reject func(h Handle, item ItemInfo) bool
}

// NewMemory returns an empty in-memory menu store.
func NewMemory() *Memory {
	return &Memory{menus: make(map[Handle][]ItemInfo)}
}

func (m *Memory) CreatePopupMenu() (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	m.menus[m.next] = nil

	return m.next, nil
}

func (m *Memory) Insert(h Handle, item ItemInfo) error {
	if m.Reject != nil && m.Reject(h, item) {
		return ErrInsertRejected.With(slog.String("title", item.Title))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.menus[h]
	if !ok {
		return ErrInvalidHandle.With(slog.Uint64("handle", uint64(h)))
	}

	if item.Submenu != 0 {
		if _, ok := m.menus[item.Submenu]; !ok {
			return ErrInvalidHandle.With(slog.Uint64("submenu", uint64(item.Submenu)))
		}
	}

	m.menus[h] = append(items, item)

	return nil
}

func (m *Memory) Count(h Handle) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.menus[h]
	if !ok {
		return -1
	}

	return len(items)
}

func (m *Memory) Item(h Handle, pos int) (ItemInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.menus[h]
	if pos < 0 || pos >= len(items) {
		return ItemInfo{}, false
	}

	return items[pos], true
}

func (m *Memory) ItemByID(h Handle, id uint16) (ItemInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, pos := m.find(h, id, 0)
	if pos < 0 {
		return ItemInfo{}, false
	}

	return m.menus[h][pos], true
}

// find locates id beneath h. depth bounds cyclic attachments.
func (m *Memory) find(h Handle, id uint16, depth int) (Handle, int) {
	if depth > 64 {
		return 0, -1
	}

	for i, it := range m.menus[h] {
		if it.ID == id && it.Type != ItemSeparator {
			return h, i
		}
	}

	for _, it := range m.menus[h] {
		if it.Submenu != 0 {
			if sh, pos := m.find(it.Submenu, id, depth+1); pos >= 0 {
				return sh, pos
			}
		}
	}

	return 0, -1
}

func (m *Memory) RemoveAll(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.menus[h]; !ok {
		return ErrInvalidHandle.With(slog.Uint64("handle", uint64(h)))
	}

	m.menus[h] = nil

	return nil
}

func (m *Memory) SetState(h Handle, id uint16, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sh, pos := m.find(h, id, 0)
	if pos < 0 {
		return ErrItemNotFound.With(slog.Uint64("id", uint64(id)))
	}

	m.menus[sh][pos].State = state

	return nil
}

func (m *Memory) Destroy(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.menus[h]; !ok {
		return ErrInvalidHandle.With(slog.Uint64("handle", uint64(h)))
	}

	m.destroy(h)

	return nil
}

func (m *Memory) destroy(h Handle) {
	items, ok := m.menus[h]
	if !ok {
		return
	}

	delete(m.menus, h)

	for _, it := range items {
		if it.Submenu != 0 {
			m.destroy(it.Submenu)
		}
	}
}

// Live returns the number of menus that have not been destroyed.
func (m *Memory) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.menus)
}

// Dump renders the menu rooted at h as an Array of item maps with keys
// type, id, title, state, cmd and submenu. It returns nil for an invalid
// handle.
func (m *Memory) Dump(h Handle) *node.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.menus[h]; !ok {
		return nil
	}

	return m.dump(h, 0)
}

func (m *Memory) dump(h Handle, depth int) *node.Node {
	out := node.NewArray()
	if depth > 64 {
		return out
	}

	for _, it := range m.menus[h] {
		e := out.Append(node.KindMap)

		switch {
		case it.Type == ItemSeparator:
			e.SetString("type", "separator")
		case it.Submenu != 0:
			e.SetString("type", "submenu")
		default:
			e.SetString("type", "item")
		}

		e.SetInt64("id", int64(it.ID))

		if it.Type == ItemSeparator {
			continue
		}

		e.SetString("title", it.Title)

		if it.State != 0 {
			e.SetString("state", it.State.String())
		}

		if it.Data != "" {
			e.SetString("cmd", it.Data)
		}

		if it.Submenu != 0 {
			e.SetNode("submenu", m.dump(it.Submenu, depth+1))
		}
	}

	return out
}
