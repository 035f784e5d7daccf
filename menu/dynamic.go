package menu

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/state"
)

// Entry is one generated item of a dynamic submenu.
type Entry struct {
	Title      string
	Supplement string // shown right-aligned after a tab, e.g. a language
	Cmd        string
	State      native.State
}

// Emitter receives the entries produced by a [Provider], in order.
type Emitter interface {
	Emit(e Entry)
}

// Entries is an Emitter that collects entries.
type Entries []Entry

// Emit appends e.
func (es *Entries) Emit(e Entry) { *es = append(*es, e) }

// Input is what a provider reads.
type Input struct {
	State   *state.Snapshot
	Dialect Dialect
}

// Provider regenerates one dynamic submenu. It reports whether it emitted
// anything; an empty submenu is shown grayed.
type Provider func(in Input, out Emitter) bool

// Registry maps dynamic keywords to providers. It is safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register binds keyword to p, replacing any previous binding.
func (r *Registry) Register(keyword string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[keyword] = p
}

// Lookup returns the provider bound to keyword.
func (r *Registry) Lookup(keyword string) (Provider, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[keyword]

	return p, ok
}

// Keywords returns the registered keywords in sorted order.
func (r *Registry) Keywords() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

// DefaultRegistry returns a registry with the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("tracks/video", TrackProvider("video", "vid", func(s *state.Snapshot) int64 { return s.VID }))
	r.Register("tracks/audio", TrackProvider("audio", "aid", func(s *state.Snapshot) int64 { return s.AID }))
	r.Register("tracks/sub", TrackProvider("sub", "sid", func(s *state.Snapshot) int64 { return s.SID }))
	r.Register("tracks/sub-secondary", TrackProvider("sub", "secondary-sid", func(s *state.Snapshot) int64 { return s.SID2 }))
	r.Register("chapters", ChapterProvider)
	r.Register("editions", EditionProvider)
	r.Register("audio-devices", AudioDeviceProvider)

	return r
}

// TrackProvider lists tracks of one type and selects them through prop.
// current reads the selection that decides the checked entry.
//
// Subtitle entries selected elsewhere (a primary track shown in the
// secondary list, say) are disabled, and with [Dialect.SubOff] a final
// "Off" entry deselects.
func TrackProvider(typ, prop string, current func(*state.Snapshot) int64) Provider {
	isSub := typ == "sub"

	return func(in Input, out Emitter) bool {
		pos := current(in.State)
		n := 0

		for _, t := range in.State.Tracks {
			if t.Type != typ {
				continue
			}

			var st native.State
			if t.ID == pos {
				st |= native.StateChecked
			}

			if isSub && t.Selected && t.ID != pos {
				st |= native.StateDisabled
			}

			out.Emit(Entry{
				Title:      t.Title,
				Supplement: t.Lang,
				Cmd:        fmt.Sprintf("set %s %d", prop, t.ID),
				State:      st,
			})

			n++
		}

		if n == 0 {
			return false
		}

		if isSub && in.Dialect.SubOff {
			var st native.State
			if pos < 0 {
				st = native.StateChecked
			}

			out.Emit(Entry{
				Title: "Off",
				Cmd:   fmt.Sprintf("set %s no", prop),
				State: st,
			})
		}

		return true
	}
}

// ChapterProvider lists chapters with their start time; the current chapter
// is radio-checked.
func ChapterProvider(in Input, out Emitter) bool {
	for i, ch := range in.State.Chapters {
		var st native.State
		if int64(i) == in.State.Chapter {
			st = native.StateChecked | native.StateRadio
		}

		out.Emit(Entry{
			Title:      ch.Title,
			Supplement: formatTime(ch.Time),
			Cmd:        fmt.Sprintf("seek %f absolute", ch.Time),
			State:      st,
		})
	}

	return len(in.State.Chapters) > 0
}

// EditionProvider lists editions; the current edition is radio-checked.
func EditionProvider(in Input, out Emitter) bool {
	for _, ed := range in.State.Editions {
		var st native.State
		if ed.ID == in.State.Edition {
			st = native.StateChecked | native.StateRadio
		}

		out.Emit(Entry{
			Title: ed.Title,
			Cmd:   fmt.Sprintf("set edition %d", ed.ID),
			State: st,
		})
	}

	return len(in.State.Editions) > 0
}

// AudioDeviceProvider lists audio devices by description, falling back to
// the device name; the active device is radio-checked.
func AudioDeviceProvider(in Input, out Emitter) bool {
	for _, dev := range in.State.AudioDevices {
		var st native.State
		if dev.Name == in.State.AudioDevice {
			st = native.StateChecked | native.StateRadio
		}

		title := dev.Description
		if title == "" {
			title = dev.Name
		}

		out.Emit(Entry{
			Title: title,
			Cmd:   "set audio-device " + dev.Name,
			State: st,
		})
	}

	return len(in.State.AudioDevices) > 0
}

// formatTime renders seconds as [HH:MM:SS].
func formatTime(seconds float64) string {
	t := int(seconds)

	return fmt.Sprintf("[%02d:%02d:%02d]", t/3600, t/60%60, t%60)
}
