// Package state mirrors the media player's playback state that dynamic
// submenus are generated from: track, chapter, edition and audio-device
// lists plus the current selections.
//
// A [Cache] has exactly one writer, the goroutine consuming property-change
// events, which calls [Cache.Apply]. Any number of readers use [Cache.View].
package state

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/node"
)

// Unset marks a selection id with no current value.
const Unset int64 = -1

// Track is one entry of the player's track list.
type Track struct {
	ID       int64
	Type     string // video, audio or sub
	Title    string
	Lang     string
	Selected bool
}

// Chapter is one entry of the chapter list.
type Chapter struct {
	Title string
	Time  float64 // seconds
}

// Edition is one entry of the edition list.
type Edition struct {
	ID    int64
	Title string
}

// AudioDevice is one entry of the audio device list.
type AudioDevice struct {
	Name        string
	Description string
}

// Snapshot is the cached state. Readers must treat it as read-only.
type Snapshot struct {
	VID, AID, SID, SID2 int64
	Chapter, Edition    int64
	AudioDevice         string
	// Filename is the playing file's name without extension. It is removed
	// from track titles.
	Filename string

	Tracks       []Track
	Chapters     []Chapter
	Editions     []Edition
	AudioDevices []AudioDevice

	trackList *node.Node // last track-list value, re-read when Filename changes
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() Snapshot {
	c := *s
	c.Tracks = append([]Track(nil), s.Tracks...)
	c.Chapters = append([]Chapter(nil), s.Chapters...)
	c.Editions = append([]Edition(nil), s.Editions...)
	c.AudioDevices = append([]AudioDevice(nil), s.AudioDevices...)

	return c
}

// Cache is the live-state mirror.
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
	log  log.Logger
}

// Option configures a [Cache].
type Option func(*Cache)

// WithLogger sets the logger used to trace applied properties.
func WithLogger(l log.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New returns a Cache with every selection id set to [Unset].
func New(opts ...Option) *Cache {
	c := &Cache{
		snap: Snapshot{
			VID:     Unset,
			AID:     Unset,
			SID:     Unset,
			SID2:    Unset,
			Chapter: Unset,
			Edition: Unset,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// View calls fn with the current snapshot under the read lock. fn must not
// retain the snapshot or its slices.
func (c *Cache) View(fn func(s *Snapshot)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fn(&c.snap)
}

// Snapshot returns an independent copy of the cached state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snap.Clone()
}

// Apply stores the value of the named property. A None value on a selection
// id stores [Unset]; list properties are replaced wholesale. Apply reports
// whether name is a property the cache tracks.
func (c *Cache) Apply(name string, value *node.Node) bool {
	p, ok := lookup(name)
	if !ok {
		return false
	}

	c.mu.Lock()
	p.apply(&c.snap, value)
	c.mu.Unlock()

	c.log.Trace("state updated",
		slog.String("property", name),
		slog.String("kind", value.Kind().String()))

	return true
}

// readTracks converts a track-list value. Every occurrence of filename is
// cut from the titles, and a title that ends up empty or is missing falls
// back to "<type> <id>".
func readTracks(v *node.Node, filename string) []Track {
	if !v.Is(node.KindArray) {
		return nil
	}

	out := make([]Track, 0, v.Len())
	upper := cases.Upper(language.Und)

	for _, e := range v.All() {
		if !e.Is(node.KindMap) {
			continue
		}

		var t Track

		t.ID, _ = e.GetInt64("id")
		t.Type, _ = e.GetString("type")
		t.Selected, _ = e.GetFlag("selected")

		t.Title, _ = e.GetString("title")
		if filename != "" {
			t.Title = strings.ReplaceAll(t.Title, filename, "")
		}

		if t.Title == "" {
			t.Title = fmt.Sprintf("%s %d", t.Type, t.ID)
		}

		if lang, ok := e.GetString("lang"); ok {
			t.Lang = upper.String(lang)
		}

		out = append(out, t)
	}

	return out
}

func readChapters(v *node.Node) []Chapter {
	if !v.Is(node.KindArray) {
		return nil
	}

	out := make([]Chapter, 0, v.Len())

	for i, e := range v.All() {
		if !e.Is(node.KindMap) {
			continue
		}

		var ch Chapter

		ch.Time, _ = e.GetDouble("time")

		if title, ok := e.GetString("title"); ok {
			ch.Title = title
		} else {
			ch.Title = fmt.Sprintf("chapter %d", i+1)
		}

		out = append(out, ch)
	}

	return out
}

func readEditions(v *node.Node) []Edition {
	if !v.Is(node.KindArray) {
		return nil
	}

	out := make([]Edition, 0, v.Len())

	for _, e := range v.All() {
		if !e.Is(node.KindMap) {
			continue
		}

		var ed Edition

		ed.ID, _ = e.GetInt64("id")

		if title, ok := e.GetString("title"); ok {
			ed.Title = title
		} else {
			ed.Title = fmt.Sprintf("edition %d", ed.ID)
		}

		out = append(out, ed)
	}

	return out
}

func readAudioDevices(v *node.Node) []AudioDevice {
	if !v.Is(node.KindArray) {
		return nil
	}

	out := make([]AudioDevice, 0, v.Len())

	for _, e := range v.All() {
		if !e.Is(node.KindMap) {
			continue
		}

		var d AudioDevice

		d.Name, _ = e.GetString("name")
		d.Description, _ = e.GetString("description")

		out = append(out, d)
	}

	return out
}

func readID(v *node.Node) int64 {
	if id, ok := v.Int64(); ok {
		return id
	}

	return Unset
}
