package state

import (
	"io"
	"log/slog"
	"slices"

	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Format is the value format a property is observed with.
type Format string

const (
	FormatInt64  Format = "int64"
	FormatString Format = "string"
	FormatNode   Format = "node"
)

// Property names a player property tracked by the cache.
type Property struct {
	Name   string
	Format Format

	apply func(s *Snapshot, v *node.Node)
}

var properties = []Property{
	{"vid", FormatInt64, func(s *Snapshot, v *node.Node) { s.VID = readID(v) }},
	{"aid", FormatInt64, func(s *Snapshot, v *node.Node) { s.AID = readID(v) }},
	{"sid", FormatInt64, func(s *Snapshot, v *node.Node) { s.SID = readID(v) }},
	{"secondary-sid", FormatInt64, func(s *Snapshot, v *node.Node) { s.SID2 = readID(v) }},
	{"chapter", FormatInt64, func(s *Snapshot, v *node.Node) { s.Chapter = readID(v) }},
	{"current-edition", FormatInt64, func(s *Snapshot, v *node.Node) { s.Edition = readID(v) }},
	{"audio-device", FormatString, func(s *Snapshot, v *node.Node) { s.AudioDevice, _ = v.Str() }},
	{"filename/no-ext", FormatString, func(s *Snapshot, v *node.Node) {
		s.Filename, _ = v.Str()
		s.Tracks = readTracks(s.trackList, s.Filename)
	}},
	{"track-list", FormatNode, func(s *Snapshot, v *node.Node) {
		s.trackList = node.Copy(v)
		s.Tracks = readTracks(s.trackList, s.Filename)
	}},
	{"chapter-list", FormatNode, func(s *Snapshot, v *node.Node) { s.Chapters = readChapters(v) }},
	{"edition-list", FormatNode, func(s *Snapshot, v *node.Node) { s.Editions = readEditions(v) }},
	{"audio-device-list", FormatNode, func(s *Snapshot, v *node.Node) { s.AudioDevices = readAudioDevices(v) }},
}

// Properties returns the properties a host feed should observe, in
// subscription order.
func Properties() []Property { return slices.Clone(properties) }

func lookup(name string) (Property, bool) {
	i := slices.IndexFunc(properties, func(p Property) bool { return p.Name == name })
	if i < 0 {
		return Property{}, false
	}

	return properties[i], true
}

// LoadYAML reads a mapping of property name to value and applies every
// entry in document order. Unknown names are ignored.
func (c *Cache) LoadYAML(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return pkg.ErrReadInput.Wrap(err)
	}

	doc, err := node.DecodeYAML(data)
	if err != nil {
		return err
	}

	if doc.Kind() == node.KindNone {
		return nil
	}

	if !doc.Is(node.KindMap) {
		return pkg.ErrInvalidFormat.With(slog.String("want", "mapping"))
	}

	for name, v := range doc.Pairs() {
		c.Apply(name, v)
	}

	return nil
}
