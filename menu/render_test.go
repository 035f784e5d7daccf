package menu

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsl0922/mpv-menu-plugin/native"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/state"
)

func subtitleTracks(selected bool) *node.Node {
	list := node.NewArray()
	tr := list.Append(node.KindMap)
	tr.SetInt64("id", 1)
	tr.SetString("type", "sub")
	tr.SetString("title", "Eng")
	tr.SetFlag("selected", selected)

	return list
}

func TestIDAllocator_Wraps(t *testing.T) {
	a := NewIDAllocator()
	assert.Equal(t, native.FirstID, a.Next())
	assert.Equal(t, native.FirstID+1, a.Next())

	a = &IDAllocator{next: native.MaxID}
	assert.Equal(t, native.MaxID, a.Next())
	assert.Equal(t, native.FirstID, a.Next(), "counter must wrap to its start")

	var zero IDAllocator
	assert.Equal(t, native.FirstID, zero.Next(), "zero value starts at FirstID")
}

func TestRender_SkipsEqualTree(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	tree := ParseString(ctx, "a cycle pause #menu: Playback > Play/Pause\nq quit #menu: Quit")

	require.True(t, r.Render(ctx, tree))

	root := r.Root()
	before := m.Dump(root)

	assert.False(t, r.Render(ctx, node.Copy(tree)), "equal tree must not rebuild")
	assert.Equal(t, root, r.Root())
	assert.True(t, node.Equal(before, m.Dump(r.Root())))
	assert.Equal(t, 2, m.Live())
}

func TestRender_RebuildsOnStateChange(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	tree := ParseString(ctx, "a cycle pause #menu: Playback > Play/Pause")
	require.True(t, r.Render(ctx, tree))

	old := r.Root()

	changed := node.Copy(tree)
	leaf := changed.Index(0).Index(2).Index(0)
	leaf.SetNode("state", node.NewArray(node.NewString("checked")))

	require.True(t, r.Render(ctx, changed))
	assert.NotEqual(t, old, r.Root())
	assert.Equal(t, -1, m.Count(old), "old menu must be destroyed")
	assert.Equal(t, 2, m.Live())

	sub, _ := m.Item(r.Root(), 0)
	it, ok := m.Item(sub.Submenu, 0)
	require.True(t, ok)
	assert.True(t, it.State.Has(native.StateChecked))
}

func TestRender_ItemShape(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	tree := node.NewArray(
		NewItem("Rock & Roll", "r", "play", 0),
		NewItem("Secret", "", "hidden-cmd", Hidden),
		NewItem("Off", "", "ignore", Disabled),
		NewSeparator(),
		node.NewString("garbage"),
		NewSubmenu("", ""),
	)

	require.True(t, r.Render(ctx, tree))

	root := r.Root()
	require.Equal(t, 3, m.Count(root), "hidden and malformed entries are omitted")

	first, _ := m.Item(root, 0)
	assert.Equal(t, "Rock && Roll\tr", first.Title)
	assert.Equal(t, "play", first.Data)

	second, _ := m.Item(root, 1)
	assert.True(t, second.State.Has(native.StateDisabled))

	third, _ := m.Item(root, 2)
	assert.Equal(t, native.ItemSeparator, third.Type)

	cmd, ok := r.Command(first.ID)
	require.True(t, ok)
	assert.Equal(t, "play", cmd)

	_, ok = r.Command(third.ID)
	assert.False(t, ok)
}

func TestRender_InsertFailureSkipsItem(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	m.Reject = func(_ native.Handle, it native.ItemInfo) bool { return strings.HasPrefix(it.Title, "Broken") }

	r := NewRenderer(m)

	tree := ParseString(ctx,
		"a foo #menu: Broken > Child\nb bar #menu: Fine\nc baz #menu: Broken")
	require.True(t, r.Render(ctx, tree))

	root := r.Root()
	require.Equal(t, 1, m.Count(root))

	it, _ := m.Item(root, 0)
	assert.Equal(t, "Fine\tb", it.Title)
	assert.Equal(t, 1, m.Live(), "submenu of a rejected insert is released")
}

func TestRender_MergesExternalSiblings(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	a1 := NewSubmenu("A", "")
	children(a1).AppendNode(NewItem("B", "", "foo", 0))

	a2 := NewSubmenu("A", "")
	children(a2).AppendNode(NewItem("C", "", "bar", 0))

	require.True(t, r.Render(ctx, node.NewArray(a1, a2)))

	root := r.Root()
	require.Equal(t, 1, m.Count(root))

	sub, _ := m.Item(root, 0)
	assert.Equal(t, 2, m.Count(sub.Submenu))
}

func TestRegenerate_SubtitleTracks(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	tree := ParseString(ctx, "_ ignore #menu: Subtitles #@tracks/sub")
	require.True(t, r.Render(ctx, tree))
	require.Equal(t, []string{"tracks/sub"}, r.Anchors())

	cache := state.New()
	cache.Apply("track-list", subtitleTracks(true))
	cache.Apply("sid", node.NewInt64(1))

	r.Regenerate(ctx, cache)

	anchorItem, _ := m.Item(r.Root(), 0)
	assert.False(t, anchorItem.State.Has(native.StateDisabled))

	sub := anchorItem.Submenu
	require.Equal(t, 2, m.Count(sub))

	eng, _ := m.Item(sub, 0)
	off, _ := m.Item(sub, 1)

	assert.Equal(t, "Eng", eng.Title)
	assert.Equal(t, "set sid 1", eng.Data)
	assert.True(t, eng.State.Has(native.StateChecked))

	assert.Equal(t, "Off", off.Title)
	assert.Equal(t, "set sid no", off.Data)
	assert.False(t, off.State.Has(native.StateChecked))

	cache.Apply("sid", node.NewInt64(-1))
	r.Regenerate(ctx, cache)

	require.Equal(t, 2, m.Count(sub), "regeneration must clear old entries")

	eng, _ = m.Item(sub, 0)
	off, _ = m.Item(sub, 1)

	assert.False(t, eng.State.Has(native.StateChecked))
	assert.True(t, off.State.Has(native.StateChecked))

	cmd, ok := r.Command(off.ID)
	require.True(t, ok)
	assert.Equal(t, "set sid no", cmd)
}

func TestRegenerate_EmptyCollectionGraysAnchor(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	require.True(t, r.Render(ctx, ParseString(ctx, "_ ignore #menu: Chapters #@chapters")))

	cache := state.New()
	r.Regenerate(ctx, cache)

	it, _ := m.Item(r.Root(), 0)
	assert.True(t, it.State.Has(native.StateDisabled))
	assert.Equal(t, 0, m.Count(it.Submenu))

	chapters := node.NewArray()
	ch := chapters.Append(node.KindMap)
	ch.SetString("title", "Intro")
	ch.SetDouble("time", 3725)

	cache.Apply("chapter-list", chapters)
	cache.Apply("chapter", node.NewInt64(0))
	r.Regenerate(ctx, cache)

	it, _ = m.Item(r.Root(), 0)
	assert.False(t, it.State.Has(native.StateDisabled))

	entry, _ := m.Item(it.Submenu, 0)
	assert.Equal(t, "Intro\t[01:02:05]", entry.Title)
	assert.Equal(t, "seek 3725.000000 absolute", entry.Data)
	assert.True(t, entry.State.Has(native.StateChecked|native.StateRadio))
}

func TestRender_UnknownKeywordIsStatic(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	tree := ParseString(ctx, "_ ignore #menu: Mystery #@playlist\nx foo #menu: Mystery > Item")
	require.True(t, r.Render(ctx, tree))
	assert.Empty(t, r.Anchors())

	r.Regenerate(ctx, state.New())

	it, _ := m.Item(r.Root(), 0)
	assert.Equal(t, 1, m.Count(it.Submenu), "static children survive regeneration")
}

func TestRender_RebuildDropsAnchors(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	require.True(t, r.Render(ctx, ParseString(ctx, "_ ignore #menu: Editions #@editions")))
	require.Len(t, r.Anchors(), 1)

	require.True(t, r.Render(ctx, ParseString(ctx, "q quit #menu: Quit")))
	assert.Empty(t, r.Anchors())

	require.NoError(t, r.Close())
	assert.Equal(t, 0, m.Live())
	assert.Equal(t, native.Handle(0), r.Root())
}

func TestRender_MergedSiblingKeepsAnchor(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	r := NewRenderer(m)

	tree := node.NewArray(NewSubmenu("Chapters", ""), NewSubmenu("Chapters", "chapters"))
	require.True(t, r.Render(ctx, tree))
	require.Equal(t, 1, m.Count(r.Root()))
	assert.Equal(t, []string{"chapters"}, r.Anchors())

	tree = node.NewArray(NewSubmenu("Chapters", "chapters"), NewSubmenu("Chapters", "editions"))
	require.True(t, r.Render(ctx, tree))
	assert.Equal(t, []string{"chapters"}, r.Anchors(), "first bound keyword wins")
}

func TestRegenerate_ReusesEntryIDs(t *testing.T) {
	ctx := context.Background()
	m := native.NewMemory()
	ids := NewIDAllocator()
	r := NewRenderer(m, withIDAllocator(ids))

	require.True(t, r.Render(ctx, ParseString(ctx, "_ ignore #menu: Subtitles #@tracks/sub")))

	cache := state.New()
	cache.Apply("track-list", subtitleTracks(true))

	entryIDs := func() []uint16 {
		anchorItem, _ := m.Item(r.Root(), 0)

		out := make([]uint16, 0, m.Count(anchorItem.Submenu))
		for i := range m.Count(anchorItem.Submenu) {
			it, _ := m.Item(anchorItem.Submenu, i)
			out = append(out, it.ID)
		}

		return out
	}

	r.Regenerate(ctx, cache)
	first := entryIDs()
	require.Len(t, first, 2)

	mark := &IDAllocator{next: ids.next}

	for range 3 {
		r.Regenerate(ctx, cache)
	}

	assert.Equal(t, first, entryIDs())
	assert.Equal(t, mark.Next(), ids.Next(), "regeneration must not draw new ids")
}
