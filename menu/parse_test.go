package menu

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tsl0922/mpv-menu-plugin/node"
)

func describeAt(t *testing.T, arr *node.Node, i int) Descriptor {
	t.Helper()

	d, ok := Describe(arr.Index(i))
	if !ok {
		t.Fatalf("descriptor %d not renderable: %v", i, arr.Index(i))
	}

	return d
}

func TestParse_NestedItem(t *testing.T) {
	tree := ParseString(context.Background(), "a cycle pause #menu: Playback > Play/Pause")

	if tree.Len() != 1 {
		t.Fatalf("expected 1 top-level entry, got %d", tree.Len())
	}

	sub := describeAt(t, tree, 0)
	if sub.Type != TypeSubmenu || sub.Title != "Playback" {
		t.Fatalf("expected submenu Playback, got %+v", sub)
	}

	if sub.Children.Len() != 1 {
		t.Fatalf("expected 1 child, got %d", sub.Children.Len())
	}

	item := describeAt(t, sub.Children, 0)
	if item.Type != TypeItem {
		t.Errorf("expected item, got %s", item.Type)
	}

	if item.DisplayTitle() != "Play/Pause\ta" {
		t.Errorf("expected title %q, got %q", "Play/Pause\ta", item.DisplayTitle())
	}

	if item.Cmd != "cycle pause" {
		t.Errorf("expected command %q, got %q", "cycle pause", item.Cmd)
	}
}

func TestParse_Separator(t *testing.T) {
	tree := ParseString(context.Background(), "- ignore #menu: Playback > -")

	sub := describeAt(t, tree, 0)
	if sub.Children.Len() != 1 {
		t.Fatalf("expected 1 child, got %d", sub.Children.Len())
	}

	sep := describeAt(t, sub.Children, 0)
	if sep.Type != TypeSeparator || sep.Title != "" || sep.Cmd != "" {
		t.Errorf("expected bare separator, got %+v", sep)
	}
}

func TestParse_MergeSiblingSubmenus(t *testing.T) {
	tree := ParseLines(context.Background(), []string{
		"x foo #menu: A > B",
		"y bar #menu: A > C",
	})

	if tree.Len() != 1 {
		t.Fatalf("expected a single shared submenu, got %d entries", tree.Len())
	}

	a := describeAt(t, tree, 0)
	if a.Children.Len() != 2 {
		t.Fatalf("expected B and C under A, got %d", a.Children.Len())
	}

	if b := describeAt(t, a.Children, 0); b.Title != "B" || b.Cmd != "foo" {
		t.Errorf("unexpected first child %+v", b)
	}

	if c := describeAt(t, a.Children, 1); c.Title != "C" || c.Cmd != "bar" {
		t.Errorf("unexpected second child %+v", c)
	}
}

func TestParse_NoMergeDialect(t *testing.T) {
	d := DefaultDialect
	d.Merge = false

	tree := ParseLines(context.Background(), []string{
		"x foo #menu: A > B",
		"y bar #menu: A > C",
	}, WithDialect(d))

	if tree.Len() != 2 {
		t.Errorf("expected two separate submenus, got %d", tree.Len())
	}
}

func TestParse_EdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no trigger",
			input: "a cycle pause",
			want:  `[]`,
		},
		{
			name:  "empty spec",
			input: "a cycle pause #menu:   ",
			want:  `[]`,
		},
		{
			name:  "blank and comment lines",
			input: "\n   \n# cycle pause #menu: Pause\n",
			want:  `[]`,
		},
		{
			name:  "empty leaf drops line",
			input: "a foo #menu: A >  ",
			want:  `[]`,
		},
		{
			name:  "empty middle segment drops line",
			input: "a foo #menu: A > > B",
			want:  `[]`,
		},
		{
			name:  "placeholder key",
			input: "_ cycle mute #menu: Mute",
			want:  `[{"type":"item","title":"Mute","cmd":"cycle mute"}]`,
		},
		{
			name:  "leaf comment stripped",
			input: "m cycle mute #menu: Mute # toggles audio",
			want:  `[{"type":"item","title":"Mute","shortcut":"m","cmd":"cycle mute"}]`,
		},
		{
			name:  "noop command disabled",
			input: "_ ignore #menu: Nothing",
			want:  `[{"type":"item","title":"Nothing","cmd":"ignore","state":["disabled"]}]`,
		},
		{
			name:  "hash command disabled",
			input: "_ #script-binding x #menu: Later",
			want:  `[{"type":"item","title":"Later","cmd":"#script-binding x","state":["disabled"]}]`,
		},
		{
			name:  "empty command makes a submenu",
			input: "_ #menu: Tools",
			want:  `[{"type":"submenu","title":"Tools","submenu":[]}]`,
		},
		{
			name:  "comment in parent segment ends the spec",
			input: "a foo #menu: A # note > B",
			want:  `[{"type":"submenu","title":"A","submenu":[]}]`,
		},
		{
			name:  "separator in parent segment terminates",
			input: "_ ignore #menu: - > B",
			want:  `[{"type":"separator"}]`,
		},
		{
			name:  "dynamic submenu",
			input: "_ ignore #menu: Subtitles #@tracks/sub # picks a track",
			want:  `[{"type":"submenu","title":"Subtitles","submenu":[],"keyword":"tracks/sub"}]`,
		},
		{
			name:  "dynamic marker without keyword",
			input: "_ ignore #menu: Empty #@",
			want:  `[{"type":"submenu","title":"Empty","submenu":[]}]`,
		},
		{
			name:  "alt trigger ignored by default",
			input: "a cycle pause #! Pause",
			want:  `[]`,
		},
		{
			name:  "triple dash is a title by default",
			input: "_ ignore #menu: ---",
			want:  `[{"type":"item","title":"---","cmd":"ignore","state":["disabled"]}]`,
		},
		{
			name:  "ampersand kept unescaped",
			input: "_ foo #menu: Rock & Roll",
			want:  `[{"type":"item","title":"Rock & Roll","cmd":"foo"}]`,
		},
		{
			name:  "CRLF and tabs",
			input: "\tq\tquit #menu: Quit\r\n",
			want:  `[{"type":"item","title":"Quit","shortcut":"q","cmd":"quit"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseString(context.Background(), tt.input).String()
			if got != tt.want {
				t.Errorf("expected\n%s\ngot\n%s", tt.want, got)
			}
		})
	}
}

func TestParse_UOSCDialect(t *testing.T) {
	src := strings.Join([]string{
		"o script-binding open #! Open",
		"# script-binding uosc/playlist #! Playlist",
		"_ ignore #! ---",
		"# #! Utils",
		"s screenshot #! Utils > Screenshot",
	}, "\n")

	tree := ParseString(context.Background(), src, WithDialect(UOSCDialect))

	want := `[{"type":"item","title":"Open","shortcut":"o","cmd":"script-binding open"},` +
		`{"type":"item","title":"Playlist","cmd":"script-binding uosc/playlist"},` +
		`{"type":"separator"},` +
		`{"type":"submenu","title":"Utils","submenu":[` +
		`{"type":"item","title":"Screenshot","shortcut":"s","cmd":"screenshot"}]}]`

	if got := tree.String(); got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestParse_DynamicKeywordMergesIntoExisting(t *testing.T) {
	tree := ParseLines(context.Background(), []string{
		"_ ignore #menu: Audio > Tracks #@tracks/audio",
		"_ ignore #menu: Audio > Tracks #@chapters",
		"v add volume 2 #menu: Audio > Volume up",
	})

	audio := describeAt(t, tree, 0)
	if audio.Children.Len() != 2 {
		t.Fatalf("expected Tracks and Volume up, got %v", audio.Children)
	}

	tracks := describeAt(t, audio.Children, 0)
	if tracks.Keyword != "tracks/audio" {
		t.Errorf("expected first keyword to win, got %q", tracks.Keyword)
	}
}

func TestParseReader_CachedCopies(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	src := "a cycle pause #menu: Playback > Play/Pause\n"

	first, err := ParseReader(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	first.Append(node.KindNone)

	second, err := ParseReader(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if second.Len() != 1 {
		t.Errorf("expected cached tree to be unaffected by caller mutation, got %d", second.Len())
	}

	if !node.Equal(second, ParseString(context.Background(), src)) {
		t.Error("expected cached result to equal direct parse")
	}

	uosc, err := ParseReader(context.Background(), strings.NewReader("a b #! X\n"), WithDialect(UOSCDialect))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	plain, err := ParseReader(context.Background(), strings.NewReader("a b #! X\n"))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if uosc.Len() != 1 || plain.Len() != 0 {
		t.Errorf("expected dialect to be part of the cache key, got %d and %d", uosc.Len(), plain.Len())
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	src := strings.Join([]string{
		"a cycle pause #menu: Playback > Play/Pause",
		"- ignore #menu: Playback > -",
		"_ ignore #menu: Playback > Chapters #@chapters",
		"f cycle fullscreen #menu: Video > Fullscreen",
		"_ #menu: Tools",
		"q quit #menu: Quit",
		"_ ignore #menu: -",
		"x foo #menu: Playback > Speed > Faster",
	}, "\n")

	tree := ParseString(context.Background(), src)

	var buf bytes.Buffer
	if err := Format(&buf, tree); err != nil {
		t.Fatalf("Format: %v", err)
	}

	back := ParseString(context.Background(), buf.String())
	if !node.Equal(tree, back) {
		t.Errorf("round trip mismatch\nformatted:\n%s\nbefore: %v\nafter:  %v", buf.String(), tree, back)
	}
}

func TestFormat_Idempotence_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	name := gen.Identifier()

	properties.Property("parse(format(parse(x))) == parse(x)", prop.ForAll(
		func(parents, leaves []string, keys []bool) bool {
			lines := make([]string, 0, len(leaves))
			for i, leaf := range leaves {
				key := "_"
				if i < len(keys) && keys[i] {
					key = "k"
				}

				spec := leaf
				if len(parents) > 0 {
					spec = parents[i%len(parents)] + " > " + leaf
				}

				lines = append(lines, fmt.Sprintf("%s cmd%d #menu: %s", key, i, spec))
			}

			tree := ParseLines(context.Background(), lines)

			var buf bytes.Buffer
			if err := Format(&buf, tree); err != nil {
				return false
			}

			return node.Equal(tree, ParseString(context.Background(), buf.String()))
		},
		gen.SliceOfN(3, name),
		gen.SliceOf(name),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
