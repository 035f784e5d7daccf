package node

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

func sampleTree() *Node {
	root := NewArray()

	item := root.Append(KindMap)
	item.SetString("title", "Open")
	item.SetString("cmd", "script-message open")

	sub := root.Append(KindMap)
	sub.SetString("type", "submenu")
	sub.SetString("title", "Tracks")
	sub.Set("submenu", KindArray).Append(KindMap).SetString("type", "separator")

	n := root.Append(KindMap)
	n.SetInt64("id", 7)
	n.SetDouble("time", 12.5)
	n.SetFlag("selected", true)

	return root
}

func TestMake_Kinds(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
	}{
		{KindNone, "none"},
		{KindFlag, "flag"},
		{KindInt64, "int64"},
		{KindDouble, "double"},
		{KindString, "string"},
		{KindArray, "array"},
		{KindMap, "map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Make(tt.kind)
			if n.Kind() != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, n.Kind())
			}

			if tt.kind.String() != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, tt.kind.String())
			}

			if n.Len() != 0 {
				t.Errorf("expected empty node, got %d children", n.Len())
			}
		})
	}
}

func TestAppend_PointerStableAcrossGrowth(t *testing.T) {
	arr := NewArray()
	first := arr.Append(KindMap)

	for range 100 {
		arr.Append(KindInt64)
	}

	first.SetString("title", "still here")

	got, ok := arr.Index(0).GetString("title")
	if !ok || got != "still here" {
		t.Errorf("expected mutation through first pointer, got %q", got)
	}
}

func TestGet_FirstMatchWins(t *testing.T) {
	m := NewMap()
	m.SetString("k", "first")
	m.SetString("k", "second")

	got, ok := m.GetString("k")
	if !ok || got != "first" {
		t.Errorf("expected first, got %q", got)
	}

	if m.Len() != 2 {
		t.Errorf("expected duplicate keys kept, got %d", m.Len())
	}

	if _, ok := m.Get("missing"); ok {
		t.Error("expected missing key to report false")
	}

	if _, ok := NewArray().Get("k"); ok {
		t.Error("expected Get on array to report false")
	}
}

func TestReplace(t *testing.T) {
	m := NewMap()
	m.SetString("title", "old")

	if !m.Replace("title", NewString("new")) {
		t.Fatal("expected replace to succeed")
	}

	if got, _ := m.GetString("title"); got != "new" {
		t.Errorf("expected new, got %q", got)
	}

	if m.Replace("absent", NewNone()) {
		t.Error("expected replace of absent key to fail")
	}
}

func TestAppend_PanicsOnMap(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic appending to a map")
		}
	}()

	NewMap().Append(KindString)
}

func TestLookup(t *testing.T) {
	root := NewMap()
	root.Set("a", KindMap).Set("b", KindMap).SetInt64("c", 3)

	n, ok := root.Lookup("a", "b", "c")
	if !ok {
		t.Fatal("expected path to resolve")
	}

	if v, _ := n.Int64(); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}

	if _, ok := root.Lookup("a", "x"); ok {
		t.Error("expected missing path to fail")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Node
		want bool
	}{
		{"nil and none", nil, NewNone(), true},
		{"flags", NewFlag(true), NewFlag(true), true},
		{"flag differs", NewFlag(true), NewFlag(false), false},
		{"int vs double", NewInt64(1), NewDouble(1), false},
		{"strings", NewString("a"), NewString("a"), true},
		{"array order", NewArray(NewInt64(1), NewInt64(2)), NewArray(NewInt64(2), NewInt64(1)), false},
		{"array length", NewArray(NewInt64(1)), NewArray(), false},
		{"same tree", sampleTree(), sampleTree(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEqual_MapKeyOrderMatters(t *testing.T) {
	a := NewMap()
	a.SetString("x", "1")
	a.SetString("y", "2")

	b := NewMap()
	b.SetString("y", "2")
	b.SetString("x", "1")

	if Equal(a, b) {
		t.Error("expected maps with different key order to differ")
	}
}

func TestCopy_IsIndependent(t *testing.T) {
	orig := sampleTree()
	dup := Copy(orig)

	if !Equal(orig, dup) {
		t.Fatal("expected copy to equal original")
	}

	dup.Index(0).Replace("title", NewString("Changed"))
	dup.Append(KindNone)

	if Equal(orig, dup) {
		t.Error("expected mutation of copy to leave original untouched")
	}

	if got, _ := orig.Index(0).GetString("title"); got != "Open" {
		t.Errorf("original mutated: %q", got)
	}
}

func TestFingerprint_FollowsEquality(t *testing.T) {
	if Fingerprint(sampleTree()) != Fingerprint(sampleTree()) {
		t.Error("expected equal trees to hash equally")
	}

	a := sampleTree()
	b := sampleTree()
	b.Index(2).Replace("id", NewInt64(8))

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("expected differing trees to hash differently")
	}

	if Fingerprint(NewString("1")) == Fingerprint(NewInt64(1)) {
		t.Error("expected kind to contribute to the hash")
	}
}

func TestJSON_RoundTripKeepsOrder(t *testing.T) {
	src := `{"z":1,"a":[true,null,"s",2.5,3.0],"m":{"k":"v","k":"w"}}`

	var n Node
	if err := json.Unmarshal([]byte(src), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if k, _ := n.Key(0); k != "z" {
		t.Errorf("expected first key z, got %q", k)
	}

	if v, ok := n.GetInt64("z"); !ok || v != 1 {
		t.Errorf("expected integer z=1, got %v", v)
	}

	arr, _ := n.Get("a")
	if arr.Index(4).Kind() != KindDouble {
		t.Errorf("expected 3.0 to decode as double, got %v", arr.Index(4).Kind())
	}

	m, _ := n.Get("m")
	if m.Len() != 2 {
		t.Errorf("expected duplicate keys kept, got %d", m.Len())
	}

	out, err := json.Marshal(&n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(out) != src {
		t.Errorf("expected %s, got %s", src, out)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	_, err := readJSON(strings.NewReader(`{"a":`))
	if !errors.Is(err, pkg.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	tree := sampleTree()

	b, err := EncodeYAML(tree)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	back, err := DecodeYAML(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !Equal(tree, back) {
		t.Errorf("expected round trip to preserve tree\n%s\ngot %v", b, back)
	}
}

func TestFromNative(t *testing.T) {
	n, err := FromNative(map[string]any{
		"b": []any{1, uint8(2), "x"},
		"a": nil,
	})
	if err != nil {
		t.Fatalf("FromNative: %v", err)
	}

	if k, _ := n.Key(0); k != "a" {
		t.Errorf("expected sorted keys, got first %q", k)
	}

	if _, err := FromNative(struct{}{}); !errors.Is(err, pkg.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat for unsupported type, got %v", err)
	}

	if _, err := FromNative(uint64(1) << 63); err == nil {
		t.Error("expected overflow error")
	}
}

// treeFrom builds a deterministic two-level tree from generated slices.
func treeFrom(ints []int64, strs []string) *Node {
	root := NewArray()

	for i, v := range ints {
		m := root.Append(KindMap)
		m.SetInt64("id", v)

		if i < len(strs) {
			m.SetString("title", strs[i])
		}

		m.SetFlag("even", v%2 == 0)
	}

	return root
}

func TestCopyEqual_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("copy is equal to its source", prop.ForAll(
		func(ints []int64, strs []string) bool {
			n := treeFrom(ints, strs)

			return Equal(n, Copy(n)) && Fingerprint(n) == Fingerprint(Copy(n))
		},
		gen.SliceOf(gen.Int64()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("mutating a copy never changes the source", prop.ForAll(
		func(ints []int64, strs []string) bool {
			n := treeFrom(ints, strs)
			before := Fingerprint(n)

			c := Copy(n)
			c.Append(KindString)

			return Fingerprint(n) == before && !Equal(n, c)
		},
		gen.SliceOf(gen.Int64()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("JSON round trip preserves equality", prop.ForAll(
		func(ints []int64, strs []string) bool {
			n := treeFrom(ints, strs)

			b, err := json.Marshal(n)
			if err != nil {
				return false
			}

			back, err := readJSON(strings.NewReader(string(b)))

			return err == nil && Equal(n, back)
		},
		gen.SliceOf(gen.Int64()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
