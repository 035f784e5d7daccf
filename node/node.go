//go:generate go tool stringer --linecomment --type Kind

package node

import (
	"fmt"
	"iter"
)

// Kind is the tag of a [Node]. A node's kind never changes after
// construction.
type Kind uint8

const (
	KindNone   Kind = iota // none
	KindFlag               // flag
	KindInt64              // int64
	KindDouble             // double
	KindString             // string
	KindArray              // array
	KindMap                // map
)

// Node is a tagged variant value. Array and Map nodes own their children
// exclusively; a child must never be attached to two parents.
//
// A Map is an ordered sequence of (key, value) pairs. Keys are not unique;
// lookups return the first match.
type Node struct {
	kind Kind
	flag bool
	i64  int64
	f64  float64
	str  string
	keys []string // KindMap only, parallel to list
	list []*Node  // KindArray and KindMap
}

// Make returns an empty node of the given kind.
func Make(kind Kind) *Node { return &Node{kind: kind} }

// NewNone returns a node of kind None.
func NewNone() *Node { return &Node{kind: KindNone} }

// NewFlag returns a Flag node.
func NewFlag(v bool) *Node { return &Node{kind: KindFlag, flag: v} }

// NewInt64 returns an Int64 node.
func NewInt64(v int64) *Node { return &Node{kind: KindInt64, i64: v} }

// NewDouble returns a Double node.
func NewDouble(v float64) *Node { return &Node{kind: KindDouble, f64: v} }

// NewString returns a String node.
func NewString(v string) *Node { return &Node{kind: KindString, str: v} }

// NewArray returns an Array node that takes ownership of children.
func NewArray(children ...*Node) *Node {
	n := &Node{kind: KindArray}
	for _, c := range children {
		n.AppendNode(c)
	}

	return n
}

// NewMap returns an empty Map node.
func NewMap() *Node { return &Node{kind: KindMap} }

// Kind returns the node's tag. A nil node reports KindNone.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNone
	}

	return n.kind
}

// Is reports whether n is non-nil and of the given kind.
func (n *Node) Is(kind Kind) bool { return n != nil && n.kind == kind }

// Flag returns the value of a Flag node.
func (n *Node) Flag() (bool, bool) {
	if !n.Is(KindFlag) {
		return false, false
	}

	return n.flag, true
}

// Int64 returns the value of an Int64 node.
func (n *Node) Int64() (int64, bool) {
	if !n.Is(KindInt64) {
		return 0, false
	}

	return n.i64, true
}

// Double returns the value of a Double node. Int64 nodes are widened.
func (n *Node) Double() (float64, bool) {
	switch {
	case n.Is(KindDouble):
		return n.f64, true
	case n.Is(KindInt64):
		return float64(n.i64), true
	default:
		return 0, false
	}
}

// Str returns the value of a String node.
func (n *Node) Str() (string, bool) {
	if !n.Is(KindString) {
		return "", false
	}

	return n.str, true
}

// Len returns the number of children of an Array or Map node, or 0.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}

	return len(n.list)
}

// Index returns the i-th child of an Array or Map node, or nil.
func (n *Node) Index(i int) *Node {
	if n == nil || i < 0 || i >= len(n.list) {
		return nil
	}

	return n.list[i]
}

// Key returns the i-th key of a Map node.
func (n *Node) Key(i int) (string, bool) {
	if !n.Is(KindMap) || i < 0 || i >= len(n.keys) {
		return "", false
	}

	return n.keys[i], true
}

// All returns an iterator over the children of an Array or Map node.
func (n *Node) All() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		if n == nil {
			return
		}

		for i, c := range n.list {
			if !yield(i, c) {
				return
			}
		}
	}
}

// Pairs returns an iterator over the (key, value) pairs of a Map node in
// insertion order, duplicates included.
func (n *Node) Pairs() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if !n.Is(KindMap) {
			return
		}

		for i, k := range n.keys {
			if !yield(k, n.list[i]) {
				return
			}
		}
	}
}

// Append adds a new node of the given kind to an Array and returns it. The
// returned pointer stays valid across further appends.
func (n *Node) Append(kind Kind) *Node {
	c := Make(kind)
	n.AppendNode(c)

	return c
}

// AppendNode adds child to an Array. It panics if n is not an Array.
func (n *Node) AppendNode(child *Node) *Node {
	if !n.Is(KindArray) {
		panic(fmt.Sprintf("node: append to %s node", n.Kind()))
	}

	if child == nil {
		child = NewNone()
	}

	n.list = append(n.list, child)

	return child
}

// Set appends a new (key, node) pair to a Map and returns the new node.
// Existing keys are not checked; use [Node.Get] first when idempotence is
// required.
func (n *Node) Set(key string, kind Kind) *Node {
	c := Make(kind)
	n.SetNode(key, c)

	return c
}

// SetNode appends (key, child) to a Map. It panics if n is not a Map.
func (n *Node) SetNode(key string, child *Node) *Node {
	if !n.Is(KindMap) {
		panic(fmt.Sprintf("node: set key %q on %s node", key, n.Kind()))
	}

	if child == nil {
		child = NewNone()
	}

	n.keys = append(n.keys, key)
	n.list = append(n.list, child)

	return child
}

// SetString appends a String value under key.
func (n *Node) SetString(key, v string) { n.SetNode(key, NewString(v)) }

// SetInt64 appends an Int64 value under key.
func (n *Node) SetInt64(key string, v int64) { n.SetNode(key, NewInt64(v)) }

// SetDouble appends a Double value under key.
func (n *Node) SetDouble(key string, v float64) { n.SetNode(key, NewDouble(v)) }

// SetFlag appends a Flag value under key.
func (n *Node) SetFlag(key string, v bool) { n.SetNode(key, NewFlag(v)) }

// Replace swaps the value slot of the first pair matching key for child.
// It reports false if n is not a Map or has no such key.
func (n *Node) Replace(key string, child *Node) bool {
	if !n.Is(KindMap) {
		return false
	}

	for i, k := range n.keys {
		if k == key {
			if child == nil {
				child = NewNone()
			}

			n.list[i] = child

			return true
		}
	}

	return false
}

// Get returns the value of the first pair matching key. It reports false
// for a missing key or a receiver that is not a Map.
func (n *Node) Get(key string) (*Node, bool) {
	if !n.Is(KindMap) {
		return nil, false
	}

	for i, k := range n.keys {
		if k == key {
			return n.list[i], true
		}
	}

	return nil, false
}

// Lookup follows a path of map keys from n.
func (n *Node) Lookup(path ...string) (*Node, bool) {
	cur := n

	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, cur != nil
}

// GetString is shorthand for a Get followed by Str.
func (n *Node) GetString(key string) (string, bool) {
	v, ok := n.Get(key)
	if !ok {
		return "", false
	}

	return v.Str()
}

// GetInt64 is shorthand for a Get followed by Int64.
func (n *Node) GetInt64(key string) (int64, bool) {
	v, ok := n.Get(key)
	if !ok {
		return 0, false
	}

	return v.Int64()
}

// GetDouble is shorthand for a Get followed by Double.
func (n *Node) GetDouble(key string) (float64, bool) {
	v, ok := n.Get(key)
	if !ok {
		return 0, false
	}

	return v.Double()
}

// GetFlag is shorthand for a Get followed by Flag.
func (n *Node) GetFlag(key string) (bool, bool) {
	v, ok := n.Get(key)
	if !ok {
		return false, false
	}

	return v.Flag()
}

// String renders n as compact JSON for diagnostics.
func (n *Node) String() string {
	b, err := n.MarshalJSON()
	if err != nil {
		return "<" + n.Kind().String() + ">"
	}

	return string(b)
}
