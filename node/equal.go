package node

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Equal reports whether a and b are structurally equal: same kind, same
// scalar value, same ordered children, and for maps the same key sequence.
// Doubles compare with ==, so NaN is never equal to itself.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}

	if a.Kind() != b.Kind() {
		return false
	}

	if a == nil || b == nil {
		// a nil node is indistinguishable from an explicit None
		return true
	}

	switch a.kind {
	case KindNone:
		return true
	case KindFlag:
		return a.flag == b.flag
	case KindInt64:
		return a.i64 == b.i64
	case KindDouble:
		return a.f64 == b.f64
	case KindString:
		return a.str == b.str
	case KindMap:
		if len(a.keys) != len(b.keys) {
			return false
		}

		for i := range a.keys {
			if a.keys[i] != b.keys[i] {
				return false
			}
		}

		fallthrough
	case KindArray:
		if len(a.list) != len(b.list) {
			return false
		}

		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// Equal reports whether n and other are structurally equal.
func (n *Node) Equal(other *Node) bool { return Equal(n, other) }

// Copy returns a deep copy of n sharing no storage with it.
func Copy(n *Node) *Node {
	if n == nil {
		return nil
	}

	c := &Node{
		kind: n.kind,
		flag: n.flag,
		i64:  n.i64,
		f64:  n.f64,
		str:  n.str,
	}

	if n.keys != nil {
		c.keys = make([]string, len(n.keys))
		copy(c.keys, n.keys)
	}

	if n.list != nil {
		c.list = make([]*Node, len(n.list))
		for i, child := range n.list {
			c.list[i] = Copy(child)
		}
	}

	return c
}

// Copy returns a deep copy of n.
func (n *Node) Copy() *Node { return Copy(n) }

// Fingerprint returns a 64-bit hash of n's structure. Equal nodes have
// equal fingerprints.
func Fingerprint(n *Node) uint64 {
	h := xxh3.New()
	hashInto(h, n)

	return h.Sum64()
}

func hashInto(h *xxh3.Hasher, n *Node) {
	var scratch [9]byte

	scratch[0] = byte(n.Kind())

	switch n.Kind() {
	case KindNone:
		_, _ = h.Write(scratch[:1])
	case KindFlag:
		if n.flag {
			scratch[1] = 1
		}

		_, _ = h.Write(scratch[:2])
	case KindInt64:
		binary.LittleEndian.PutUint64(scratch[1:], uint64(n.i64))
		_, _ = h.Write(scratch[:])
	case KindDouble:
		f := n.f64
		if f == 0 {
			f = 0 // -0 == +0
		}

		binary.LittleEndian.PutUint64(scratch[1:], math.Float64bits(f))
		_, _ = h.Write(scratch[:])
	case KindString:
		writeString(h, scratch[:], n.str)
	case KindArray, KindMap:
		binary.LittleEndian.PutUint64(scratch[1:], uint64(len(n.list)))
		_, _ = h.Write(scratch[:])

		for i, child := range n.list {
			if n.kind == KindMap {
				writeString(h, scratch[:], n.keys[i])
			}

			hashInto(h, child)
		}
	}
}

func writeString(h *xxh3.Hasher, scratch []byte, s string) {
	scratch[0] = byte(KindString)
	binary.LittleEndian.PutUint64(scratch[1:], uint64(len(s)))
	_, _ = h.Write(scratch)
	_, _ = h.Write([]byte(s))
}
