// Package node implements the tagged variant tree exchanged with the media
// player: property values, menu descriptors and renderer snapshots are all
// [Node] values.
//
// Nodes are built with [Make] and the New* constructors, filled with
// [Node.Append] and [Node.Set], and compared with [Equal]. Maps keep
// insertion order and may hold duplicate keys; [Node.Get] returns the first
// match. [Copy] produces an independent deep copy, and [Fingerprint] hashes a
// tree so callers can cheaply detect structural change.
package node
