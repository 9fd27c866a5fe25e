// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package critbit is the per-object property index: a crit-bit trie
// whose inner nodes record only a (byte, mask) position, never a stored
// key prefix, so lookup depends on key length and not on tree shape.
//
// The directional-descent shape and the insertion-point rewalk below
// follow the algorithm in the standalone critbit reference
// (util/critbit in the retrieval pack); the exact bit arithmetic for the
// descent direction and the position ordering follows mjs_object.c, so
// that both the trie's external behavior and its internal layout match
// the specification precisely.
package critbit

import (
	"errors"
	"math/bits"

	"github.com/skorobogatov/mjs/internal/arena"
	"github.com/skorobogatov/mjs/internal/strpool"
	"github.com/skorobogatov/mjs/internal/tagvalue"
)

// ErrOutOfMemory is returned by Insert when the underlying arena refuses
// to hand out another node. The trie is left exactly as it was before
// the call: Insert only mutates structure after every allocation it
// needs has already succeeded.
var ErrOutOfMemory = errors.New("critbit: node allocation failed")

// Trie is a per-object property index. The zero Trie is empty.
type Trie struct {
	Root  arena.Edge
	Count int
}

// direction computes, branch-free, which child of an inner node at pos
// a key belongs in: 0 if the key's critical bit is 0 (or the key is too
// short to have a byte at pos.Byte, treated as a virtual zero byte), 1
// otherwise. (1 + (mask|c)) >> 8 is the same branch-free formula the
// original uses, evaluated here over Go's untyped int arithmetic instead
// of relying on uint8 overflow.
func direction(pos arena.Position, key []byte) int {
	var c byte
	if int(pos.Byte) < len(key) {
		c = key[pos.Byte]
	}
	return (1 + int(pos.Mask|c)) >> 8
}

// descend walks downward from a non-empty edge, choosing a child at each
// inner node via direction, until it reaches a leaf. The returned handle
// is the unique *candidate* leaf for key: it still needs a name
// comparison to confirm equality.
func descend(a *arena.Arena, root arena.Edge, key []byte) arena.Handle {
	e := root
	for e.IsInner() {
		n := a.Get(e.Handle())
		e = n.Child[direction(n.Pos, key)]
	}
	return e.Handle()
}

func leftmost(a *arena.Arena, e arena.Edge) arena.Handle {
	for e.IsInner() {
		e = a.Get(e.Handle()).Child[0]
	}
	return e.Handle()
}

// nameEquals compares a leaf's stored name against a query key, using
// the short-string fast path (a single 64-bit compare) whenever the key
// is at most tagvalue.ShortStringMax bytes, and a byte-wise strcmp via the
// string pool otherwise.
func nameEquals(sp *strpool.Pool, name tagvalue.Value, key []byte) bool {
	if len(key) <= tagvalue.ShortStringMax {
		sv, ok := tagvalue.MkShortString(key)
		return ok && name == sv
	}
	return sp.Strcmp(name, key) == 0
}

// Lookup finds the own-property leaf for key, per the own-key lookup
// algorithm: empty tries miss outright, single-leaf tries compare
// directly, and larger tries descend to a candidate before comparing.
func (t *Trie) Lookup(a *arena.Arena, sp *strpool.Pool, key []byte) (arena.Handle, bool) {
	if t.Root.IsNil() {
		return 0, false
	}
	h := descend(a, t.Root, key)
	leaf := a.Get(h)
	if !nameEquals(sp, tagvalue.Value(leaf.Name), key) {
		return 0, false
	}
	return h, true
}

// Insert sets key's value to val, creating a new property or overwriting
// an existing one in place. inserted reports whether a new property was
// created (false means an existing one was overwritten). On
// ErrOutOfMemory the trie is unchanged.
func (t *Trie) Insert(a *arena.Arena, sp *strpool.Pool, key []byte, val tagvalue.Value) (inserted bool, err error) {
	if t.Count == 0 {
		h, ok := a.Alloc()
		if !ok {
			return false, ErrOutOfMemory
		}
		leaf := a.Get(h)
		leaf.Parent = 0
		leaf.Value = uint64(val)
		leaf.Name = uint64(sp.Intern(key, true))
		t.Root = arena.LeafEdge(h)
		t.Count = 1
		return true, nil
	}

	candH := descend(a, t.Root, key)
	cand := a.Get(candH)
	candName := sp.Get(tagvalue.Value(cand.Name))

	minLen := len(key)
	if len(candName) < minLen {
		minLen = len(candName)
	}
	byteIdx := 0
	for byteIdx < minLen && key[byteIdx] == candName[byteIdx] {
		byteIdx++
	}

	if byteIdx == minLen && len(key) == len(candName) {
		cand.Value = uint64(val)
		return false, nil
	}

	var c, lc byte
	if byteIdx < len(key) {
		c = key[byteIdx]
	}
	if byteIdx < len(candName) {
		lc = candName[byteIdx]
	}

	critBit := bits.TrailingZeros8(c ^ lc)
	newPos := arena.Position{Byte: uint32(byteIdx), Mask: ^(uint8(1) << uint(critBit))}
	newDir := int((lc >> uint(critBit)) & 1)

	innerH, ok := a.Alloc()
	if !ok {
		return false, ErrOutOfMemory
	}
	leafH, ok := a.Alloc()
	if !ok {
		a.Free(innerH)
		return false, ErrOutOfMemory
	}

	inner := a.Get(innerH)
	inner.Pos = newPos
	newLeaf := a.Get(leafH)
	newLeaf.Parent = innerH
	newLeaf.Value = uint64(val)
	inner.Child[1-newDir] = arena.LeafEdge(leafH)

	// Re-walk root..candidate, stopping at the first inner node whose
	// position is not less than newPos (or at the edge above a leaf).
	where := &t.Root
	for where.IsInner() {
		x := a.Get(where.Handle())
		if newPos.Less(x.Pos) {
			break
		}
		where = &x.Child[direction(x.Pos, key)]
	}

	old := *where
	oldNode := a.Get(old.Handle())
	inner.Child[newDir] = old
	inner.Parent = oldNode.Parent
	oldNode.Parent = innerH
	*where = arena.InnerEdge(innerH)

	// The name is interned only after splicing: in a compacting arena
	// this would matter because string allocation could relocate node
	// storage and invalidate addresses taken before it; this arena never
	// compacts, but the ordering is kept to match the reference
	// semantics exactly.
	newLeaf.Name = uint64(sp.Intern(key, true))
	t.Count++
	return true, nil
}

// Delete removes key's property, if present. ok is false if the key was
// not found, in which case the trie is unchanged.
func (t *Trie) Delete(a *arena.Arena, sp *strpool.Pool, key []byte) bool {
	leafH, ok := t.Lookup(a, sp, key)
	if !ok {
		return false
	}

	leaf := a.Get(leafH)
	parentH := leaf.Parent
	if parentH == 0 {
		t.Root = arena.NilEdge
	} else {
		parent := a.Get(parentH)
		dir := 0
		if parent.Child[0] == arena.LeafEdge(leafH) {
			dir = 1
		}
		sibling := parent.Child[dir]
		grandH := parent.Parent

		if grandH == 0 {
			t.Root = sibling
		} else {
			grand := a.Get(grandH)
			if grand.Child[0] == arena.InnerEdge(parentH) {
				grand.Child[0] = sibling
			} else {
				grand.Child[1] = sibling
			}
		}

		a.Get(sibling.Handle()).Parent = grandH
		a.Free(parentH)
	}

	a.Free(leafH)
	t.Count--
	return true
}

// Start begins an in-order traversal, returning the leftmost leaf.
// ok is false for an empty trie.
func (t *Trie) Start(a *arena.Arena) (arena.Handle, bool) {
	if t.Root.IsNil() {
		return 0, false
	}
	return leftmost(a, t.Root), true
}

// Next returns the leaf following cur in the trie's in-order sequence.
// ok is false if cur was the last leaf.
func (t *Trie) Next(a *arena.Arena, cur arena.Handle) (arena.Handle, bool) {
	x := cur
	encodedX := arena.LeafEdge(x)
	for {
		parentH := a.Get(x).Parent
		if parentH == 0 {
			return 0, false
		}
		parent := a.Get(parentH)
		if encodedX == parent.Child[0] {
			return leftmost(a, parent.Child[1]), true
		}
		x = parentH
		encodedX = arena.InnerEdge(x)
	}
}
