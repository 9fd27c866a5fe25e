// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package arena is the Node Arena: a pool-backed allocator of fixed-size
// crit-bit trie nodes, addressed by stable integer handles instead of
// raw pointers.
//
// The original mjs_node overlays a leaf {name, value} pair and an inner
// {child[2], pos} triple in the same C union, discriminated by a bit
// stolen from the pointer that refers to the node rather than by a field
// inside the node. A Go struct can't overlay memory that way without
// unsafe tricks, so Node simply carries both sets of fields; the
// contract from the original still holds by convention: code must only
// read the leaf fields through a leaf Edge and the inner fields through
// an inner Edge, never the other way around.
//
// Using arena-relative Handles instead of pointers also sidesteps the
// relocation hazard the original calls out for a compacting arena: this
// arena never moves a live Node's storage, but nothing outside this
// package should assume that and cache anything other than a Handle or
// an Edge across calls, matching the pointer-based contract exactly.
package arena

import "github.com/bits-and-blooms/bitset"

// Handle is a 1-based stable index into an Arena's node table. The zero
// Handle is the sentinel meaning "no node".
type Handle uint32

// Edge is how a node refers to one of its children, or how an Object
// refers to its trie root: the low bit carries the inner/leaf
// discriminant (1 = inner node, 0 = leaf node) and the remaining bits
// are a Handle. This is a direct translation of the original's
// IS_INNER_NODE/ENCODE_INNER_NODE/ENCODE_LEAF_NODE pointer trick, with
// "pointer" replaced by "stable arena index".
type Edge uint32

// NilEdge is the zero Edge: an absent child, or an empty object's root.
const NilEdge Edge = 0

// LeafEdge encodes a reference to a leaf node.
func LeafEdge(h Handle) Edge { return Edge(h) << 1 }

// InnerEdge encodes a reference to an inner node.
func InnerEdge(h Handle) Edge { return Edge(h)<<1 | 1 }

// IsInner reports whether e refers to an inner node.
func (e Edge) IsInner() bool { return e&1 == 1 }

// IsLeaf reports whether e refers to a leaf node. A nil edge is
// reported as neither; callers must check IsNil first.
func (e Edge) IsLeaf() bool { return e&1 == 0 && e != NilEdge }

// IsNil reports whether e is the absent-child / empty-root sentinel.
func (e Edge) IsNil() bool { return e == NilEdge }

// Handle decodes the node index carried by e.
func (e Edge) Handle() Handle { return Handle(e >> 1) }

// Position is an inner node's discriminating bit: a byte offset into the
// key plus a mask whose binary form has exactly one zero bit, at the
// critical bit position (mask = ^(1 << critBit)).
type Position struct {
	Byte uint32
	Mask uint8
}

// Less implements the position ordering from the data model: a smaller
// byte wins outright; a tie is broken by mask, where a *larger* mask
// means a *less significant* (and so higher-in-the-trie) critical bit.
func (p Position) Less(q Position) bool {
	return p.Byte < q.Byte || (p.Byte == q.Byte && p.Mask > q.Mask)
}

// Node is a fixed-size property node storing both the leaf overlay
// (Name, Value) and the inner overlay (Child, Pos); see the package doc
// for which one is valid at any given time.
type Node struct {
	Parent Handle

	// Leaf overlay: meaningful when this node is reached via a leaf Edge.
	Name  uint64 // tagged tagvalue.Value bits of the property name
	Value uint64 // tagged tagvalue.Value bits of the property value

	// Inner overlay: meaningful when this node is reached via an inner Edge.
	Child [2]Edge
	Pos   Position
}

func (n *Node) reset() { *n = Node{} }

// Arena is a pool-backed slab of Nodes addressed by Handle. Create one
// with New, which reserves the sentinel slot 0; a zero Arena lacks that
// slot, so its first Alloc would hand out Handle 0.
type Arena struct {
	slab []*Node // slab[0] is an unused sentinel so Handle 0 stays invalid
	free []Handle
	pool pool

	live bitset.BitSet // occupancy: bit i set iff slab[i] is checked out

	maxNodes int // 0 = unbounded
}

// New returns a ready-to-use Arena. maxNodes bounds the number of live
// nodes (0 means unbounded); exceeding it makes Alloc report failure,
// modeling the spec's OUT_OF_MEMORY outcome for node allocation.
func New(maxNodes int) *Arena {
	a := &Arena{slab: make([]*Node, 1), maxNodes: maxNodes}
	a.live.Set(0) // slot 0 is permanently "in use" as the sentinel
	return a
}

// Len reports the number of live (checked-out) nodes, not counting the
// reserved sentinel slot. This is the bits-and-blooms occupancy bitmap's
// popcount, not a separate tally derived from the slab/free-list shape:
// the bitmap is the arena's one source of truth for liveness.
func (a *Arena) Len() int { return int(a.live.Count()) - 1 }

// occupied reports whether h is currently checked out.
func (a *Arena) occupied(h Handle) bool { return a.live.Test(uint(h)) }

// Alloc checks out a fresh, zeroed node and returns its stable handle.
// ok is false if the arena's capacity (maxNodes) is exhausted; the
// arena is left unchanged in that case.
func (a *Arena) Alloc() (h Handle, ok bool) {
	if a.maxNodes > 0 && a.Len() >= a.maxNodes {
		return 0, false
	}

	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
		node := a.pool.Get()
		node.reset()
		a.slab[h] = node
		a.live.Set(uint(h))
		return h, true
	}

	node := a.pool.Get()
	node.reset()
	a.slab = append(a.slab, node)
	h = Handle(len(a.slab) - 1)
	a.live.Set(uint(h))
	return h, true
}

// Free returns h's node to the pool for reuse. h must not be used again
// by the caller after this call.
func (a *Arena) Free(h Handle) {
	node := a.slab[h]
	a.slab[h] = nil
	a.live.Clear(uint(h))
	a.free = append(a.free, h)
	a.pool.Put(node)
}

// Get dereferences a handle. Precondition: h was returned by Alloc and
// has not since been Freed.
func (a *Arena) Get(h Handle) *Node { return a.slab[h] }
