// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arena

import "sync"

// pool is a type-safe wrapper around sync.Pool specialized for *Node,
// recycling freed node storage instead of handing it back to the
// garbage collector. The zero pool is ready to use.
type pool struct {
	sync.Pool
}

// Get retrieves a *Node from the pool, allocating a new one if the pool
// is empty.
func (p *pool) Get() *Node {
	if n, ok := p.Pool.Get().(*Node); ok {
		return n
	}
	return new(Node)
}

// Put returns n to the pool for reuse by a later Get.
func (p *pool) Put(n *Node) {
	p.Pool.Put(n)
}
