// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package strpool is the String Store: it interns or adopts byte strings
// and hands back a tagged tagvalue.Value, inlining anything at or under the
// short-string threshold directly into the value word and only touching
// the heap table for the long tail.
//
// The pool never frees an entry once it has been handed out. Reclaiming
// heap strings is a garbage-collection policy question, and GC policy
// beyond allocation/ownership contracts is explicitly out of scope for
// this module; the interpreter's real memory manager owns that problem.
package strpool

import (
	"bytes"

	"github.com/skorobogatov/mjs/internal/tagvalue"
)

// Handle is a 1-based index into a Pool's string table. The zero Handle
// is never issued.
type Handle uint32

// Pool is the heap half of the String Store. Create one with New, which
// reserves the sentinel slot 0; a zero Pool lacks that slot and would
// issue Handle 0 for its first heap string.
type Pool struct {
	entries [][]byte // entries[0] is an unused sentinel slot
}

// New returns a ready-to-use Pool.
func New() *Pool {
	return &Pool{entries: make([][]byte, 1)}
}

// Intern returns a tagged tagvalue.Value for b. Strings of at most
// tagvalue.ShortStringMax bytes are inlined and never touch the heap table;
// longer strings get a fresh slot. copyBytes selects whether the pool
// takes its own copy of b or adopts the caller's backing array: adopting
// is only safe when the caller guarantees no further mutation of b.
func (p *Pool) Intern(b []byte, copyBytes bool) tagvalue.Value {
	if v, ok := tagvalue.MkShortString(b); ok {
		return v
	}

	var stored []byte
	if copyBytes {
		stored = make([]byte, len(b))
		copy(stored, b)
	} else {
		stored = b
	}

	p.entries = append(p.entries, stored)
	h := Handle(len(p.entries) - 1)
	return tagvalue.MkHeapString(uint32(h))
}

// Bytes borrows the byte slice backing a STRING_HEAP value. The slice
// must not be retained across a call to Intern, which may grow the
// pool's backing table; callers that need to keep the bytes around
// must copy them first. Precondition: v.IsHeapString().
func (p *Pool) Bytes(v tagvalue.Value) []byte {
	return p.entries[Handle(v.AsHandle())]
}

// Get returns the raw bytes of any string value, short or heap.
// Precondition: v.IsString().
func (p *Pool) Get(v tagvalue.Value) []byte {
	if v.IsShortString() {
		return tagvalue.ShortStringBytes(v)
	}
	return p.Bytes(v)
}

// Strcmp performs a three-way comparison of a string value against a
// byte slice: it decodes v with Get and returns bytes.Compare(Get(v), b).
func (p *Pool) Strcmp(v tagvalue.Value, b []byte) int {
	return bytes.Compare(p.Get(v), b)
}
