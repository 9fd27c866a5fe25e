// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mjs

import (
	"github.com/pkg/errors"

	"github.com/skorobogatov/mjs/internal/arena"
	"github.com/skorobogatov/mjs/internal/critbit"
	"github.com/skorobogatov/mjs/internal/strpool"
	"github.com/skorobogatov/mjs/internal/tagvalue"
)

// protoKey is the reserved prototype-link property name. It fits the
// short-string fast path (at most 5 bytes) by construction.
const protoKey = "__p"

// object is a heap record: a crit-bit trie root plus the property count
// the trie already tracks. Index 0 of Store.objects is an unused
// sentinel, mirroring the arena and string pool's own reserved slot 0.
type object struct {
	trie critbit.Trie
}

// Store owns every table a Value can reference: the node arena behind
// every object's trie, the string pool, the object table and the
// foreign-value table. Values minted by one Store are meaningless
// against another.
type Store struct {
	arena   *arena.Arena
	strings *strpool.Pool

	objects  []object
	foreigns []any

	arenaSlab     int
	maxProtoDepth int

	pinned []Value
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithArenaSlab bounds the number of live trie nodes a Store's arena will
// hand out (0, the default, means unbounded). Exceeding it makes Set
// return ErrOutOfMemory instead of growing further.
func WithArenaSlab(n int) Option {
	return func(s *Store) { s.arenaSlab = n }
}

// WithMaxProtoDepth caps the number of "__p" hops GetWithProto will
// follow. 0 (the default) applies no cap; GetWithProto is still safe
// against cyclic chains regardless, since it tracks visited objects.
func WithMaxProtoDepth(n int) Option {
	return func(s *Store) { s.maxProtoDepth = n }
}

// NewStore returns a ready-to-use Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		strings:  strpool.New(),
		objects:  make([]object, 1),
		foreigns: make([]any, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.arena = arena.New(s.arenaSlab)
	return s
}

// obj resolves an object Value to its backing record. It fails with
// ErrType for any non-object value, including Null: Null is a valid
// IsObject() value but carries no handle to dereference.
func (s *Store) obj(v Value) (*object, error) {
	if !v.IsObject() || v.IsNull() {
		return nil, errors.Wrap(ErrType, "value is not a dereferenceable object")
	}
	h := v.ObjectHandle()
	if int(h) >= len(s.objects) {
		return nil, errors.Wrap(ErrType, "object handle does not belong to this store")
	}
	return &s.objects[h], nil
}

// MkObject returns a new, empty object value.
func (s *Store) MkObject() Value {
	s.objects = append(s.objects, object{})
	return tagvalue.MkObjectHandle(uint32(len(s.objects) - 1))
}

// MkString interns b and returns its tagged Value. Strings of at most
// tagvalue.ShortStringMax bytes never touch the heap table. copyBytes
// selects whether the Store copies b or adopts the caller's backing
// array; adopting is only safe if the caller will not mutate b again.
func (s *Store) MkString(b []byte, copyBytes bool) Value {
	return s.strings.Intern(b, copyBytes)
}

// MkForeign wraps an opaque host value p as a FOREIGN-tagged Value. The
// property store never interprets p.
func (s *Store) MkForeign(p any) Value {
	s.foreigns = append(s.foreigns, p)
	return tagvalue.MkForeignHandle(uint32(len(s.foreigns) - 1))
}

// Foreign unwraps a FOREIGN-tagged value. Precondition: v.IsForeign().
func (s *Store) Foreign(v Value) any {
	return s.foreigns[v.AsHandle()]
}

// Own pins v as a GC/compaction root for the duration of a nested
// construction, mirroring mjs_own. This Store never reclaims or
// relocates live objects, so Own/Disown have no effect on correctness
// today; they are kept as a real root stack (not a no-op) because
// StructToObject's recursive build is exactly the original's use site,
// and a future compacting arena would need this bookkeeping already in
// place at every call site that matters.
func (s *Store) Own(v *Value) {
	s.pinned = append(s.pinned, *v)
}

// Disown unpins the most recently pinned occurrence of *v, mirroring
// mjs_disown's stack discipline: callers must disown in the reverse
// order they owned.
func (s *Store) Disown(v *Value) {
	for i := len(s.pinned) - 1; i >= 0; i-- {
		if s.pinned[i] == *v {
			s.pinned = append(s.pinned[:i], s.pinned[i+1:]...)
			return
		}
	}
}
