// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mjs

import (
	"iter"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skorobogatov/mjs/internal/arena"
	"github.com/skorobogatov/mjs/internal/tagvalue"
)

// Get returns obj's own property named by key, or Undefined if obj is
// not an object or the key is absent. Get never fails.
func (s *Store) Get(obj Value, key []byte) Value {
	ob, err := s.obj(obj)
	if err != nil {
		return tagvalue.Undefined
	}
	h, ok := ob.trie.Lookup(s.arena, s.strings, key)
	if !ok {
		return tagvalue.Undefined
	}
	return tagvalue.Value(s.arena.Get(h).Value)
}

// GetV is Get with the key supplied as a Value, coerced to a string via
// ToString.
func (s *Store) GetV(obj, key Value) (Value, error) {
	k, err := s.ToString(key)
	if err != nil {
		return tagvalue.Undefined, err
	}
	return s.Get(obj, k), nil
}

// GetWithProto is Get, then, on a miss, walks the prototype chain
// reachable through the reserved "__p" property. The walk tracks every
// object handle it has already visited and stops the instant it would
// revisit one: that is exactly (and only) the cyclic case, so an acyclic
// chain is always followed to its real end, however deep, while a cycle
// still terminates. If WithMaxProtoDepth was set, it additionally caps
// the number of hops.
func (s *Store) GetWithProto(obj Value, key []byte) Value {
	ob, err := s.obj(obj)
	if err != nil {
		return tagvalue.Undefined
	}

	cur, curObj := obj, ob
	visited := []uint32{cur.ObjectHandle()}
	hops := 0
	for {
		if h, ok := curObj.trie.Lookup(s.arena, s.strings, key); ok {
			return tagvalue.Value(s.arena.Get(h).Value)
		}
		if s.maxProtoDepth > 0 && hops >= s.maxProtoDepth {
			return tagvalue.Undefined
		}

		proto := s.Get(cur, []byte(protoKey))
		if !proto.IsObject() || proto.IsNull() {
			return tagvalue.Undefined
		}
		next, err := s.obj(proto)
		if err != nil {
			return tagvalue.Undefined
		}

		protoHandle := proto.ObjectHandle()
		for _, h := range visited {
			if h == protoHandle {
				return tagvalue.Undefined
			}
		}
		visited = append(visited, protoHandle)
		cur, curObj = proto, next
		hops++
	}
}

// Set assigns obj[key] = val, creating the property if absent. It fails
// with ErrType if obj is not an object, or ErrOutOfMemory if the arena
// cannot allocate the nodes the insert needs; in both cases obj is left
// unchanged.
func (s *Store) Set(obj Value, key []byte, val Value) error {
	ob, err := s.obj(obj)
	if err != nil {
		return err
	}
	if _, err := ob.trie.Insert(s.arena, s.strings, key, val); err != nil {
		return errors.Wrap(ErrOutOfMemory, err.Error())
	}
	return nil
}

// SetV is Set with the key supplied as a Value, coerced to a string via
// ToString.
func (s *Store) SetV(obj, key, val Value) error {
	k, err := s.ToString(key)
	if err != nil {
		return err
	}
	return s.Set(obj, k, val)
}

// Del removes obj[key]. It returns ErrNotFound if key was not an own
// property or if obj is not an object.
func (s *Store) Del(obj Value, key []byte) error {
	ob, err := s.obj(obj)
	if err != nil {
		return errors.Wrap(ErrNotFound, err.Error())
	}
	if !ob.trie.Delete(s.arena, s.strings, key) {
		return ErrNotFound
	}
	return nil
}

// PropCount reports obj's own property count, or 0 if obj is not an
// object.
func (s *Store) PropCount(obj Value) int {
	ob, err := s.obj(obj)
	if err != nil {
		return 0
	}
	return ob.trie.Count
}

// Iter is an iteration cursor for Next. The zero Iter is the "start"
// state, matching the external next(obj, &iter) protocol's init =
// UNDEFINED convention.
type Iter struct {
	started bool
	done    bool
	h       arena.Handle
}

// Next advances it and returns the next own property's key, in the
// trie's in-order sequence. ok is false once every property has been
// visited, or immediately if obj is not an object.
func (s *Store) Next(obj Value, it *Iter) (key Value, ok bool) {
	if it.done {
		return tagvalue.Undefined, false
	}
	ob, err := s.obj(obj)
	if err != nil {
		it.done = true
		return tagvalue.Undefined, false
	}

	var h arena.Handle
	if !it.started {
		h, ok = ob.trie.Start(s.arena)
	} else {
		h, ok = ob.trie.Next(s.arena, it.h)
	}
	it.started = true
	if !ok {
		it.done = true
		return tagvalue.Undefined, false
	}
	it.h = h
	return tagvalue.Value(s.arena.Get(h).Name), true
}

// All returns an iter.Seq2 over obj's own properties in the trie's
// in-order sequence, yielding (key, value) pairs. This sits alongside
// the classic Next cursor protocol as an idiomatic range-over-func
// addition; it does not replace it.
func (s *Store) All(obj Value) iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		ob, err := s.obj(obj)
		if err != nil {
			return
		}
		h, ok := ob.trie.Start(s.arena)
		for ok {
			leaf := s.arena.Get(h)
			if !yield(tagvalue.Value(leaf.Name), tagvalue.Value(leaf.Value)) {
				return
			}
			h, ok = ob.trie.Next(s.arena, h)
		}
	}
}

// ToString converts v to its canonical string form: numbers render with
// the shortest round-tripping decimal, booleans as "true"/"false", null
// as "null", undefined as "undefined", and strings return their raw
// bytes. Objects, arrays, foreign values and functions have no string
// conversion and return ErrCoercion.
func (s *Store) ToString(v Value) ([]byte, error) {
	switch {
	case v.IsString():
		return s.strings.Get(v), nil
	case v.IsNumber():
		return []byte(strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)), nil
	case v.IsBoolean():
		if v.AsBoolean() {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case v.IsNull():
		return []byte("null"), nil
	case v.IsUndefined():
		return []byte("undefined"), nil
	default:
		return nil, errors.Wrap(ErrCoercion, "value has no string conversion")
	}
}
