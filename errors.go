// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mjs

import "github.com/pkg/errors"

// Sentinel errors for the operation failure taxonomy. Test with
// errors.Is, not direct comparison, since Set and Del wrap these with
// additional context via errors.Wrap.
var (
	// ErrType is returned when an operation's receiver is not an object.
	ErrType = errors.New("mjs: value is not an object")

	// ErrReference is returned for a dereference of an absent binding.
	// StructToObject and the trie never return it directly; it exists for
	// callers layering named-variable semantics on top of this store.
	ErrReference = errors.New("mjs: reference error")

	// ErrCoercion is returned when a key value has no string conversion.
	ErrCoercion = errors.New("mjs: key coercion failed")

	// ErrNotFound is returned by Del when the key is not an own property.
	// It does not propagate past Del: it is a local, non-propagating
	// outcome per the error taxonomy, not a structural failure.
	ErrNotFound = errors.New("mjs: property not found")

	// ErrOutOfMemory is returned by Set when the arena refuses to hand
	// out another node. The trie is left exactly as it was before the
	// call.
	ErrOutOfMemory = errors.New("mjs: node allocation failed")
)
