// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package mjs implements the object property store of an embedded,
// JavaScript-like interpreter: a NaN-boxed tagged value representation, a
// string store with short-string inlining, an arena of fixed-size trie
// nodes, and a crit-bit trie used as each object's property index.
//
// A Store owns every table a Value can point into (the node arena, the
// string pool, the object and foreign-value tables); Values themselves
// are plain uint64s and are only meaningful relative to the Store that
// minted them, the same way an mjs_val_t is only meaningful relative to
// the struct mjs instance that created it.
package mjs
