// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mjs

import "github.com/skorobogatov/mjs/internal/tagvalue"

// Value is the tagged 64-bit word every operation in this package reads
// and returns. It is only meaningful relative to the Store that produced
// it: object, array, foreign and heap-string payloads are handles into
// tables a Store owns, not portable identifiers.
type Value = tagvalue.Value

// Null, Undefined, True and False are the singleton, Store-independent
// values: they carry no handle into any table.
var (
	Null      = tagvalue.Null
	Undefined = tagvalue.Undefined
	True      = tagvalue.True
	False     = tagvalue.False
)

// MkNumber encodes a float64 as a Value. All NaN inputs normalize to a
// single canonical NaN.
func MkNumber(x float64) Value { return tagvalue.MkNumber(x) }

// MkBoolean encodes a boolean as a Value.
func MkBoolean(b bool) Value { return tagvalue.MkBoolean(b) }
