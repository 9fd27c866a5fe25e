// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mjs

import "github.com/skorobogatov/mjs/internal/tagvalue"

// FieldKind selects which of FieldDef's accessor functions StructToObject
// consults to produce a field's value.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldBool
	FieldDouble
	FieldFloat
	FieldString
	FieldForeign
	FieldStruct
	FieldStructPtr
	FieldCustom
)

// FieldDef describes one field of a flat, ordered field list that
// StructToObject turns into an object, the way mjs_struct_to_obj turns a
// struct mjs_c_struct_member array into one. Exactly one accessor field
// is consulted, selected by Kind; a caller builds a FieldDef by closing
// over the Go struct field it describes, since Go has no portable
// base-pointer-plus-offset field access the way the C original does.
type FieldDef struct {
	Name string
	Kind FieldKind

	Int     func() int
	Bool    func() bool
	Double  func() float64
	Float   func() float32
	String  func() string
	Foreign func() any

	// Nested holds the sub-fields for FieldStruct and FieldStructPtr.
	Nested []FieldDef
	// Present is consulted only for FieldStructPtr: returning false means
	// the underlying pointer was nil and the field becomes Null instead of
	// a nested object. A nil Present is treated as a non-nil pointer.
	Present func() bool

	// Custom runs for FieldCustom; its return value is used as-is. This
	// mirrors the original's CUSTOM arm, whose switch case has no
	// trailing break and falls into an empty default: the converter
	// result is exactly the field's value with no further case logic.
	Custom func(s *Store) Value
}

// StructToObject builds an object from defs, one property per field,
// mirroring mjs_struct_to_obj. Fields are inserted in reverse-declaration
// order, per the original's comment that new properties are inserted at
// the head of the property list so that walking defs backward leaves the
// properties in declaration order; this rendering's crit-bit trie does
// not order properties by insertion at all (iteration order depends on
// key bits, not insertion sequence), but the reverse-walk is kept to
// match the reference construction sequence exactly. defs == nil (or a
// nil base, which Go's closures make moot) returns Undefined.
func (s *Store) StructToObject(defs []FieldDef) Value {
	if defs == nil {
		return tagvalue.Undefined
	}

	obj := s.MkObject()
	s.Own(&obj)
	defer s.Disown(&obj)

	for i := len(defs) - 1; i >= 0; i-- {
		def := defs[i]
		v := s.fieldValue(def)
		// A field conversion failure has no counterpart in the
		// original (mjs_set on a plain object with a short or
		// already-interned key cannot fail); ignoring the error here
		// matches that it is not part of this surface's contract.
		_ = s.Set(obj, []byte(def.Name), v)
	}
	return obj
}

func (s *Store) fieldValue(def FieldDef) Value {
	switch def.Kind {
	case FieldStruct:
		return s.StructToObject(def.Nested)
	case FieldStructPtr:
		if def.Present != nil && !def.Present() {
			return tagvalue.Null
		}
		return s.StructToObject(def.Nested)
	case FieldInt:
		return tagvalue.MkNumber(float64(def.Int()))
	case FieldBool:
		return tagvalue.MkBoolean(def.Bool())
	case FieldDouble:
		return tagvalue.MkNumber(def.Double())
	case FieldFloat:
		return tagvalue.MkNumber(float64(def.Float()))
	case FieldString:
		return s.MkString([]byte(def.String()), true)
	case FieldForeign:
		return s.MkForeign(def.Foreign())
	case FieldCustom:
		return def.Custom(s)
	default:
		return tagvalue.Undefined
	}
}
