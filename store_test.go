// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mjs

import (
	"errors"
	"math/rand/v2"
	"testing"

	gofuzz "github.com/google/gofuzz"
)

// S1 Empty.
func TestScenarioEmpty(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()

	if got := s.Get(o, []byte("x")); !got.IsUndefined() {
		t.Fatalf("Get on empty object = %v, want Undefined", got)
	}
	if err := s.Del(o, []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Del on empty object = %v, want ErrNotFound", err)
	}
	var it Iter
	if _, ok := s.Next(o, &it); ok {
		t.Fatal("Next on empty object should report done immediately")
	}
}

// S2 Single.
func TestScenarioSingle(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()

	if err := s.Set(o, []byte("a"), MkNumber(1)); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(o, []byte("a")); got.AsNumber() != 1 {
		t.Fatalf("Get(a) = %v, want 1", got.AsNumber())
	}
	if got := s.PropCount(o); got != 1 {
		t.Fatalf("PropCount = %d, want 1", got)
	}

	var it Iter
	key, ok := s.Next(o, &it)
	if !ok {
		t.Fatal("Next should yield the sole key")
	}
	got, err := s.ToString(key)
	if err != nil || string(got) != "a" {
		t.Fatalf("Next key = %q, err=%v, want \"a\"", got, err)
	}
	if _, ok := s.Next(o, &it); ok {
		t.Fatal("Next after the sole key should report done")
	}
}

// S3 Crit-bit split: covered structurally in internal/critbit; here only
// the surface-level retrieval is re-checked.
func TestScenarioCritBitSplit(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	must(t, s.Set(o, []byte("ab"), MkNumber(1)))
	must(t, s.Set(o, []byte("ac"), MkNumber(2)))

	if got := s.Get(o, []byte("ab")); got.AsNumber() != 1 {
		t.Fatalf("ab = %v, want 1", got.AsNumber())
	}
	if got := s.Get(o, []byte("ac")); got.AsNumber() != 2 {
		t.Fatalf("ac = %v, want 2", got.AsNumber())
	}
}

// S4 Prefix.
func TestScenarioPrefix(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	must(t, s.Set(o, []byte("foo"), MkNumber(1)))
	must(t, s.Set(o, []byte("foobar"), MkNumber(2)))

	if got := s.Get(o, []byte("foo")); got.AsNumber() != 1 {
		t.Fatalf("foo = %v, want 1", got.AsNumber())
	}
	if got := s.Get(o, []byte("foobar")); got.AsNumber() != 2 {
		t.Fatalf("foobar = %v, want 2", got.AsNumber())
	}

	if err := s.Del(o, []byte("foo")); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(o, []byte("foobar")); got.AsNumber() != 2 {
		t.Fatalf("foobar after deleting foo = %v, want 2", got.AsNumber())
	}
}

// S5 Overwrite + delete.
func TestScenarioOverwriteDelete(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	must(t, s.Set(o, []byte("k"), MkNumber(1)))
	must(t, s.Set(o, []byte("k"), MkNumber(2)))
	if got := s.Get(o, []byte("k")); got.AsNumber() != 2 {
		t.Fatalf("k = %v, want 2", got.AsNumber())
	}
	if err := s.Del(o, []byte("k")); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(o, []byte("k")); !got.IsUndefined() {
		t.Fatalf("k after delete = %v, want Undefined", got)
	}
}

// S6 Prototype.
func TestScenarioPrototype(t *testing.T) {
	t.Parallel()
	s := NewStore()
	p := s.MkObject()
	must(t, s.Set(p, []byte("x"), MkNumber(7)))

	c := s.MkObject()
	must(t, s.Set(c, []byte("__p"), p))

	if got := s.Get(c, []byte("x")); !got.IsUndefined() {
		t.Fatalf("own Get(x) on c = %v, want Undefined", got)
	}
	if got := s.GetWithProto(c, []byte("x")); got.AsNumber() != 7 {
		t.Fatalf("GetWithProto(x) = %v, want 7", got.AsNumber())
	}

	must(t, s.Set(c, []byte("x"), MkNumber(9)))
	if got := s.GetWithProto(c, []byte("x")); got.AsNumber() != 9 {
		t.Fatalf("GetWithProto(x) after own set = %v, want 9 (own shadows ancestor)", got.AsNumber())
	}
}

// buildTwoHopChain wires child --"__p"--> parent --"__p"--> grandparent,
// with "x" set only on grandparent. child has no own properties besides
// "__p": reaching "x" requires the walk to follow both hops rather than
// relying on any padding.
func buildTwoHopChain(s *Store) (child Value) {
	grandparent := s.MkObject()
	mustAny(s.Set(grandparent, []byte("x"), MkNumber(99)))

	parent := s.MkObject()
	mustAny(s.Set(parent, []byte("__p"), grandparent))

	child = s.MkObject()
	mustAny(s.Set(child, []byte("__p"), parent))
	return child
}

func mustAny(err error) {
	if err != nil {
		panic(err)
	}
}

func TestWithMaxProtoDepthCapsChain(t *testing.T) {
	t.Parallel()

	uncapped := NewStore()
	if got := uncapped.GetWithProto(buildTwoHopChain(uncapped), []byte("x")); got.AsNumber() != 99 {
		t.Fatalf("uncapped GetWithProto two hops up = %v, want 99", got.AsNumber())
	}

	capped := NewStore(WithMaxProtoDepth(1))
	if got := capped.GetWithProto(buildTwoHopChain(capped), []byte("x")); !got.IsUndefined() {
		t.Fatalf("WithMaxProtoDepth(1) should block a two-hop lookup, got %v", got)
	}
}

func TestPrototypeCycleTerminates(t *testing.T) {
	t.Parallel()
	s := NewStore()
	a := s.MkObject()
	b := s.MkObject()
	must(t, s.Set(a, []byte("__p"), b))
	must(t, s.Set(b, []byte("__p"), a))

	if got := s.GetWithProto(a, []byte("nope")); !got.IsUndefined() {
		t.Fatalf("cyclic GetWithProto = %v, want Undefined", got)
	}
}

func TestSetOnNonObjectFails(t *testing.T) {
	t.Parallel()
	s := NewStore()
	if err := s.Set(MkNumber(1), []byte("x"), Null); !errors.Is(err, ErrType) {
		t.Fatalf("Set on a number = %v, want ErrType", err)
	}
	if got := s.Get(MkNumber(1), []byte("x")); !got.IsUndefined() {
		t.Fatalf("Get on a number = %v, want Undefined", got)
	}
}

func TestArenaExhaustionLeavesObjectUsable(t *testing.T) {
	t.Parallel()
	s := NewStore(WithArenaSlab(1))
	o := s.MkObject()
	must(t, s.Set(o, []byte("a"), MkNumber(1)))

	if err := s.Set(o, []byte("b"), MkNumber(2)); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Set past capacity = %v, want ErrOutOfMemory", err)
	}
	if got := s.Get(o, []byte("a")); got.AsNumber() != 1 {
		t.Fatalf("a after failed Set = %v, want 1 (unchanged)", got.AsNumber())
	}
}

func TestAllIteratesEveryProperty(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	want := map[string]float64{"a": 1, "bb": 2, "ccc": 3, "much longer key than five": 4}
	for k, v := range want {
		must(t, s.Set(o, []byte(k), MkNumber(v)))
	}

	got := map[string]float64{}
	for k, v := range s.All(o) {
		kb, err := s.ToString(k)
		if err != nil {
			t.Fatal(err)
		}
		got[string(kb)] = v.AsNumber()
	}
	if len(got) != len(want) {
		t.Fatalf("All() yielded %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("All()[%q] = %v, want %v", k, got[k], v)
		}
	}
}

func TestAllStopsOnFalse(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	must(t, s.Set(o, []byte("a"), MkNumber(1)))
	must(t, s.Set(o, []byte("b"), MkNumber(2)))

	n := 0
	for range s.All(o) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("All() ran %d iterations after an early break, want 1", n)
	}
}

func TestToStringConversions(t *testing.T) {
	t.Parallel()
	s := NewStore()
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"number", MkNumber(3.5), "3.5"},
		{"true", True, "true"},
		{"false", False, "false"},
		{"null", Null, "null"},
		{"undefined", Undefined, "undefined"},
		{"short string", s.MkString([]byte("hi"), true), "hi"},
		{"long string", s.MkString([]byte("a string well over five bytes long"), true), "a string well over five bytes long"},
	}
	for _, tt := range tests {
		got, err := s.ToString(tt.v)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("%s: ToString = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestToStringRejectsObject(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	if _, err := s.ToString(o); !errors.Is(err, ErrCoercion) {
		t.Fatalf("ToString(object) = %v, want ErrCoercion", err)
	}
}

func TestSetVCoercesKey(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	if err := s.SetV(o, MkNumber(42), MkBoolean(true)); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(o, []byte("42")); !got.AsBoolean() {
		t.Fatal("SetV(42, true) should be retrievable as Get(\"42\")")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestCountFidelityAndIndependence(t *testing.T) {
	t.Parallel()
	s := NewStore()
	o := s.MkObject()
	shadow := map[string]float64{}

	f := gofuzz.New().NilChance(0)
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 300; i++ {
		var raw string
		f.Fuzz(&raw)
		if len(raw) > 64 {
			raw = raw[:64]
		}

		if rng.IntN(4) == 0 {
			if err := s.Del(o, []byte(raw)); err == nil {
				delete(shadow, raw)
			}
			continue
		}
		v := rng.Float64()
		must(t, s.Set(o, []byte(raw), MkNumber(v)))
		shadow[raw] = v
	}

	if got := s.PropCount(o); got != len(shadow) {
		t.Fatalf("PropCount = %d, want %d", got, len(shadow))
	}
	for k, v := range shadow {
		if got := s.Get(o, []byte(k)); got.AsNumber() != v {
			t.Fatalf("Get(%q) = %v, want %v", k, got.AsNumber(), v)
		}
	}
}
