package ir

import (
	"errors"
	"testing"
)

func TestContextUniquesTypes(t *testing.T) {
	c := NewContext()
	if c.IntType(64) != c.IntType(64) {
		t.Fatalf("integer types should be uniqued")
	}
	if c.PointerTo(c.IntType(8)) != c.PointerTo(c.IntType(8)) {
		t.Fatalf("pointer types should be uniqued")
	}
	fields := []Type{c.IntType(64), c.PointerTo(c.IntType(8))}
	if c.StructOf(fields, false) != c.StructOf(fields, false) {
		t.Fatalf("literal structs should be uniqued")
	}
	if c.StructOf(fields, false) == c.StructOf(fields, true) {
		t.Fatalf("packed and unpacked literal structs must differ")
	}
	ft := c.FuncOf(c.VoidType(), fields, false)
	if ft != c.FuncOf(c.VoidType(), fields, false) {
		t.Fatalf("function types should be uniqued")
	}
}

func TestTypesFromDifferentContextsDiffer(t *testing.T) {
	a, b := NewContext(), NewContext()
	if Type(a.IntType(256)) == Type(b.IntType(256)) {
		t.Fatalf("types of different contexts must not be identical")
	}
	st := a.OpaqueStruct("Runtime")
	err := st.SetBody([]Type{b.IntType(64)}, false)
	if err == nil {
		t.Fatalf("expected error for foreign field type")
	}
}

func TestOpaqueStructNamesAreUnique(t *testing.T) {
	c := NewContext()
	first := c.OpaqueStruct("Runtime")
	second := c.OpaqueStruct("Runtime")
	if first == second {
		t.Fatalf("expected distinct structs")
	}
	if first.Name() != "Runtime" || second.Name() != "Runtime.1" {
		t.Fatalf("unexpected names %q, %q", first.Name(), second.Name())
	}
	got, ok := c.NamedStruct("Runtime")
	if !ok || got != first {
		t.Fatalf("lookup by name should return the first struct")
	}
}

func TestOpaqueStructNameIsNFC(t *testing.T) {
	c := NewContext()
	decomposed := c.OpaqueStruct("Cafe\u0301")
	if decomposed.Name() != "Caf\u00e9" {
		t.Fatalf("expected NFC name, got %q", decomposed.Name())
	}
}

func TestStructSetBody(t *testing.T) {
	c := NewContext()
	st := c.OpaqueStruct("Memory")
	if !st.IsOpaque() || st.IsSized() {
		t.Fatalf("fresh named struct should be opaque and unsized")
	}
	if err := st.SetBody([]Type{c.PointerTo(c.IntType(8)), c.IntType(64)}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if st.IsOpaque() || !st.IsSized() || st.NumFields() != 2 {
		t.Fatalf("unexpected struct state: %s", st.BodyString())
	}
	err := st.SetBody(nil, false)
	if !errors.Is(err, ErrBodyAlreadySet) {
		t.Fatalf("expected ErrBodyAlreadySet, got %v", err)
	}
}

func TestStructWithOpaqueFieldIsUnsized(t *testing.T) {
	c := NewContext()
	inner := c.OpaqueStruct("Env")
	outer := c.OpaqueStruct("Outer")
	if err := outer.SetBody([]Type{inner}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if outer.IsSized() {
		t.Fatalf("struct holding an opaque struct by value must be unsized")
	}
	ptrHolder := c.StructOf([]Type{inner.PtrTo()}, false)
	if !ptrHolder.IsSized() {
		t.Fatalf("pointer to opaque struct is sized")
	}
}

func TestTypeStrings(t *testing.T) {
	c := NewContext()
	st := c.OpaqueStruct("RuntimeData")
	cases := map[string]Type{
		"i256":               c.IntType(256),
		"i8*":                c.PointerTo(c.IntType(8)),
		"%RuntimeData*":      st.PtrTo(),
		"[4 x i64]":          c.ArrayOf(c.IntType(64), 4),
		"<{ i8, i64 }>":      c.StructOf([]Type{c.IntType(8), c.IntType(64)}, true),
		"void (i8*, ...)":    c.FuncOf(c.VoidType(), []Type{c.PointerTo(c.IntType(8))}, true),
		"i64 addrspace(1)*":  c.PointerInSpace(c.IntType(64), 1),
		"{}":                 c.StructOf(nil, false),
		"i1 (%RuntimeData*)": c.FuncOf(c.IntType(1), []Type{st.PtrTo()}, false),
	}
	for want, typ := range cases {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestNewHandle(t *testing.T) {
	h, err := NewHandle(" evm ")
	if err != nil {
		t.Fatalf("new handle: %v", err)
	}
	if h.Module.Name() != "evm" || h.Module.Context() != h.Ctx {
		t.Fatalf("unexpected module %q", h.Module.Name())
	}
	if _, err := NewHandle("   "); err == nil {
		t.Fatalf("blank module name must fail")
	}
}
