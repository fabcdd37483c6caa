package abi

import (
	"testing"

	"evmjit/internal/ir"
)

func pairSchema() *Schema {
	return &Schema{
		Name: "Pair",
		Fields: []FieldSpec{
			{Name: "n", Match: Int(64)},
			{Name: "p", Match: PointerTo(Int(8))},
		},
	}
}

func TestSchemaMatches(t *testing.T) {
	c := ir.NewContext()
	good := c.OpaqueStruct("Pair")
	if err := good.SetBody([]ir.Type{c.IntType(64), c.PointerTo(c.IntType(8))}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	s := pairSchema()
	if !s.Matches(good) {
		t.Fatalf("expected schema to match %s", good.BodyString())
	}

	// Same shape built in another context still matches: the check is structural.
	other := ir.NewContext()
	twin := other.OpaqueStruct("Pair")
	if err := twin.SetBody([]ir.Type{other.IntType(64), other.PointerTo(other.IntType(8))}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if !s.Matches(twin) {
		t.Fatalf("schema match must not depend on the context")
	}
}

func TestSchemaRejects(t *testing.T) {
	s := pairSchema()
	// Each candidate lives in its own context so that named records keep
	// their requested name.
	build := func(name string, packed bool, fields func(c *ir.Context) []ir.Type) *ir.StructType {
		c := ir.NewContext()
		st := c.OpaqueStruct(name)
		if fields == nil {
			return st
		}
		if err := st.SetBody(fields(c), packed); err != nil {
			t.Fatalf("set body: %v", err)
		}
		return st
	}
	pair := func(c *ir.Context) []ir.Type { return []ir.Type{c.IntType(64), c.PointerTo(c.IntType(8))} }
	cases := map[string]*ir.StructType{
		"opaque": build("Pair", false, nil),
		"packed": build("Pair", true, pair),
		"short":  build("Pair", false, func(c *ir.Context) []ir.Type { return []ir.Type{c.IntType(64)} }),
		"long": build("Pair", false, func(c *ir.Context) []ir.Type {
			return append(pair(c), c.IntType(64))
		}),
		"wrong name": build("Other", false, pair),
		"wrong field": build("Pair", false, func(c *ir.Context) []ir.Type {
			return []ir.Type{c.IntType(64), c.IntType(64)}
		}),
		"addrspace": build("Pair", false, func(c *ir.Context) []ir.Type {
			return []ir.Type{c.IntType(64), c.PointerInSpace(c.IntType(8), 1)}
		}),
	}
	lit := ir.NewContext()
	cases["literal"] = lit.StructOf(pair(lit), false)
	for name, st := range cases {
		if s.Matches(st) {
			t.Errorf("%s: schema should not match %s", name, st.BodyString())
		}
	}
	if s.Matches(nil) {
		t.Errorf("nil candidate must not match")
	}
}

func TestOpaqueSchema(t *testing.T) {
	c := ir.NewContext()
	s := &Schema{Name: "Env", Opaque: true}
	env := c.OpaqueStruct("Env")
	if !s.Matches(env) {
		t.Fatalf("opaque record should match opaque schema")
	}
	if err := env.SetBody([]ir.Type{c.IntType(8)}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	if s.Matches(env) {
		t.Fatalf("record with a body must not match an opaque schema")
	}
}

func TestSchemaFieldIndex(t *testing.T) {
	s := pairSchema()
	if i, ok := s.FieldIndex("p"); !ok || i != 1 {
		t.Fatalf("FieldIndex(p) = %d, %t", i, ok)
	}
	if _, ok := s.FieldIndex("missing"); ok {
		t.Fatalf("unexpected field")
	}
	if got := s.FieldNames(); len(got) != 2 || got[0] != "n" {
		t.Fatalf("FieldNames = %v", got)
	}
}
