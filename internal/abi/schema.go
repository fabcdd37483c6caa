package abi

import "evmjit/internal/ir"

// FieldPredicate reports whether a field type has the expected shape.
type FieldPredicate func(ir.Type) bool

// FieldSpec names one field of a record schema.
type FieldSpec struct {
	Name  string
	Match FieldPredicate
}

// Schema is a declarative description of a named record. Matches is pure
// and never fails; it only inspects structure, so a schema can be checked
// against records of any context.
type Schema struct {
	Name   string
	Opaque bool // the record is host-owned and must have no body
	Packed bool
	Fields []FieldSpec
}

// Matches reports whether candidate satisfies the schema: the name tag is
// equal; for opaque schemas the candidate is opaque; otherwise the candidate
// is sized, not opaque, has the expected packing, exactly len(Fields) fields,
// and every field predicate holds in order.
func (s *Schema) Matches(candidate *ir.StructType) bool {
	if s == nil || candidate == nil {
		return false
	}
	if candidate.Name() != s.Name {
		return false
	}
	if s.Opaque {
		return candidate.IsOpaque()
	}
	if !candidate.IsSized() || candidate.IsOpaque() {
		return false
	}
	if candidate.IsPacked() != s.Packed {
		return false
	}
	if candidate.NumFields() != len(s.Fields) {
		return false
	}
	for i, spec := range s.Fields {
		ft, _ := candidate.Field(i)
		if spec.Match == nil || !spec.Match(ft) {
			return false
		}
	}
	return true
}

// FieldIndex returns the position of the named field.
func (s *Schema) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FieldNames returns the field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Int matches an integer of exactly bits width.
func Int(bits uint32) FieldPredicate {
	return func(t ir.Type) bool {
		it, ok := ir.AsInt(t)
		return ok && it.Bits() == bits
	}
}

// PointerTo matches a generic-address-space pointer whose pointee matches elem.
func PointerTo(elem FieldPredicate) FieldPredicate {
	return func(t ir.Type) bool {
		pt, ok := ir.AsPointer(t)
		return ok && pt.AddrSpace() == 0 && elem(pt.Elem())
	}
}

// Record matches a struct accepted by valid.
func Record(valid func(*ir.StructType) bool) FieldPredicate {
	return func(t ir.Type) bool {
		st, ok := ir.AsStruct(t)
		return ok && valid(st)
	}
}

// PointerToRecord matches a pointer to a struct accepted by valid.
func PointerToRecord(valid func(*ir.StructType) bool) FieldPredicate {
	return PointerTo(Record(valid))
}
