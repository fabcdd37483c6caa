package abi

import (
	"evmjit/internal/ir"
)

// RecordAccessor is the one place where generated code computes field
// addresses, loads through record pointers and extracts fields from record
// values. Every operation validates its operands and the expected result
// type against the record before emitting anything, so a failed call leaves
// the insertion block untouched.
type RecordAccessor struct {
	b      *ir.Builder
	record *ir.StructType
	schema *Schema
}

// NewRecordAccessor binds an accessor to a record type. schema supplies field
// names for diagnostics and may be nil.
func NewRecordAccessor(b *ir.Builder, record *ir.StructType, schema *Schema) *RecordAccessor {
	return &RecordAccessor{b: b, record: record, schema: schema}
}

// Record returns the record type the accessor operates on.
func (a *RecordAccessor) Record() *ir.StructType { return a.record }

// FieldAddr computes the address of field idx of the record ptr points to.
// want, when non-nil, is the expected type of the field.
func (a *RecordAccessor) FieldAddr(ptr ir.Value, idx int, want ir.Type, name string) (ir.Value, error) {
	field, err := a.checkField(idx, want)
	if err != nil {
		return nil, err
	}
	if err := a.checkPointer(ptr); err != nil {
		return nil, err
	}
	addr, err := a.b.BuildStructGEP(ptr, idx, name)
	if err != nil {
		return nil, a.mismatch(MismatchRecordType, idx, nil, nil, err)
	}
	if pt, ok := ir.AsPointer(addr.Type()); !ok || pt.Elem() != field {
		return nil, a.mismatch(MismatchFieldType, idx, field, addr.Type(), nil)
	}
	return addr, nil
}

// LoadField loads field idx through a record pointer.
func (a *RecordAccessor) LoadField(ptr ir.Value, idx int, want ir.Type, name string) (ir.Value, error) {
	if _, err := a.checkField(idx, want); err != nil {
		return nil, err
	}
	if err := a.checkPointer(ptr); err != nil {
		return nil, err
	}
	addr, err := a.FieldAddr(ptr, idx, want, "")
	if err != nil {
		return nil, err
	}
	v, err := a.b.BuildLoad(addr, name)
	if err != nil {
		return nil, a.mismatch(MismatchFieldType, idx, want, nil, err)
	}
	return v, nil
}

// Load materialises the whole record value ptr points to.
func (a *RecordAccessor) Load(ptr ir.Value, name string) (ir.Value, error) {
	if err := a.checkPointer(ptr); err != nil {
		return nil, err
	}
	v, err := a.b.BuildLoad(ptr, name)
	if err != nil {
		return nil, a.mismatch(MismatchRecordType, -1, a.record, ptr.Type(), err)
	}
	return v, nil
}

// Extract reads field idx out of a record value.
func (a *RecordAccessor) Extract(agg ir.Value, idx int, want ir.Type, name string) (ir.Value, error) {
	if _, err := a.checkField(idx, want); err != nil {
		return nil, err
	}
	if agg == nil || agg.Type() != ir.Type(a.record) {
		return nil, a.mismatch(MismatchRecordType, idx, a.record, valueType(agg), nil)
	}
	v, err := a.b.BuildExtractValue(agg, idx, name)
	if err != nil {
		return nil, a.mismatch(MismatchFieldType, idx, want, nil, err)
	}
	return v, nil
}

func (a *RecordAccessor) checkField(idx int, want ir.Type) (ir.Type, error) {
	field, ok := a.record.Field(idx)
	if !ok {
		return nil, a.mismatch(MismatchFieldIndex, idx, nil, nil, nil)
	}
	if want != nil && field != want {
		return nil, a.mismatch(MismatchFieldType, idx, want, field, nil)
	}
	return field, nil
}

func (a *RecordAccessor) checkPointer(ptr ir.Value) error {
	want := a.record.PtrTo()
	if ptr == nil || ptr.Type() != ir.Type(want) {
		return a.mismatch(MismatchRecordType, -1, want, valueType(ptr), nil)
	}
	return nil
}

func (a *RecordAccessor) mismatch(kind MismatchKind, idx int, want, got ir.Type, err error) *MismatchError {
	me := &MismatchError{Kind: kind, Index: idx, Want: want, Got: got, Err: err}
	if fn := a.b.Function(); fn != nil {
		me.Func = fn.Name()
	}
	if a.schema != nil && idx >= 0 && idx < len(a.schema.Fields) {
		me.Field = a.schema.Fields[idx].Name
	}
	return me
}

func valueType(v ir.Value) ir.Type {
	if v == nil {
		return nil
	}
	return v.Type()
}
