// Package rtdata defines RuntimeData, the record through which the host
// passes per-call inputs (gas, call data, addresses) to generated code.
package rtdata

import (
	"fmt"

	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/evmtypes"
	"evmjit/internal/jit/provider"
)

// Name is the name tag of the RuntimeData record.
const Name = "RuntimeData"

const key = "rtdata"

// Field identifies one field of RuntimeData. The numeric value is the field
// index; the order is part of the host ABI.
type Field uint8

const (
	Gas Field = iota
	GasPrice
	CallData
	CallDataSize
	Value
	Code
	CodeSize
	Address
	Caller
	Depth

	NumFields = int(Depth) + 1
)

type kind uint8

const (
	kindGas kind = iota
	kindSize
	kindWord
	kindBytePtr
)

type fieldDef struct {
	name string
	kind kind
}

// fields drives both construction and validation of the record.
var fields = [NumFields]fieldDef{
	Gas:          {"gas", kindGas},
	GasPrice:     {"gasPrice", kindGas},
	CallData:     {"callData", kindBytePtr},
	CallDataSize: {"callDataSize", kindSize},
	Value:        {"value", kindWord},
	Code:         {"code", kindBytePtr},
	CodeSize:     {"codeSize", kindSize},
	Address:      {"address", kindWord},
	Caller:       {"caller", kindWord},
	Depth:        {"depth", kindSize},
}

// Index returns the position of f in the record.
func (f Field) Index() int { return int(f) }

// Name returns the field name, also used as the SSA name of extracted values.
func (f Field) Name() string {
	if int(f) < NumFields {
		return fields[f].name
	}
	return fmt.Sprintf("field%d", int(f))
}

func (f Field) String() string { return f.Name() }

// Fields returns every field in record order.
func Fields() []Field {
	out := make([]Field, NumFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// FieldByName looks a field up by name.
func FieldByName(name string) (Field, bool) {
	for i, def := range fields {
		if def.name == name {
			return Field(i), true
		}
	}
	return 0, false
}

func (k kind) irType(ts *evmtypes.Types) ir.Type {
	switch k {
	case kindGas:
		return ts.Gas
	case kindSize:
		return ts.Size
	case kindWord:
		return ts.Word
	default:
		return ts.BytePtr
	}
}

func (k kind) predicate() abi.FieldPredicate {
	switch k {
	case kindGas:
		return abi.Int(evmtypes.GasBits)
	case kindSize:
		return abi.Int(evmtypes.SizeBits)
	case kindWord:
		return abi.Int(evmtypes.WordBits)
	default:
		return abi.PointerTo(abi.Int(evmtypes.ByteBits))
	}
}

// Schema describes the expected shape of RuntimeData.
var Schema = func() *abi.Schema {
	s := &abi.Schema{Name: Name, Fields: make([]abi.FieldSpec, NumFields)}
	for i, def := range fields {
		s.Fields[i] = abi.FieldSpec{Name: def.name, Match: def.kind.predicate()}
	}
	return s
}()

// Data holds the RuntimeData record of one session.
type Data struct {
	st  *ir.StructType
	ptr *ir.PointerType
}

// Get returns the session's RuntimeData record.
func Get(r *provider.Registry) (*Data, error) {
	return provider.Lookup(r, key, build)
}

func build(r *provider.Registry) (*Data, error) {
	ts, err := evmtypes.Get(r)
	if err != nil {
		return nil, err
	}
	c := r.Context()
	body := make([]ir.Type, NumFields)
	for i, def := range fields {
		body[i] = def.kind.irType(ts)
	}
	st := c.OpaqueStruct(Name)
	if err := st.SetBody(body, false); err != nil {
		return nil, fmt.Errorf("build %s: %w", Name, err)
	}
	return &Data{st: st, ptr: st.PtrTo()}, nil
}

// StructType returns the record type.
func (d *Data) StructType() *ir.StructType { return d.st }

// PtrType returns the pointer-to-record type.
func (d *Data) PtrType() *ir.PointerType { return d.ptr }

// FieldType returns the type of f.
func (d *Data) FieldType(f Field) (ir.Type, bool) { return d.st.Field(f.Index()) }

// IsRuntimeDataType reports whether candidate has the RuntimeData shape.
func IsRuntimeDataType(candidate *ir.StructType) bool { return Schema.Matches(candidate) }
