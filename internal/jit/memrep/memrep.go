// Package memrep defines Memory, the in-register view of the EVM linear
// memory that generated code keeps inside the Runtime record.
package memrep

import (
	"fmt"

	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/evmtypes"
	"evmjit/internal/jit/provider"
)

// Name is the name tag of the Memory record.
const Name = "Memory"

const key = "memrep"

// Field indices of Memory.
const (
	DataIndex = iota
	SizeIndex
	CapacityIndex
)

// Schema describes Memory{data i8*, size i64, capacity i64}.
var Schema = &abi.Schema{
	Name: Name,
	Fields: []abi.FieldSpec{
		{Name: "data", Match: abi.PointerTo(abi.Int(evmtypes.ByteBits))},
		{Name: "size", Match: abi.Int(evmtypes.SizeBits)},
		{Name: "capacity", Match: abi.Int(evmtypes.SizeBits)},
	},
}

// Memory holds the Memory record of one session.
type Memory struct {
	st  *ir.StructType
	ptr *ir.PointerType
}

// Get returns the session's Memory record.
func Get(r *provider.Registry) (*Memory, error) {
	return provider.Lookup(r, key, build)
}

func build(r *provider.Registry) (*Memory, error) {
	ts, err := evmtypes.Get(r)
	if err != nil {
		return nil, err
	}
	st := r.Context().OpaqueStruct(Name)
	if err := st.SetBody([]ir.Type{ts.BytePtr, ts.Size, ts.Size}, false); err != nil {
		return nil, fmt.Errorf("build %s: %w", Name, err)
	}
	return &Memory{st: st, ptr: st.PtrTo()}, nil
}

// StructType returns the record type.
func (m *Memory) StructType() *ir.StructType { return m.st }

// PtrType returns the pointer-to-record type.
func (m *Memory) PtrType() *ir.PointerType { return m.ptr }

// IsMemRepresentationType reports whether candidate has the Memory shape.
func IsMemRepresentationType(candidate *ir.StructType) bool { return Schema.Matches(candidate) }
