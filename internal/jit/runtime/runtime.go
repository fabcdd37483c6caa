// Package runtime defines the Runtime record, the single argument of every
// generated contract function, and the extractor that unpacks it at the top
// of a function body.
package runtime

import (
	"fmt"

	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/env"
	"evmjit/internal/jit/memrep"
	"evmjit/internal/jit/provider"
	"evmjit/internal/jit/rtdata"
)

// Name is the name tag of the Runtime record.
const Name = "Runtime"

const key = "runtime"

// Field indices of Runtime.
const (
	DataPtrIndex = iota // RuntimeData*
	EnvPtrIndex         // Env*
	MemIndex            // Memory, held inline
)

// Schema describes Runtime{RuntimeData*, Env*, Memory}.
var Schema = &abi.Schema{
	Name: Name,
	Fields: []abi.FieldSpec{
		{Name: "data", Match: abi.PointerToRecord(rtdata.IsRuntimeDataType)},
		{Name: "env", Match: abi.PointerToRecord(env.IsEnvDataType)},
		{Name: "mem", Match: abi.Record(memrep.IsMemRepresentationType)},
	},
}

// Type holds the Runtime record of one session together with the records
// it is built from.
type Type struct {
	st   *ir.StructType
	ptr  *ir.PointerType
	data *rtdata.Data
	env  *env.Env
	mem  *memrep.Memory
}

// Get returns the session's Runtime record.
func Get(r *provider.Registry) (*Type, error) {
	return provider.Lookup(r, key, build)
}

func build(r *provider.Registry) (*Type, error) {
	data, err := rtdata.Get(r)
	if err != nil {
		return nil, err
	}
	e, err := env.Get(r)
	if err != nil {
		return nil, err
	}
	mem, err := memrep.Get(r)
	if err != nil {
		return nil, err
	}
	st := r.Context().OpaqueStruct(Name)
	if err := st.SetBody([]ir.Type{data.PtrType(), e.PtrType(), mem.StructType()}, false); err != nil {
		return nil, fmt.Errorf("build %s: %w", Name, err)
	}
	if !IsRuntimeType(st) {
		return nil, fmt.Errorf("build %s: record %s does not satisfy its schema", Name, st.BodyString())
	}
	return &Type{st: st, ptr: st.PtrTo(), data: data, env: e, mem: mem}, nil
}

// StructType returns the Runtime record.
func (t *Type) StructType() *ir.StructType { return t.st }

// PtrType returns Runtime*, the parameter type of contract functions.
func (t *Type) PtrType() *ir.PointerType { return t.ptr }

// Data returns the RuntimeData record Runtime points to.
func (t *Type) Data() *rtdata.Data { return t.data }

// Env returns the Env record Runtime points to.
func (t *Type) Env() *env.Env { return t.env }

// Memory returns the Memory record held inside Runtime.
func (t *Type) Memory() *memrep.Memory { return t.mem }

// IsRuntimeType reports whether candidate is a Runtime record: a sized,
// unpacked, non-opaque struct named Runtime with exactly three fields, a
// pointer to RuntimeData, a pointer to Env and an inline Memory record.
func IsRuntimeType(candidate ir.Type) bool {
	st, ok := ir.AsStruct(candidate)
	return ok && Schema.Matches(st)
}
