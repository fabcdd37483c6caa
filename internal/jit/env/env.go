// Package env defines Env, the host-owned environment record. Generated
// code never looks inside it; it only forwards Env* to host callbacks.
package env

import (
	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/provider"
)

// Name is the name tag of the Env record.
const Name = "Env"

const key = "env"

// Schema describes Env: a named record with no body.
var Schema = &abi.Schema{Name: Name, Opaque: true}

// Env holds the Env record of one session.
type Env struct {
	st  *ir.StructType
	ptr *ir.PointerType
}

// Get returns the session's Env record.
func Get(r *provider.Registry) (*Env, error) {
	return provider.Lookup(r, key, func(r *provider.Registry) (*Env, error) {
		st := r.Context().OpaqueStruct(Name)
		return &Env{st: st, ptr: st.PtrTo()}, nil
	})
}

// StructType returns the record type.
func (e *Env) StructType() *ir.StructType { return e.st }

// PtrType returns the pointer-to-record type.
func (e *Env) PtrType() *ir.PointerType { return e.ptr }

// IsEnvDataType reports whether candidate is an Env record.
func IsEnvDataType(candidate *ir.StructType) bool { return Schema.Matches(candidate) }
