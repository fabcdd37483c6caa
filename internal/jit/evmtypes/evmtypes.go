// Package evmtypes provides the scalar machine types shared by generated
// code and the runtime.
package evmtypes

import (
	"evmjit/internal/ir"
	"evmjit/internal/jit/provider"
)

const key = "evmtypes"

// Bit widths of the EVM scalars.
const (
	WordBits       = 256
	SizeBits       = 64
	GasBits        = 64
	ByteBits       = 8
	MainReturnBits = 32
)

// Types holds the scalar types of one session.
type Types struct {
	Word       *ir.IntType // 256-bit stack word
	WordPtr    *ir.PointerType
	Size       *ir.IntType // lengths and offsets
	SizePtr    *ir.PointerType
	Gas        *ir.IntType // signed gas counter
	GasPtr     *ir.PointerType
	Byte       *ir.IntType
	BytePtr    *ir.PointerType
	Bool       *ir.IntType
	Void       *ir.VoidType
	MainReturn *ir.IntType // contract function result code
}

// Get returns the session's scalar types.
func Get(r *provider.Registry) (*Types, error) {
	return provider.Lookup(r, key, build)
}

func build(r *provider.Registry) (*Types, error) {
	c := r.Context()
	t := &Types{
		Word:       c.IntType(WordBits),
		Size:       c.IntType(SizeBits),
		Gas:        c.IntType(GasBits),
		Byte:       c.IntType(ByteBits),
		Bool:       c.IntType(1),
		Void:       c.VoidType(),
		MainReturn: c.IntType(MainReturnBits),
	}
	t.WordPtr = c.PointerTo(t.Word)
	t.SizePtr = c.PointerTo(t.Size)
	t.GasPtr = c.PointerTo(t.Gas)
	t.BytePtr = c.PointerTo(t.Byte)
	return t, nil
}
