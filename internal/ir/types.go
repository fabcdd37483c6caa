package ir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the structural kinds of IR types.
type TypeKind uint8

const (
	KindInvalid TypeKind = iota
	KindVoid
	KindInt
	KindPointer
	KindArray
	KindStruct
	KindFunc
)

func (k TypeKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindFunc:
		return "func"
	default:
		return fmt.Sprintf("TypeKind(%d)", k)
	}
}

// Type is implemented by every IR type. Types are uniqued by their Context, so
// two types are the same type exactly when they are the same pointer.
type Type interface {
	Kind() TypeKind
	Context() *Context
	// IsSized reports whether values of the type have a known storage size.
	IsSized() bool
	// String renders the type the way it appears in textual IR.
	String() string
}

// VoidType is the result type of functions that return nothing.
type VoidType struct {
	ctx *Context
}

func (t *VoidType) Kind() TypeKind    { return KindVoid }
func (t *VoidType) Context() *Context { return t.ctx }
func (t *VoidType) IsSized() bool     { return false }
func (t *VoidType) String() string    { return "void" }

// IntType is an arbitrary-width integer (i1, i8, i64, i256, ...).
type IntType struct {
	ctx  *Context
	bits uint32
}

func (t *IntType) Kind() TypeKind    { return KindInt }
func (t *IntType) Context() *Context { return t.ctx }
func (t *IntType) IsSized() bool     { return true }
func (t *IntType) String() string    { return fmt.Sprintf("i%d", t.bits) }

// Bits returns the integer width.
func (t *IntType) Bits() uint32 { return t.bits }

// PointerType is a typed pointer in a given address space.
type PointerType struct {
	ctx       *Context
	elem      Type
	addrSpace uint32
}

func (t *PointerType) Kind() TypeKind    { return KindPointer }
func (t *PointerType) Context() *Context { return t.ctx }
func (t *PointerType) IsSized() bool     { return true }
func (t *PointerType) String() string {
	if t.addrSpace != 0 {
		return fmt.Sprintf("%s addrspace(%d)*", t.elem.String(), t.addrSpace)
	}
	return t.elem.String() + "*"
}

// Elem returns the pointee type.
func (t *PointerType) Elem() Type { return t.elem }

// AddrSpace returns the pointer's address space (0 is generic).
func (t *PointerType) AddrSpace() uint32 { return t.addrSpace }

// ArrayType is a fixed-length array.
type ArrayType struct {
	ctx  *Context
	elem Type
	len  uint64
}

func (t *ArrayType) Kind() TypeKind    { return KindArray }
func (t *ArrayType) Context() *Context { return t.ctx }
func (t *ArrayType) IsSized() bool     { return t.elem.IsSized() }
func (t *ArrayType) String() string    { return fmt.Sprintf("[%d x %s]", t.len, t.elem.String()) }

// Elem returns the element type.
func (t *ArrayType) Elem() Type { return t.elem }

// Len returns the number of elements.
func (t *ArrayType) Len() uint64 { return t.len }

// FuncType describes a function signature.
type FuncType struct {
	ctx      *Context
	ret      Type
	params   []Type
	variadic bool
}

func (t *FuncType) Kind() TypeKind    { return KindFunc }
func (t *FuncType) Context() *Context { return t.ctx }
func (t *FuncType) IsSized() bool     { return false }
func (t *FuncType) String() string {
	parts := make([]string, 0, len(t.params)+1)
	for _, p := range t.params {
		parts = append(parts, p.String())
	}
	if t.variadic {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("%s (%s)", t.ret.String(), strings.Join(parts, ", "))
}

// Result returns the return type.
func (t *FuncType) Result() Type { return t.ret }

// NumParams returns the number of fixed parameters.
func (t *FuncType) NumParams() int { return len(t.params) }

// Param returns the i-th parameter type.
func (t *FuncType) Param(i int) (Type, bool) {
	if i < 0 || i >= len(t.params) {
		return nil, false
	}
	return t.params[i], true
}

// Params returns a copy of the parameter types.
func (t *FuncType) Params() []Type {
	return append([]Type(nil), t.params...)
}

// IsVariadic reports whether the signature accepts trailing arguments.
func (t *FuncType) IsVariadic() bool { return t.variadic }

// IsPointer reports whether t is a pointer type.
func IsPointer(t Type) bool {
	_, ok := t.(*PointerType)
	return ok
}

// AsStruct returns t as a struct type, if it is one.
func AsStruct(t Type) (*StructType, bool) {
	st, ok := t.(*StructType)
	return st, ok && st != nil
}

// AsPointer returns t as a pointer type, if it is one.
func AsPointer(t Type) (*PointerType, bool) {
	pt, ok := t.(*PointerType)
	return pt, ok && pt != nil
}

// AsInt returns t as an integer type, if it is one.
func AsInt(t Type) (*IntType, bool) {
	it, ok := t.(*IntType)
	return it, ok && it != nil
}
