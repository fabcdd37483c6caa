package abi

import (
	"fmt"

	"evmjit/internal/ir"
)

// MismatchKind enumerates the ways generated code can disagree with the ABI
// definitions of its own session.
type MismatchKind uint8

const (
	// MismatchNoInsertBlock: the builder is not positioned in a block.
	MismatchNoInsertBlock MismatchKind = iota + 1
	// MismatchNoFunction: the insertion block has no enclosing function.
	MismatchNoFunction
	// MismatchNoParams: the enclosing function declares no parameters.
	MismatchNoParams
	// MismatchParamType: the runtime parameter has the wrong type.
	MismatchParamType
	// MismatchRecordType: a record operand is not of the expected record type.
	MismatchRecordType
	// MismatchFieldType: an extracted or loaded field has an unexpected type.
	MismatchFieldType
	// MismatchFieldIndex: a field index is outside the record.
	MismatchFieldIndex
)

func (k MismatchKind) String() string {
	switch k {
	case MismatchNoInsertBlock:
		return "no insertion block"
	case MismatchNoFunction:
		return "no enclosing function"
	case MismatchNoParams:
		return "function has no parameters"
	case MismatchParamType:
		return "runtime parameter type mismatch"
	case MismatchRecordType:
		return "record type mismatch"
	case MismatchFieldType:
		return "field type mismatch"
	case MismatchFieldIndex:
		return "field index out of range"
	default:
		return fmt.Sprintf("MismatchKind(%d)", k)
	}
}

// MismatchError is an internal-consistency violation between the compiler
// and its own ABI definitions. It always indicates a compiler bug.
type MismatchError struct {
	Kind  MismatchKind
	Func  string // enclosing function, if known
	Field string // record field involved, if any
	Index int
	Want  ir.Type
	Got   ir.Type
	Err   error // underlying builder error, if any
}

func (e *MismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "abi mismatch: " + e.Kind.String()
	if e.Func != "" {
		msg += " in @" + e.Func
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q #%d)", e.Field, e.Index)
	}
	if e.Want != nil || e.Got != nil {
		msg += fmt.Sprintf(": want %s, got %s", typeString(e.Want), typeString(e.Got))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MismatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func typeString(t ir.Type) string {
	if t == nil {
		return "<none>"
	}
	return t.String()
}
