package ir

import "fmt"

// Opcode enumerates instruction kinds.
type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpLoad
	OpStore
	OpStructGEP
	OpExtractValue
	OpCall
	OpRet
)

func (op Opcode) String() string {
	switch op {
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpStructGEP:
		return "getelementptr"
	case OpExtractValue:
		return "extractvalue"
	case OpCall:
		return "call"
	case OpRet:
		return "ret"
	default:
		return fmt.Sprintf("Opcode(%d)", op)
	}
}

// Instr is a single instruction. Instructions that produce a value are
// themselves Values.
type Instr struct {
	op       Opcode
	typ      Type
	operands []Value
	index    int
	callee   *Function
	name     string
	ident    string
	block    *BasicBlock
}

func (in *Instr) Type() Type      { return in.typ }
func (in *Instr) Name() string    { return in.name }
func (in *Instr) operand() string { return "%" + in.ident }

// Opcode returns the instruction kind.
func (in *Instr) Opcode() Opcode { return in.op }

// Operands returns the value operands.
func (in *Instr) Operands() []Value { return append([]Value(nil), in.operands...) }

// Index returns the field index of a struct GEP or extractvalue.
func (in *Instr) Index() int { return in.index }

// Callee returns the called function of a call instruction.
func (in *Instr) Callee() *Function { return in.callee }

// Block returns the block holding the instruction.
func (in *Instr) Block() *BasicBlock { return in.block }

// IsTerminator reports whether the instruction ends a block.
func (in *Instr) IsTerminator() bool { return in.op == OpRet }

// HasValue reports whether the instruction produces a value.
func (in *Instr) HasValue() bool {
	return in.ident != ""
}
