package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInsertPoint is returned when the builder is not positioned in a block.
	ErrNoInsertPoint = errors.New("builder has no insertion point")
	// ErrBlockTerminated is returned when appending after a terminator.
	ErrBlockTerminated = errors.New("block already terminated")
	// ErrDetachedBlock is returned when inserting into a block with no function.
	ErrDetachedBlock = errors.New("block is not attached to a function")
)

// Builder appends instructions at a movable insertion cursor.
type Builder struct {
	ctx   *Context
	block *BasicBlock
}

// NewBuilder creates an unpositioned builder.
func (c *Context) NewBuilder() *Builder {
	return &Builder{ctx: c}
}

// PositionAtEnd moves the cursor to the end of bb.
func (b *Builder) PositionAtEnd(bb *BasicBlock) {
	b.block = bb
}

// ClearInsertionPosition detaches the cursor from any block.
func (b *Builder) ClearInsertionPosition() {
	b.block = nil
}

// InsertBlock returns the block under the cursor, or nil.
func (b *Builder) InsertBlock() *BasicBlock {
	return b.block
}

// Function returns the function enclosing the cursor, or nil.
func (b *Builder) Function() *Function {
	return b.block.Parent()
}

// BuildLoad loads the value ptr points to.
func (b *Builder) BuildLoad(ptr Value, name string) (*Instr, error) {
	pt, err := b.pointerOperand("load", ptr)
	if err != nil {
		return nil, err
	}
	if !pt.elem.IsSized() {
		return nil, fmt.Errorf("load: pointee %s is not sized", pt.elem.String())
	}
	return b.insert(&Instr{op: OpLoad, typ: pt.elem, operands: []Value{ptr}, name: name})
}

// BuildStore stores val through ptr.
func (b *Builder) BuildStore(val, ptr Value) (*Instr, error) {
	if err := b.checkOperand("store", val); err != nil {
		return nil, err
	}
	pt, err := b.pointerOperand("store", ptr)
	if err != nil {
		return nil, err
	}
	if pt.elem != val.Type() {
		return nil, fmt.Errorf("store: value type %s does not match pointee %s", val.Type().String(), pt.elem.String())
	}
	return b.insert(&Instr{op: OpStore, typ: b.ctx.VoidType(), operands: []Value{val, ptr}})
}

// BuildStructGEP computes the address of field idx of the struct ptr points to.
func (b *Builder) BuildStructGEP(ptr Value, idx int, name string) (*Instr, error) {
	pt, err := b.pointerOperand("getelementptr", ptr)
	if err != nil {
		return nil, err
	}
	st, ok := AsStruct(pt.elem)
	if !ok {
		return nil, fmt.Errorf("getelementptr: pointee %s is not a struct", pt.elem.String())
	}
	if st.IsOpaque() {
		return nil, fmt.Errorf("getelementptr: struct %s is opaque", st.String())
	}
	field, ok := st.Field(idx)
	if !ok {
		return nil, fmt.Errorf("getelementptr: field index %d out of range for %s", idx, st.String())
	}
	typ := b.ctx.PointerInSpace(field, pt.addrSpace)
	return b.insert(&Instr{op: OpStructGEP, typ: typ, operands: []Value{ptr}, index: idx, name: name})
}

// BuildExtractValue extracts field idx from an aggregate value.
func (b *Builder) BuildExtractValue(agg Value, idx int, name string) (*Instr, error) {
	if err := b.checkOperand("extractvalue", agg); err != nil {
		return nil, err
	}
	var field Type
	switch at := agg.Type().(type) {
	case *StructType:
		f, ok := at.Field(idx)
		if !ok {
			return nil, fmt.Errorf("extractvalue: field index %d out of range for %s", idx, at.String())
		}
		field = f
	case *ArrayType:
		if idx < 0 || uint64(idx) >= at.len {
			return nil, fmt.Errorf("extractvalue: element index %d out of range for %s", idx, at.String())
		}
		field = at.elem
	default:
		return nil, fmt.Errorf("extractvalue: %s is not an aggregate", agg.Type().String())
	}
	return b.insert(&Instr{op: OpExtractValue, typ: field, operands: []Value{agg}, index: idx, name: name})
}

// BuildCall calls fn with args. Calls to void functions produce no value.
func (b *Builder) BuildCall(fn *Function, args []Value, name string) (*Instr, error) {
	if fn == nil {
		return nil, errors.New("call: nil callee")
	}
	if fn.module.ctx != b.ctx {
		return nil, fmt.Errorf("call: @%s belongs to a different context", fn.name)
	}
	ft := fn.typ
	if len(args) < len(ft.params) || (!ft.variadic && len(args) != len(ft.params)) {
		return nil, fmt.Errorf("call: @%s expects %d arguments, got %d", fn.name, len(ft.params), len(args))
	}
	for i, a := range args {
		if err := b.checkOperand("call", a); err != nil {
			return nil, err
		}
		if i < len(ft.params) && a.Type() != ft.params[i] {
			return nil, fmt.Errorf("call: @%s argument %d has type %s, want %s", fn.name, i, a.Type().String(), ft.params[i].String())
		}
	}
	in := &Instr{op: OpCall, typ: ft.ret, operands: append([]Value(nil), args...), callee: fn}
	if ft.ret.Kind() != KindVoid {
		in.name = name
	}
	return b.insert(in)
}

// BuildRet returns v from the enclosing function.
func (b *Builder) BuildRet(v Value) (*Instr, error) {
	if err := b.checkOperand("ret", v); err != nil {
		return nil, err
	}
	fn := b.Function()
	if fn != nil && fn.typ.ret != v.Type() {
		return nil, fmt.Errorf("ret: @%s returns %s, got %s", fn.name, fn.typ.ret.String(), v.Type().String())
	}
	return b.insert(&Instr{op: OpRet, typ: b.ctx.VoidType(), operands: []Value{v}})
}

// BuildRetVoid returns from a void function.
func (b *Builder) BuildRetVoid() (*Instr, error) {
	fn := b.Function()
	if fn != nil && fn.typ.ret.Kind() != KindVoid {
		return nil, fmt.Errorf("ret: @%s must return %s", fn.name, fn.typ.ret.String())
	}
	return b.insert(&Instr{op: OpRet, typ: b.ctx.VoidType()})
}

func (b *Builder) insert(in *Instr) (*Instr, error) {
	if b.block == nil {
		return nil, fmt.Errorf("%s: %w", in.op, ErrNoInsertPoint)
	}
	if b.block.parent == nil {
		return nil, fmt.Errorf("%s in %%%s: %w", in.op, b.block.name, ErrDetachedBlock)
	}
	if b.block.Terminated() {
		return nil, fmt.Errorf("%s in %%%s: %w", in.op, b.block.name, ErrBlockTerminated)
	}
	if in.typ.Kind() != KindVoid {
		in.ident = b.block.parent.uniqueLocal(in.name)
	}
	in.block = b.block
	b.block.instrs = append(b.block.instrs, in)
	return in, nil
}

func (b *Builder) checkOperand(op string, v Value) error {
	if v == nil {
		return fmt.Errorf("%s: nil operand", op)
	}
	if v.Type().Context() != b.ctx {
		return fmt.Errorf("%s: operand %s belongs to a different context", op, Operand(v))
	}
	return nil
}

func (b *Builder) pointerOperand(op string, v Value) (*PointerType, error) {
	if err := b.checkOperand(op, v); err != nil {
		return nil, err
	}
	pt, ok := AsPointer(v.Type())
	if !ok {
		return nil, fmt.Errorf("%s: operand %s is not a pointer", op, Operand(v))
	}
	return pt, nil
}
