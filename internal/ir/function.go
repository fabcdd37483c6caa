package ir

import (
	"fmt"
)

// Function is a declared or defined function of a Module. A function without
// blocks is a declaration.
type Function struct {
	module     *Module
	name       string
	typ        *FuncType
	ptrType    *PointerType
	params     []*Param
	blocks     []*BasicBlock
	fnAttrs    AttrSet
	paramAttrs map[int]AttrSet
	locals     map[string]int
}

func newFunction(m *Module, name string, ft *FuncType) *Function {
	f := &Function{
		module:     m,
		name:       name,
		typ:        ft,
		ptrType:    m.ctx.PointerTo(ft),
		paramAttrs: make(map[int]AttrSet),
		locals:     make(map[string]int, 16),
	}
	f.params = make([]*Param, len(ft.params))
	for i, pt := range ft.params {
		p := &Param{fn: f, index: i, typ: pt}
		p.ident = f.uniqueLocal(fmt.Sprintf("a%d", i))
		f.params[i] = p
	}
	return f
}

// Type returns the pointer-to-function type, so functions can be used as
// call operands.
func (f *Function) Type() Type      { return f.ptrType }
func (f *Function) Name() string    { return f.name }
func (f *Function) operand() string { return "@" + f.name }

// Signature returns the function type.
func (f *Function) Signature() *FuncType { return f.typ }

// Module returns the owning module.
func (f *Function) Module() *Module { return f.module }

// NumParams returns the number of formal parameters.
func (f *Function) NumParams() int { return len(f.params) }

// Param returns the i-th parameter.
func (f *Function) Param(i int) (*Param, bool) {
	if i < 0 || i >= len(f.params) {
		return nil, false
	}
	return f.params[i], true
}

// FirstParam returns parameter 0, if any.
func (f *Function) FirstParam() (*Param, bool) { return f.Param(0) }

// Params returns the parameters in order.
func (f *Function) Params() []*Param { return append([]*Param(nil), f.params...) }

// IsDeclaration reports whether the function has no body.
func (f *Function) IsDeclaration() bool { return len(f.blocks) == 0 }

// Blocks returns the basic blocks in layout order.
func (f *Function) Blocks() []*BasicBlock { return append([]*BasicBlock(nil), f.blocks...) }

// EntryBlock returns the first block, if the function has a body.
func (f *Function) EntryBlock() (*BasicBlock, bool) {
	if len(f.blocks) == 0 {
		return nil, false
	}
	return f.blocks[0], true
}

// AppendBlock adds a new empty block at the end of the function.
func (f *Function) AppendBlock(name string) *BasicBlock {
	if name == "" {
		name = "bb"
	}
	bb := &BasicBlock{parent: f, name: f.uniqueLocal(name)}
	f.blocks = append(f.blocks, bb)
	return bb
}

// AddFnAttrs merges attrs into the function attributes.
func (f *Function) AddFnAttrs(attrs AttrSet) {
	f.fnAttrs = f.fnAttrs.Union(attrs)
}

// FnAttrs returns the function attributes.
func (f *Function) FnAttrs() AttrSet { return f.fnAttrs }

// AddParamAttrs merges attrs into the attributes of parameter i.
func (f *Function) AddParamAttrs(i int, attrs AttrSet) error {
	if i < 0 || i >= len(f.params) {
		return fmt.Errorf("@%s: parameter index %d out of range (have %d)", f.name, i, len(f.params))
	}
	f.paramAttrs[i] = f.paramAttrs[i].Union(attrs)
	return nil
}

// ParamAttrs returns the attributes of parameter i.
func (f *Function) ParamAttrs(i int) AttrSet { return f.paramAttrs[i] }

// InstrCount returns the number of instructions across all blocks.
func (f *Function) InstrCount() int {
	n := 0
	for _, bb := range f.blocks {
		n += len(bb.instrs)
	}
	return n
}

func (f *Function) uniqueLocal(name string) string {
	if name == "" {
		name = "t"
	}
	n, taken := f.locals[name]
	if !taken {
		f.locals[name] = 0
		return name
	}
	for {
		n++
		candidate := fmt.Sprintf("%s.%d", name, n)
		if _, ok := f.locals[candidate]; !ok {
			f.locals[name] = n
			f.locals[candidate] = 0
			return candidate
		}
	}
}

// NewBlock creates a block that belongs to no function. Builders may be
// positioned in it, but nothing can be inserted until it is attached.
func (c *Context) NewBlock(name string) *BasicBlock {
	if name == "" {
		name = "bb"
	}
	return &BasicBlock{name: name}
}

// BasicBlock is a straight-line instruction sequence ending in a terminator.
type BasicBlock struct {
	parent *Function
	name   string
	instrs []*Instr
}

// Name returns the block label.
func (bb *BasicBlock) Name() string { return bb.name }

// Parent returns the enclosing function.
func (bb *BasicBlock) Parent() *Function {
	if bb == nil {
		return nil
	}
	return bb.parent
}

// Instrs returns the block's instructions.
func (bb *BasicBlock) Instrs() []*Instr { return append([]*Instr(nil), bb.instrs...) }

// Len returns the number of instructions.
func (bb *BasicBlock) Len() int { return len(bb.instrs) }

// Terminated reports whether the block already ends with a terminator.
func (bb *BasicBlock) Terminated() bool {
	if bb == nil || len(bb.instrs) == 0 {
		return false
	}
	return bb.instrs[len(bb.instrs)-1].IsTerminator()
}
