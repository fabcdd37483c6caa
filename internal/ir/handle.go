// Package ir is a small typed SSA IR used as the code-generation backend of the
// JIT. A Context uniques types (two types are identical exactly when they are
// the same pointer), a Module holds functions, and a Builder appends
// instructions at a movable insertion cursor. Modules print as textual LLVM IR.
package ir

import "fmt"

// Handle bundles the context, builder and module owned by one compilation
// session.
type Handle struct {
	Ctx     *Context
	Builder *Builder
	Module  *Module
}

// NewHandle creates a fresh context with a builder and a module named
// moduleName.
func NewHandle(moduleName string) (*Handle, error) {
	ctx := NewContext()
	mod, err := ctx.NewModule(moduleName)
	if err != nil {
		return nil, fmt.Errorf("create backend handle: %w", err)
	}
	return &Handle{
		Ctx:     ctx,
		Builder: ctx.NewBuilder(),
		Module:  mod,
	}, nil
}
