package ir

import (
	"errors"
	"fmt"
)

// Module is a named compilation unit holding functions.
type Module struct {
	ctx    *Context
	name   string
	triple string
	funcs  []*Function
	byName map[string]*Function
}

// NewModule creates an empty module in c.
func (c *Context) NewModule(name string) (*Module, error) {
	name = CanonicalName(name)
	if name == "" {
		return nil, errors.New("module name must not be empty")
	}
	return &Module{
		ctx:    c,
		name:   name,
		byName: make(map[string]*Function, 16),
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string { return m.name }

// Context returns the type context of the module.
func (m *Module) Context() *Context { return m.ctx }

// SetTargetTriple records the target triple printed in the module header.
func (m *Module) SetTargetTriple(triple string) { m.triple = triple }

// TargetTriple returns the recorded target triple.
func (m *Module) TargetTriple() string { return m.triple }

// AddFunction declares a new function. Names are unique within a module.
func (m *Module) AddFunction(name string, ft *FuncType) (*Function, error) {
	if name == "" {
		return nil, errors.New("function name must not be empty")
	}
	if ft == nil {
		return nil, fmt.Errorf("@%s: missing function type", name)
	}
	if ft.ctx != m.ctx {
		return nil, fmt.Errorf("@%s: function type belongs to a different context", name)
	}
	if _, exists := m.byName[name]; exists {
		return nil, fmt.Errorf("@%s: function already defined in module %q", name, m.name)
	}
	f := newFunction(m, name, ft)
	m.funcs = append(m.funcs, f)
	m.byName[name] = f
	return f, nil
}

// Function looks up a function by name.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Functions returns the functions in declaration order.
func (m *Module) Functions() []*Function {
	return append([]*Function(nil), m.funcs...)
}
