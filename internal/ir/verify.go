package ir

import (
	"errors"
	"fmt"
)

// Verify checks module invariants: every defined function has terminated,
// non-empty blocks with terminators only in final position, and every operand
// belongs to the module's context and, for local values, to the same function.
func Verify(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.funcs {
		if err := verifyFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("function @%s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

func verifyFunc(m *Module, f *Function) error {
	var errs []error
	for _, bb := range f.blocks {
		if len(bb.instrs) == 0 {
			errs = append(errs, fmt.Errorf("%%%s: empty block", bb.name))
			continue
		}
		if !bb.Terminated() {
			errs = append(errs, fmt.Errorf("%%%s: unterminated block", bb.name))
		}
		for i, in := range bb.instrs {
			if in.IsTerminator() && i != len(bb.instrs)-1 {
				errs = append(errs, fmt.Errorf("%%%s: terminator %s before end of block", bb.name, in.op))
			}
			for j, op := range in.operands {
				if err := verifyOperand(m, f, op); err != nil {
					errs = append(errs, fmt.Errorf("%%%s: %s operand %d: %w", bb.name, in.op, j, err))
				}
			}
			if in.callee != nil && in.callee.module != m {
				errs = append(errs, fmt.Errorf("%%%s: call to @%s from another module", bb.name, in.callee.name))
			}
		}
	}
	return errors.Join(errs...)
}

func verifyOperand(m *Module, f *Function, v Value) error {
	if v == nil {
		return errors.New("nil operand")
	}
	if v.Type().Context() != m.ctx {
		return fmt.Errorf("%s belongs to a different context", Operand(v))
	}
	switch val := v.(type) {
	case *Param:
		if val.fn != f {
			return fmt.Errorf("parameter %s of @%s used in @%s", val.operand(), val.fn.name, f.name)
		}
	case *Instr:
		if val.block == nil || val.block.parent != f {
			return fmt.Errorf("value %s is not defined in @%s", val.operand(), f.name)
		}
	}
	return nil
}
