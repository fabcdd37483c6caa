// Package testkit holds invariant checks shared by package tests.
package testkit

import (
	"fmt"
	"strings"

	"evmjit/internal/ir"
)

// CheckFunctionInvariants runs a minimal set of SSA invariants on a defined
// function:
// 1) every value-producing instruction has a distinct local name
// 2) every instruction operand is defined before its use (blocks are
// treated as straight-line code in order)
// 3) every operand type belongs to the function's context
func CheckFunctionInvariants(fn *ir.Function) error {
	if fn == nil {
		return fmt.Errorf("nil function")
	}
	ctx := fn.Module().Context()
	names := make(map[string]*ir.Instr)
	defined := make(map[ir.Value]bool)
	for _, p := range fn.Params() {
		defined[p] = true
		names[local(p)] = nil
	}
	for _, bb := range fn.Blocks() {
		for _, in := range bb.Instrs() {
			for i, op := range in.Operands() {
				if op.Type().Context() != ctx {
					return fmt.Errorf("%%%s: %s operand %d comes from another context", bb.Name(), in.Opcode(), i)
				}
				if _, isInstr := op.(*ir.Instr); isInstr && !defined[op] {
					return fmt.Errorf("%%%s: %s operand %d used before definition", bb.Name(), in.Opcode(), i)
				}
				if p, isParam := op.(*ir.Param); isParam && p.Parent() != fn {
					return fmt.Errorf("%%%s: %s operand %d is a parameter of @%s", bb.Name(), in.Opcode(), i, p.Parent().Name())
				}
			}
			if !in.HasValue() {
				continue
			}
			key := local(in)
			if _, dup := names[key]; dup {
				return fmt.Errorf("%%%s: duplicate local %s", bb.Name(), key)
			}
			names[key] = in
			defined[in] = true
		}
	}
	return nil
}

// CheckOpcodes reports whether bb holds exactly the given opcode sequence.
func CheckOpcodes(bb *ir.BasicBlock, want ...ir.Opcode) error {
	got := bb.Instrs()
	if len(got) != len(want) {
		return fmt.Errorf("%%%s: %d instructions, want %d", bb.Name(), len(got), len(want))
	}
	for i, in := range got {
		if in.Opcode() != want[i] {
			return fmt.Errorf("%%%s: instruction %d is %s, want %s", bb.Name(), i, in.Opcode(), want[i])
		}
	}
	return nil
}

func local(v ir.Value) string {
	s := ir.Operand(v)
	return s[strings.LastIndexByte(s, ' ')+1:]
}
