package testkit

import (
	"testing"

	"evmjit/internal/ir"
)

func TestInvariantsOnWellFormedFunction(t *testing.T) {
	h, err := ir.NewHandle("kit")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	c := h.Ctx
	pair := c.OpaqueStruct("Pair")
	if err := pair.SetBody([]ir.Type{c.IntType(64), c.IntType(64)}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	fn, err := h.Module.AddFunction("sum", c.FuncOf(c.IntType(64), []ir.Type{pair.PtrTo()}, false))
	if err != nil {
		t.Fatalf("add function: %v", err)
	}
	h.Builder.PositionAtEnd(fn.AppendBlock("entry"))
	p, _ := fn.FirstParam()
	v, err := h.Builder.BuildLoad(p, "v")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a, err := h.Builder.BuildExtractValue(v, 0, "x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := h.Builder.BuildExtractValue(v, 1, "x"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := h.Builder.BuildRet(a); err != nil {
		t.Fatalf("ret: %v", err)
	}
	if err := CheckFunctionInvariants(fn); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	entry, _ := fn.EntryBlock()
	if err := CheckOpcodes(entry, ir.OpLoad, ir.OpExtractValue, ir.OpExtractValue, ir.OpRet); err != nil {
		t.Fatalf("opcodes: %v", err)
	}
	if err := CheckOpcodes(entry, ir.OpLoad); err == nil {
		t.Fatalf("expected length mismatch")
	}
}
