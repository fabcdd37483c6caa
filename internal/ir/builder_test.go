package ir

import (
	"errors"
	"strings"
	"testing"

	"github.com/holiman/uint256"
)

func newPairModule(t *testing.T) (*Handle, *StructType, *Function) {
	t.Helper()
	h, err := NewHandle("test")
	if err != nil {
		t.Fatalf("new handle: %v", err)
	}
	c := h.Ctx
	pair := c.OpaqueStruct("Pair")
	if err := pair.SetBody([]Type{c.IntType(64), c.PointerTo(c.IntType(8))}, false); err != nil {
		t.Fatalf("set body: %v", err)
	}
	fn, err := h.Module.AddFunction("first", c.FuncOf(c.IntType(64), []Type{pair.PtrTo()}, false))
	if err != nil {
		t.Fatalf("add function: %v", err)
	}
	return h, pair, fn
}

func TestBuilderLoadsField(t *testing.T) {
	h, pair, fn := newPairModule(t)
	b := h.Builder
	b.PositionAtEnd(fn.AppendBlock("entry"))
	p, _ := fn.FirstParam()
	p.SetName("pair")

	addr, err := b.BuildStructGEP(p, 0, "")
	if err != nil {
		t.Fatalf("gep: %v", err)
	}
	if addr.Type() != h.Ctx.PointerTo(h.Ctx.IntType(64)) {
		t.Fatalf("gep type = %s", addr.Type())
	}
	whole, err := b.BuildLoad(p, "whole")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if whole.Type() != pair {
		t.Fatalf("load type = %s, want %s", whole.Type(), pair)
	}
	n, err := b.BuildExtractValue(whole, 0, "n")
	if err != nil {
		t.Fatalf("extractvalue: %v", err)
	}
	if _, err := b.BuildRet(n); err != nil {
		t.Fatalf("ret: %v", err)
	}
	if err := Verify(h.Module); err != nil {
		t.Fatalf("verify: %v", err)
	}
	text := h.Module.String()
	for _, want := range []string{
		"%Pair = type { i64, i8* }",
		"define i64 @first(%Pair* %pair) {",
		"%t = getelementptr inbounds %Pair, %Pair* %pair, i32 0, i32 0",
		"%whole = load %Pair, %Pair* %pair",
		"%n = extractvalue %Pair %whole, 0",
		"ret i64 %n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("module text missing %q:\n%s", want, text)
		}
	}
}

func TestBuilderRejectsMisuse(t *testing.T) {
	h, _, fn := newPairModule(t)
	b := h.Builder
	p, _ := fn.FirstParam()

	if _, err := b.BuildLoad(p, "x"); !errors.Is(err, ErrNoInsertPoint) {
		t.Fatalf("expected ErrNoInsertPoint, got %v", err)
	}
	b.PositionAtEnd(fn.AppendBlock("entry"))
	if _, err := b.BuildStructGEP(p, 5, ""); err == nil {
		t.Fatalf("expected out-of-range field error")
	}
	whole, err := b.BuildLoad(p, "whole")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := b.BuildLoad(whole, ""); err == nil {
		t.Fatalf("expected non-pointer load error")
	}
	zero := NewConstIntSigned(h.Ctx.IntType(64), 0)
	if _, err := b.BuildRet(zero); err != nil {
		t.Fatalf("ret: %v", err)
	}
	if _, err := b.BuildRet(zero); !errors.Is(err, ErrBlockTerminated) {
		t.Fatalf("expected ErrBlockTerminated, got %v", err)
	}

	other := NewContext()
	foreign := NewConstIntSigned(other.IntType(64), 1)
	b.PositionAtEnd(fn.AppendBlock("next"))
	if _, err := b.BuildRet(foreign); err == nil {
		t.Fatalf("expected foreign operand error")
	}
}

func TestUniqueLocalNames(t *testing.T) {
	h, _, fn := newPairModule(t)
	b := h.Builder
	b.PositionAtEnd(fn.AppendBlock("entry"))
	p, _ := fn.FirstParam()
	first, _ := b.BuildStructGEP(p, 0, "f")
	second, _ := b.BuildStructGEP(p, 0, "f")
	if first.operand() == second.operand() {
		t.Fatalf("identifiers must be unique, both are %s", first.operand())
	}
	if second.Name() != "f" {
		t.Fatalf("diagnostic name should be kept, got %q", second.Name())
	}
}

func TestCallAndDeclarations(t *testing.T) {
	h, err := NewHandle("calls")
	if err != nil {
		t.Fatalf("new handle: %v", err)
	}
	c := h.Ctx
	callee, err := h.Module.AddFunction("host.log", c.FuncOf(c.VoidType(), []Type{c.IntType(32)}, false))
	if err != nil {
		t.Fatalf("add callee: %v", err)
	}
	callee.AddFnAttrs(NewAttrSet(AttrNoUnwind))
	if _, err := h.Module.AddFunction("host.log", callee.Signature()); err == nil {
		t.Fatalf("expected duplicate function error")
	}
	main, err := h.Module.AddFunction("main", c.FuncOf(c.VoidType(), nil, false))
	if err != nil {
		t.Fatalf("add main: %v", err)
	}
	b := h.Builder
	b.PositionAtEnd(main.AppendBlock("entry"))
	call, err := b.BuildCall(callee, []Value{NewConstIntSigned(c.IntType(32), -1)}, "ignored")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if call.HasValue() {
		t.Fatalf("void call must not produce a value")
	}
	if _, err := b.BuildCall(callee, nil, ""); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := b.BuildRetVoid(); err != nil {
		t.Fatalf("ret void: %v", err)
	}
	text := h.Module.String()
	for _, want := range []string{
		"declare void @host.log(i32) nounwind",
		"call void @host.log(i32 -1)",
		"ret void",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("module text missing %q:\n%s", want, text)
		}
	}
}

func TestConstIntTruncatesToWidth(t *testing.T) {
	c := NewContext()
	v := NewConstInt(c.IntType(8), uint256.NewInt(0x1ff))
	if got := v.Value().Uint64(); got != 0xff {
		t.Fatalf("value = %#x, want 0xff", got)
	}
	if !v.IsNegative() || v.Int64() != -1 {
		t.Fatalf("expected -1, got %d", v.Int64())
	}
	word := NewConstIntSigned(c.IntType(256), -1)
	if word.operand() != new(uint256.Int).SetAllOne().Dec() {
		t.Fatalf("unexpected word operand %s", word.operand())
	}
}

func TestVerifyReportsUnterminatedBlocks(t *testing.T) {
	h, _, fn := newPairModule(t)
	fn.AppendBlock("entry")
	err := Verify(h.Module)
	if err == nil || !strings.Contains(err.Error(), "empty block") {
		t.Fatalf("expected empty block error, got %v", err)
	}
}

func TestNewHandleRejectsEmptyName(t *testing.T) {
	if _, err := NewHandle("  "); err == nil {
		t.Fatalf("expected error for empty module name")
	}
}

func TestBuilderDetachedBlock(t *testing.T) {
	c := NewContext()
	b := c.NewBuilder()
	bb := c.NewBlock("loose")
	b.PositionAtEnd(bb)
	if b.Function() != nil {
		t.Fatalf("detached block has no function")
	}
	if _, err := b.BuildRetVoid(); !errors.Is(err, ErrDetachedBlock) {
		t.Fatalf("expected ErrDetachedBlock, got %v", err)
	}
	if bb.Len() != 0 {
		t.Fatalf("nothing may be inserted into a detached block")
	}
}

func TestBuilderStoresNull(t *testing.T) {
	h, _, fn := newPairModule(t)
	c := h.Ctx
	b := h.Builder
	b.PositionAtEnd(fn.AppendBlock("entry"))
	p, _ := fn.FirstParam()

	slot, err := b.BuildStructGEP(p, 1, "slot")
	if err != nil {
		t.Fatalf("gep: %v", err)
	}
	bytePtr := c.PointerTo(c.IntType(8))
	st, err := b.BuildStore(NewConstNull(bytePtr), slot)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if st.HasValue() {
		t.Fatalf("store must not produce a value")
	}
	if _, err := b.BuildStore(NewConstIntSigned(c.IntType(64), 1), slot); err == nil {
		t.Fatalf("storing i64 through i8** must fail")
	}
	if _, err := b.BuildRet(NewConstIntSigned(c.IntType(64), 0)); err != nil {
		t.Fatalf("ret: %v", err)
	}
	if text := h.Module.String(); !strings.Contains(text, "store i8* null, i8** %slot") {
		t.Fatalf("missing store line:\n%s", text)
	}
}

// Two sessions that build the same named record get distinct types, and a
// value typed in one session cannot be used by the other's builder.
func TestBuilderRejectsForeignSession(t *testing.T) {
	h, pair, fn := newPairModule(t)
	other, otherPair, otherFn := newPairModule(t)
	if Type(pair) == Type(otherPair) || pair.PtrTo() == otherPair.PtrTo() {
		t.Fatalf("same-shaped records of two sessions must not be identical")
	}
	h.Builder.PositionAtEnd(fn.AppendBlock("entry"))
	foreign, _ := otherFn.FirstParam()
	if _, err := h.Builder.BuildLoad(foreign, ""); err == nil || !strings.Contains(err.Error(), "different context") {
		t.Fatalf("expected foreign operand error, got %v", err)
	}
	if _, err := h.Builder.BuildRet(NewConstIntSigned(other.Ctx.IntType(64), 0)); err == nil {
		t.Fatalf("expected foreign constant to be rejected")
	}
	entry, _ := fn.EntryBlock()
	if entry.Len() != 0 {
		t.Fatalf("rejected operands emitted %d instructions", entry.Len())
	}
}
