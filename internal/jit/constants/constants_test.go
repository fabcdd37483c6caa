package constants

import (
	"testing"

	"github.com/holiman/uint256"

	"evmjit/internal/ir"
	"evmjit/internal/jit/evmtypes"
	"evmjit/internal/jit/provider"
)

func TestConstants(t *testing.T) {
	r := provider.New(ir.NewContext())
	c, err := Get(r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	ts, _ := evmtypes.Get(r)
	if c.WordMax.Type() != ir.Type(ts.Word) || !c.WordMax.Value().Eq(new(uint256.Int).SetAllOne()) {
		t.Fatalf("WordMax = %s", ir.Operand(c.WordMax))
	}
	if got := ir.Operand(c.WordOne); got != "i256 1" {
		t.Fatalf("WordOne operand = %q", got)
	}
	if c.GasMax.Int64() != 1<<63-1 {
		t.Fatalf("GasMax = %d", c.GasMax.Int64())
	}
	if c.StackLimit.Int64() != 1024 {
		t.Fatalf("StackLimit = %d", c.StackLimit.Int64())
	}
	if got := ir.Operand(c.Code(OutOfGas)); got != "i32 -1" {
		t.Fatalf("OutOfGas operand = %q", got)
	}
	if first, second := c.Code(Revert), c.Code(Revert); first != second {
		t.Fatalf("known return codes must be cached")
	}
	if keys := r.Keys(); len(keys) != 2 || keys[0] != "evmtypes" {
		t.Fatalf("constants must build scalar types first, got %v", keys)
	}
}

func TestSize(t *testing.T) {
	c, err := Get(provider.New(ir.NewContext()))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	v, err := c.Size(32)
	if err != nil || v.Int64() != 32 {
		t.Fatalf("Size(32) = %v, %v", v, err)
	}
	if _, err := c.Size(-1); err == nil {
		t.Fatalf("negative size must fail")
	}
}

func TestReturnCodes(t *testing.T) {
	for _, code := range ReturnCodes() {
		if code.IsException() != (code < 0) {
			t.Errorf("%s: IsException mismatch", code)
		}
	}
	if Stop.String() != "stop" || StackOverflow.String() != "stack-overflow" {
		t.Fatalf("unexpected names")
	}
	if ReturnCode(42).String() != "ReturnCode(42)" {
		t.Fatalf("unknown code name = %s", ReturnCode(42))
	}
}

func TestParseReturnCode(t *testing.T) {
	for _, code := range ReturnCodes() {
		got, err := ParseReturnCode(code.String())
		if err != nil || got != code {
			t.Errorf("ParseReturnCode(%q) = %v, %v", code.String(), got, err)
		}
	}
	if got, err := ParseReturnCode(" Out-Of-Gas "); err != nil || got != OutOfGas {
		t.Fatalf("case-insensitive parse = %v, %v", got, err)
	}
	if _, err := ParseReturnCode("halt"); err == nil {
		t.Fatalf("unknown name must fail")
	}
}
