package callback

import (
	"strings"
	"testing"

	"evmjit/internal/ir"
	"evmjit/internal/jit/env"
	"evmjit/internal/jit/provider"
)

func newSession(t *testing.T) (*provider.Registry, *ir.Module) {
	t.Helper()
	c := ir.NewContext()
	m, err := c.NewModule("callbacks")
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return provider.New(c), m
}

func TestSignatures(t *testing.T) {
	r, _ := newSession(t)
	cb, err := Get(r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	e, _ := env.Get(r)
	want := map[Kind]string{
		SLoad:     "void (%Env*, i256*, i256*)",
		BlockHash: "void (%Env*, i64, i256*)",
		SHA3:      "void (i8*, i64, i256*)",
		Call:      "i1 (%Env*, i64*, i256*, i256*, i8*, i64, i8*, i64)",
		ExtCode:   "i8* (%Env*, i256*, i64*)",
	}
	for k, sig := range want {
		ft, ok := cb.Type(k)
		if !ok {
			t.Fatalf("%s: missing signature", k)
		}
		if ft.String() != sig {
			t.Errorf("%s = %s, want %s", k, ft, sig)
		}
	}
	// Every callback that touches the environment takes it first, by pointer.
	for _, k := range Kinds() {
		ft, _ := cb.Type(k)
		if k == SHA3 {
			continue
		}
		if p, _ := ft.Param(0); p != ir.Type(e.PtrType()) {
			t.Errorf("%s: first parameter is %s", k, p)
		}
	}
	if _, ok := cb.Type(Kind(200)); ok {
		t.Fatalf("unknown kind must not resolve")
	}
}

func TestDeclareIsIdempotent(t *testing.T) {
	r, m := newSession(t)
	cb, err := Get(r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first, err := cb.Declare(m, SLoad)
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	second, err := cb.Declare(m, SLoad)
	if err != nil {
		t.Fatalf("declare again: %v", err)
	}
	if first != second || len(m.Functions()) != 1 {
		t.Fatalf("second declaration must reuse the first")
	}
	if !first.IsDeclaration() || first.Name() != "evm.sload" {
		t.Fatalf("unexpected function %s", first.Name())
	}
	text := m.String()
	want := "declare void @evm.sload(%Env*, i256* readonly nocapture, i256*) nounwind"
	if !strings.Contains(text, want) {
		t.Fatalf("module text misses %q:\n%s", want, text)
	}
}

func TestDeclareRejectsConflictingSymbol(t *testing.T) {
	r, m := newSession(t)
	cb, err := Get(r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	c := r.Context()
	if _, err := m.AddFunction("evm.log", c.FuncOf(c.VoidType(), nil, false)); err != nil {
		t.Fatalf("add function: %v", err)
	}
	if _, err := cb.Declare(m, Log); err == nil {
		t.Fatalf("expected signature conflict")
	}
}

func TestDeclareAll(t *testing.T) {
	r, m := newSession(t)
	cb, err := Get(r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	fns, err := cb.DeclareAll(m)
	if err != nil {
		t.Fatalf("declare all: %v", err)
	}
	if len(fns) != len(Kinds()) || len(m.Functions()) != len(Kinds()) {
		t.Fatalf("expected %d declarations, got %d", len(Kinds()), len(fns))
	}
	if err := ir.Verify(m); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if keys := r.Keys(); strings.Join(keys, ",") != "evmtypes,env,attrs,callback" {
		t.Fatalf("unexpected build order %v", keys)
	}
}
