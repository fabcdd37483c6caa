package jit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/constants"
	"evmjit/internal/jit/rtdata"
	"evmjit/internal/jit/runtime"
	"evmjit/internal/testkit"
	"evmjit/internal/trace"
)

func mustContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext()
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewContextBuildsEverything(t *testing.T) {
	c := mustContext(t)
	want := "evmtypes,constants,attrs,rtdata,env,callback,memrep,runtime"
	if got := strings.Join(c.Registry().Keys(), ","); got != want {
		t.Fatalf("build order = %s\nwant         %s", got, want)
	}
	if c.Types() == nil || c.Constants() == nil || c.Attributes() == nil || c.RuntimeData() == nil ||
		c.Env() == nil || c.Callbacks() == nil || c.Memory() == nil || c.Runtime() == nil {
		t.Fatalf("missing provider definition")
	}
	if c.Module().Name() != DefaultModuleName || c.Module().TargetTriple() != "x86_64-linux-gnu" {
		t.Fatalf("unexpected module %s / %s", c.Module().Name(), c.Module().TargetTriple())
	}
	if !runtime.IsRuntimeType(c.Runtime().StructType()) || c.Runtime().StructType().NumFields() != 3 {
		t.Fatalf("Runtime type is malformed")
	}
	if c.Runtime().Data() != c.RuntimeData() || c.Runtime().Env() != c.Env() || c.Runtime().Memory() != c.Memory() {
		t.Fatalf("Runtime must be built from the session's own records")
	}
	if c.Err() != nil {
		t.Fatalf("fresh session is poisoned: %v", c.Err())
	}
	if r := c.Timings(); len(r.Stages) != 8 {
		t.Fatalf("expected one timing stage per provider, got %d", len(r.Stages))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a, b := mustContext(t), mustContext(t)
	if ir.Type(a.Runtime().PtrType()) == ir.Type(b.Runtime().PtrType()) {
		t.Fatalf("two sessions share a type")
	}
	fn, err := b.DeclareContract("main")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if _, err := a.BeginFunction(fn); err == nil {
		t.Fatalf("a function from another session must be rejected")
	}
}

func TestDeclareContractAndBeginFunction(t *testing.T) {
	c := mustContext(t)
	fn, err := c.DeclareContract("main")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	fe, err := c.BeginFunction(fn)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if fe.Function() != fn {
		t.Fatalf("extractor bound to the wrong function")
	}
	if err := c.EmitReturn(constants.Stop); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := c.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := testkit.CheckFunctionInvariants(fn); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	text := c.Module().String()
	for _, line := range []string{
		"target triple = \"x86_64-linux-gnu\"",
		"%Runtime = type { %RuntimeData*, %Env*, %Memory }",
		"%Env = type opaque",
		"define i32 @main(%Runtime* noalias nocapture nonnull %rt) nounwind {",
		"%dataPtr = load %RuntimeData*, %RuntimeData** %t",
		"%caller = extractvalue %RuntimeData %data, 8",
		"ret i32 0",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("module misses %q", line)
		}
	}
	if t.Failed() {
		t.Logf("module:\n%s", text)
	}
	if _, err := c.DeclareContract("main"); err == nil {
		t.Fatalf("duplicate contract name must fail")
	}
}

func TestMismatchPoisonsSession(t *testing.T) {
	c := mustContext(t)
	ctx := c.IR()
	bad, err := c.Module().AddFunction("bad", ctx.FuncOf(c.Types().MainReturn, nil, false))
	if err != nil {
		t.Fatalf("add function: %v", err)
	}
	_, err = c.BeginFunction(bad)
	var me *abi.MismatchError
	if !errors.As(err, &me) || me.Kind != abi.MismatchNoParams {
		t.Fatalf("expected no-params mismatch, got %v", err)
	}
	entry, _ := bad.EntryBlock()
	if entry.Len() != 0 {
		t.Fatalf("failed extraction emitted %d instructions", entry.Len())
	}
	if c.Err() == nil {
		t.Fatalf("mismatch must poison the session")
	}
	_, err = c.DeclareContract("main")
	if !errors.Is(err, ErrSessionPoisoned) || !errors.As(err, &me) {
		t.Fatalf("expected poisoned error wrapping the mismatch, got %v", err)
	}
	if err := c.EmitReturn(constants.Stop); !errors.Is(err, ErrSessionPoisoned) {
		t.Fatalf("EmitReturn on poisoned session: %v", err)
	}
}

func TestTerminatedEntryDoesNotPoison(t *testing.T) {
	c := mustContext(t)
	fn, err := c.DeclareContract("main")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := c.EmitReturn(constants.Stop); err != nil {
		t.Fatalf("return: %v", err)
	}
	_, err = c.BeginFunction(fn)
	var me *abi.MismatchError
	if !errors.Is(err, ir.ErrBlockTerminated) || errors.As(err, &me) {
		t.Fatalf("expected plain ErrBlockTerminated, got %v", err)
	}
	if c.Err() != nil {
		t.Fatalf("cursor misuse must not poison the session: %v", c.Err())
	}
	entry, _ := fn.EntryBlock()
	if entry.Len() != 1 {
		t.Fatalf("entry block changed: %d instructions", entry.Len())
	}
	if _, err := c.DeclareContract("other"); err != nil {
		t.Fatalf("session unusable after cursor misuse: %v", err)
	}
}

func TestBeginFunctionEmitsPrologueOnce(t *testing.T) {
	c := mustContext(t)
	fn, err := c.DeclareContract("main")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	first, err := c.BeginFunction(fn)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	entry, _ := fn.EntryBlock()
	emitted := entry.Len()
	second, err := c.BeginFunction(fn)
	if err != nil {
		t.Fatalf("second begin: %v", err)
	}
	if second != first {
		t.Fatalf("second BeginFunction built a new extractor")
	}
	if entry.Len() != emitted {
		t.Fatalf("prologue emitted again: %d -> %d instructions", emitted, entry.Len())
	}
	if c.Builder().InsertBlock() != entry {
		t.Fatalf("builder not positioned at the entry block")
	}
	if err := testkit.CheckFunctionInvariants(fn); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestDescriptor(t *testing.T) {
	c := mustContext(t)
	d, err := c.Descriptor()
	if err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if d.Triple != "x86_64-linux-gnu" || len(d.Records) != 4 {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	rt, ok := d.Record("Runtime")
	if !ok || rt.Size != 40 || rt.Align != 8 {
		t.Fatalf("Runtime record = %+v", rt)
	}
	if rt.Fields[2].Name != "mem" || rt.Fields[2].Offset != 16 || rt.Fields[2].Size != 24 {
		t.Fatalf("mem field = %+v", rt.Fields[2])
	}
	data, _ := d.Record(rtdata.Name)
	if data.Size != 160 || data.Fields[rtdata.Depth].Name != "depth" || data.Fields[rtdata.Depth].Offset != 144 {
		t.Fatalf("RuntimeData record = %+v", data)
	}
	env, _ := d.Record("Env")
	if !env.Opaque {
		t.Fatalf("Env must be described as opaque")
	}
	other := mustContext(t)
	od, err := other.Descriptor()
	if err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if diffs := abi.Diff(d, od); len(diffs) != 0 {
		t.Fatalf("sessions with the same target disagree: %v", diffs)
	}
}

func TestSessionTracing(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	c, err := New(trace.WithTracer(context.Background(), ring), DefaultConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fn, err := c.DeclareContract("main")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if _, err := c.BeginFunction(fn); err != nil {
		t.Fatalf("begin: %v", err)
	}
	c.Close()

	seen := map[string]int{}
	for _, ev := range ring.Snapshot() {
		seen[ev.Scope.String()+":"+ev.Kind.String()]++
		if ev.Name == "provider:runtime" && ev.ParentID == 0 {
			t.Errorf("provider spans must be parented under the session")
		}
	}
	if seen["session:begin"] != 1 || seen["session:end"] != 1 {
		t.Fatalf("session span missing: %v", seen)
	}
	if seen["provider:begin"] != 8 {
		t.Fatalf("expected 8 provider spans, got %v", seen)
	}
	if seen["function:end"] != 1 {
		t.Fatalf("function span missing: %v", seen)
	}
	if seen["instr:point"] != 16 {
		t.Fatalf("expected 16 instruction events, got %d", seen["instr:point"])
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target.Triple = "riscv64-linux-gnu"
	if c, err := New(context.Background(), cfg); err == nil || c != nil {
		t.Fatalf("expected error and no context, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.Module.Name = "  "
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("blank module name must fail")
	}
}

func TestAArch64Session(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target.Triple = "aarch64-linux-gnu"
	cfg.Module.Name = "contract"
	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()
	if c.Target().Triple != "aarch64-linux-gnu" || c.Module().Name() != "contract" {
		t.Fatalf("config not applied")
	}
}
