// Package jit is the compilation session of the EVM JIT. A Context owns one
// backend handle and every type definition built for it: scalar types,
// constants, attribute sets, the RuntimeData, Env and Memory records, host
// callback signatures and the Runtime record. Generated contract functions
// take a single Runtime* argument that the host fills in before each call.
//
// A Context is single-threaded. Definitions from one Context must never be
// used with another.
package jit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/attrs"
	"evmjit/internal/jit/callback"
	"evmjit/internal/jit/constants"
	"evmjit/internal/jit/env"
	"evmjit/internal/jit/evmtypes"
	"evmjit/internal/jit/memrep"
	"evmjit/internal/jit/provider"
	"evmjit/internal/jit/rtdata"
	"evmjit/internal/jit/runtime"
	"evmjit/internal/layout"
	"evmjit/internal/observ"
	"evmjit/internal/trace"
)

// ErrSessionPoisoned is returned by every code-generating call after an ABI
// mismatch was reported. The mismatch means the compiler disagrees with its
// own definitions; nothing emitted afterwards can be trusted.
var ErrSessionPoisoned = errors.New("compilation session poisoned by an earlier ABI mismatch")

// Context is one compilation session.
type Context struct {
	cfg    Config
	handle *ir.Handle
	reg    *provider.Registry
	target layout.Target
	layout *layout.LayoutEngine
	tracer trace.Tracer
	span   *trace.Span
	timer  *observ.Timer

	types     *evmtypes.Types
	consts    *constants.Constants
	attrs     *attrs.Attrs
	data      *rtdata.Data
	env       *env.Env
	callbacks *callback.Callbacks
	mem       *memrep.Memory
	rt        *runtime.Type

	extractors map[*ir.Function]*runtime.FieldExtractor
	poison     error
}

// NewContext creates a session with the default configuration.
func NewContext() (*Context, error) {
	return New(context.Background(), DefaultConfig())
}

// New creates a session. The tracer, if any, is taken from ctx. Every
// provider is built eagerly; on failure no Context is returned.
func New(ctx context.Context, cfg Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	target, err := layout.TargetByTriple(cfg.Target.Triple)
	if err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeSession, "session", trace.CurrentSpan(ctx))

	handle, err := ir.NewHandle(ir.CanonicalName(cfg.Module.Name))
	if err != nil {
		span.End("error")
		return nil, err
	}
	handle.Module.SetTargetTriple(target.Triple)

	c := &Context{
		cfg:    cfg,
		handle: handle,
		reg:    provider.New(handle.Ctx),
		target: target,
		layout: layout.New(target),
		tracer: tracer,
		span:   span,
		timer:  observ.NewTimer(),

		extractors: make(map[*ir.Function]*runtime.FieldExtractor),
	}
	c.reg.SetTracer(tracer, span.ID())
	c.reg.SetTimer(c.timer)

	if err := c.build(); err != nil {
		span.End("error")
		return nil, fmt.Errorf("build compilation context: %w", err)
	}
	span.WithExtra("module", handle.Module.Name()).
		WithExtra("target", target.Triple).
		WithExtra("providers", strconv.Itoa(c.reg.Len()))
	return c, nil
}

// build runs the providers in dependency order.
func (c *Context) build() error {
	var err error
	steps := []func() error{
		func() error { c.types, err = evmtypes.Get(c.reg); return err },
		func() error { c.consts, err = constants.Get(c.reg); return err },
		func() error { c.attrs, err = attrs.Get(c.reg); return err },
		func() error { c.data, err = rtdata.Get(c.reg); return err },
		func() error { c.env, err = env.Get(c.reg); return err },
		func() error { c.callbacks, err = callback.Get(c.reg); return err },
		func() error { c.mem, err = memrep.Get(c.reg); return err },
		func() error { c.rt, err = runtime.Get(c.reg); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Close ends the session span. The Context stays readable.
func (c *Context) Close() {
	if c.span != nil {
		c.span.End("")
		c.span = nil
	}
}

// Handle returns the backend handle: IR context, builder and module.
func (c *Context) Handle() *ir.Handle { return c.handle }

// IR returns the type-owning IR context.
func (c *Context) IR() *ir.Context { return c.handle.Ctx }

// Builder returns the session's single insertion cursor.
func (c *Context) Builder() *ir.Builder { return c.handle.Builder }

// Module returns the module generated functions are added to.
func (c *Context) Module() *ir.Module { return c.handle.Module }

// Registry returns the provider registry holding every cached definition.
func (c *Context) Registry() *provider.Registry { return c.reg }

// Config returns the configuration the session was created with.
func (c *Context) Config() Config { return c.cfg }

// Target returns the target the layout engine computes for.
func (c *Context) Target() layout.Target { return c.target }

// Layout returns the layout engine for Target.
func (c *Context) Layout() *layout.LayoutEngine { return c.layout }

// Types returns the scalar types (word, size, gas, byte, ...).
func (c *Context) Types() *evmtypes.Types { return c.types }

// Constants returns the shared constants and return codes.
func (c *Context) Constants() *constants.Constants { return c.consts }

// Attributes returns the calling-convention attribute sets.
func (c *Context) Attributes() *attrs.Attrs { return c.attrs }

// RuntimeData returns the per-call data record.
func (c *Context) RuntimeData() *rtdata.Data { return c.data }

// Env returns the opaque host environment record.
func (c *Context) Env() *env.Env { return c.env }

// Callbacks returns the host callback signatures.
func (c *Context) Callbacks() *callback.Callbacks { return c.callbacks }

// Memory returns the EVM memory representation record.
func (c *Context) Memory() *memrep.Memory { return c.mem }

// Runtime returns the Runtime record passed to every contract function.
func (c *Context) Runtime() *runtime.Type { return c.rt }

// Timings reports how long each provider build and extraction took.
func (c *Context) Timings() observ.Report { return c.timer.Report() }

// TimingSummary renders Timings as an aligned table.
func (c *Context) TimingSummary() string { return c.timer.Summary() }

// Tracer returns the tracer the session emits to; Nop when tracing is off.
func (c *Context) Tracer() trace.Tracer { return c.tracer }

// Err returns the mismatch that poisoned the session, or nil.
func (c *Context) Err() error { return c.poison }

func (c *Context) checkPoison() error {
	if c.poison != nil {
		return fmt.Errorf("%w: %w", ErrSessionPoisoned, c.poison)
	}
	return nil
}

// fail poisons the session when err is an ABI mismatch.
func (c *Context) fail(err error) error {
	var me *abi.MismatchError
	if errors.As(err, &me) && c.poison == nil {
		c.poison = err
		trace.Point(c.tracer, trace.ScopeSession, "poisoned", err.Error(), c.span.ID())
	}
	return err
}

// DeclareContract adds a contract function
//
//	i32 @name(%Runtime* noalias nocapture nonnull %rt) nounwind
//
// with an empty entry block and positions the builder at its end.
func (c *Context) DeclareContract(name string) (*ir.Function, error) {
	if err := c.checkPoison(); err != nil {
		return nil, err
	}
	name = ir.CanonicalName(name)
	ft := c.handle.Ctx.FuncOf(c.types.MainReturn, []ir.Type{c.rt.PtrType()}, false)
	fn, err := c.handle.Module.AddFunction(name, ft)
	if err != nil {
		return nil, fmt.Errorf("declare contract: %w", err)
	}
	fn.AddFnAttrs(c.attrs.Contract)
	if err := fn.AddParamAttrs(0, c.attrs.RuntimeParam); err != nil {
		return nil, fmt.Errorf("declare contract: %w", err)
	}
	if p, ok := fn.FirstParam(); ok {
		p.SetName("rt")
	}
	c.handle.Builder.PositionAtEnd(fn.AppendBlock("entry"))
	trace.Point(c.tracer, trace.ScopeSession, "contract:"+name, ft.String(), c.span.ID())
	return fn, nil
}

// BeginFunction positions the builder at the end of fn's entry block and
// unpacks its Runtime argument. The prologue is emitted once per function;
// later calls for the same function return the same extractor. An ABI
// mismatch poisons the session; a terminated entry block does not.
func (c *Context) BeginFunction(fn *ir.Function) (*runtime.FieldExtractor, error) {
	if err := c.checkPoison(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errors.New("begin function: nil function")
	}
	if fn.Module() != c.handle.Module {
		return nil, fmt.Errorf("begin function: @%s belongs to module %q", fn.Name(), fn.Module().Name())
	}
	entry, ok := fn.EntryBlock()
	if !ok {
		entry = fn.AppendBlock("entry")
	}
	c.handle.Builder.PositionAtEnd(entry)
	if fe, ok := c.extractors[fn]; ok {
		return fe, nil
	}

	span := trace.Begin(c.tracer, trace.ScopeFunction, "function:"+fn.Name(), c.span.ID())
	stage := c.timer.Begin("function:" + fn.Name())
	before := entry.Len()
	fe, err := runtime.NewFieldExtractor(c.handle.Builder, c.rt)
	if err != nil {
		c.timer.End(stage, "error")
		span.End("error: " + err.Error())
		return nil, c.fail(fmt.Errorf("begin function @%s: %w", fn.Name(), err))
	}
	emitted := entry.Len() - before
	c.timer.End(stage, "")
	if c.tracer.Level().ShouldEmit(trace.ScopeInstr) {
		for _, in := range entry.Instrs()[before:] {
			trace.Point(c.tracer, trace.ScopeInstr, in.Opcode().String(), in.Name(), span.ID())
		}
	}
	span.WithExtra("fields", strconv.Itoa(rtdata.NumFields)).
		WithExtra("instrs", strconv.Itoa(emitted)).
		End("")
	c.extractors[fn] = fe
	return fe, nil
}

// EmitReturn terminates the current block with the given result code.
func (c *Context) EmitReturn(code constants.ReturnCode) error {
	if err := c.checkPoison(); err != nil {
		return err
	}
	if _, err := c.handle.Builder.BuildRet(c.consts.Code(code)); err != nil {
		return fmt.Errorf("emit return %s: %w", code, err)
	}
	return nil
}

// Verify checks the module built so far.
func (c *Context) Verify() error { return ir.Verify(c.handle.Module) }

// Descriptor describes the host-visible records for the session's target.
func (c *Context) Descriptor() (*abi.Descriptor, error) {
	records := []struct {
		st     *ir.StructType
		schema *abi.Schema
	}{
		{c.rt.StructType(), runtime.Schema},
		{c.data.StructType(), rtdata.Schema},
		{c.env.StructType(), env.Schema},
		{c.mem.StructType(), memrep.Schema},
	}
	d := &abi.Descriptor{Schema: abi.DescriptorSchemaVersion, Triple: c.target.Triple}
	for _, r := range records {
		rd, err := abi.DescribeRecord(c.layout, r.st, r.schema)
		if err != nil {
			return nil, err
		}
		d.Records = append(d.Records, rd)
	}
	return d, nil
}
