// Package provider holds the per-session cache of type definitions.
//
// Every definition the code generator needs (scalar types, records, callback
// signatures) is built by a provider function on first request and cached
// under a string key. The registry belongs to exactly one ir.Context, so a
// cached definition can never leak into another session.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"evmjit/internal/ir"
	"evmjit/internal/observ"
	"evmjit/internal/trace"
)

// ErrCycle is returned when a provider requests its own definition while
// that definition is still being built.
var ErrCycle = errors.New("provider dependency cycle")

// BuildFunc builds the definition cached under one key.
type BuildFunc[T any] func(r *Registry) (T, error)

type entry struct {
	value    any
	building bool
}

// Registry caches provider definitions for one ir.Context.
type Registry struct {
	ctx     *ir.Context
	entries map[string]*entry
	order   []string
	stack   []string

	tracer trace.Tracer
	parent uint64
	timer  *observ.Timer
}

// New creates an empty registry bound to ctx.
func New(ctx *ir.Context) *Registry {
	return &Registry{
		ctx:     ctx,
		entries: make(map[string]*entry),
		tracer:  trace.Nop,
	}
}

// Context returns the ir.Context all cached definitions belong to.
func (r *Registry) Context() *ir.Context { return r.ctx }

// SetTracer routes provider spans to t, parented under span parent.
func (r *Registry) SetTracer(t trace.Tracer, parent uint64) {
	if t == nil {
		t = trace.Nop
	}
	r.tracer = t
	r.parent = parent
}

// SetTimer records one stage per provider build in t.
func (r *Registry) SetTimer(t *observ.Timer) { r.timer = t }

// Has reports whether key has a finished definition.
func (r *Registry) Has(key string) bool {
	e, ok := r.entries[key]
	return ok && !e.building
}

// Keys returns the keys of finished definitions in construction order.
func (r *Registry) Keys() []string { return append([]string(nil), r.order...) }

// Len returns the number of finished definitions.
func (r *Registry) Len() int { return len(r.order) }

// Lookup returns the definition cached under key, building it with build on
// first use. Repeated lookups return the identical value. A failed build
// caches nothing, so the error is reported again on the next lookup.
func Lookup[T any](r *Registry, key string, build func(*Registry) (T, error)) (T, error) {
	var zero T
	if e, ok := r.entries[key]; ok {
		if e.building {
			chain := append(append([]string(nil), r.stack...), key)
			return zero, fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
		v, ok := e.value.(T)
		if !ok {
			return zero, fmt.Errorf("provider %q: cached %T, requested %T", key, e.value, zero)
		}
		return v, nil
	}

	e := &entry{building: true}
	r.entries[key] = e
	r.stack = append(r.stack, key)

	parent := r.parent
	span := trace.Begin(r.tracer, trace.ScopeProvider, "provider:"+key, parent)
	r.parent = span.ID()
	if r.parent == 0 {
		r.parent = parent
	}
	stage := -1
	if r.timer != nil {
		stage = r.timer.Begin("provider:" + key)
	}

	v, err := build(r)

	r.parent = parent
	r.stack = r.stack[:len(r.stack)-1]
	if r.timer != nil {
		note := ""
		if err != nil {
			note = "error"
		}
		r.timer.End(stage, note)
	}
	if err != nil {
		delete(r.entries, key)
		span.End("error: " + err.Error())
		return zero, fmt.Errorf("provider %q: %w", key, err)
	}
	e.value = v
	e.building = false
	r.order = append(r.order, key)
	span.End("")
	return v, nil
}
