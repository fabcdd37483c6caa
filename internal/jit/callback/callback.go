// Package callback provides the signatures of the host functions generated
// code calls back into, and declares them in a module.
package callback

import (
	"fmt"

	"evmjit/internal/ir"
	"evmjit/internal/jit/attrs"
	"evmjit/internal/jit/env"
	"evmjit/internal/jit/evmtypes"
	"evmjit/internal/jit/provider"
)

const key = "callback"

// SymbolPrefix prefixes every callback symbol.
const SymbolPrefix = "evm."

// Kind identifies a host callback.
type Kind uint8

const (
	SLoad Kind = iota
	SStore
	Balance
	BlockHash
	SHA3
	Call
	Create
	Log
	ExtCode

	numKinds
)

var kindNames = [numKinds]string{
	SLoad:     "sload",
	SStore:    "sstore",
	Balance:   "balance",
	BlockHash: "blockhash",
	SHA3:      "sha3",
	Call:      "call",
	Create:    "create",
	Log:       "log",
	ExtCode:   "extcode",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Symbol returns the external symbol name of the callback.
func (k Kind) Symbol() string { return SymbolPrefix + k.String() }

// Kinds lists all callbacks.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

type signature struct {
	typ      *ir.FuncType
	readOnly []int // pointer params the host only reads
}

// Callbacks holds the callback signatures of one session.
type Callbacks struct {
	sigs  [numKinds]signature
	attrs *attrs.Attrs
}

// Get returns the session's callback signatures.
func Get(r *provider.Registry) (*Callbacks, error) {
	return provider.Lookup(r, key, build)
}

func build(r *provider.Registry) (*Callbacks, error) {
	ts, err := evmtypes.Get(r)
	if err != nil {
		return nil, err
	}
	e, err := env.Get(r)
	if err != nil {
		return nil, err
	}
	as, err := attrs.Get(r)
	if err != nil {
		return nil, err
	}
	c := r.Context()
	envp, wordp, bytep := e.PtrType(), ts.WordPtr, ts.BytePtr
	fn := func(ret ir.Type, params ...ir.Type) *ir.FuncType { return c.FuncOf(ret, params, false) }

	cb := &Callbacks{attrs: as}
	cb.sigs = [numKinds]signature{
		// (env, key, out)
		SLoad: {typ: fn(ts.Void, envp, wordp, wordp), readOnly: []int{1}},
		// (env, key, value)
		SStore: {typ: fn(ts.Void, envp, wordp, wordp), readOnly: []int{1, 2}},
		// (env, address, out)
		Balance: {typ: fn(ts.Void, envp, wordp, wordp), readOnly: []int{1}},
		// (env, number, out)
		BlockHash: {typ: fn(ts.Void, envp, ts.Size, wordp)},
		// (data, size, out)
		SHA3: {typ: fn(ts.Void, bytep, ts.Size, wordp), readOnly: []int{0}},
		// (env, gas, address, value, in, inSize, out, outSize) -> success
		Call: {typ: fn(ts.Bool, envp, ts.GasPtr, wordp, wordp, bytep, ts.Size, bytep, ts.Size), readOnly: []int{2, 3, 4}},
		// (env, gas, endowment, init, initSize, out)
		Create: {typ: fn(ts.Void, envp, ts.GasPtr, wordp, bytep, ts.Size, wordp), readOnly: []int{2, 3}},
		// (env, data, size, topics, numTopics)
		Log: {typ: fn(ts.Void, envp, bytep, ts.Size, wordp, ts.Size), readOnly: []int{1, 3}},
		// (env, address, outSize) -> code
		ExtCode: {typ: fn(bytep, envp, wordp, ts.SizePtr), readOnly: []int{1}},
	}
	return cb, nil
}

// Type returns the function type of callback k.
func (cb *Callbacks) Type(k Kind) (*ir.FuncType, bool) {
	if k >= numKinds {
		return nil, false
	}
	return cb.sigs[k].typ, true
}

// Declare adds the external declaration of k to m, or returns the existing
// one. A same-named function with a different signature is an error.
func (cb *Callbacks) Declare(m *ir.Module, k Kind) (*ir.Function, error) {
	if k >= numKinds {
		return nil, fmt.Errorf("unknown callback %s", k)
	}
	sig := cb.sigs[k]
	if f, ok := m.Function(k.Symbol()); ok {
		if f.Signature() != sig.typ {
			return nil, fmt.Errorf("callback %s: module already has @%s of type %s", k, f.Name(), f.Signature())
		}
		return f, nil
	}
	f, err := m.AddFunction(k.Symbol(), sig.typ)
	if err != nil {
		return nil, fmt.Errorf("declare callback %s: %w", k, err)
	}
	f.AddFnAttrs(cb.attrs.Callback)
	for _, i := range sig.readOnly {
		if err := f.AddParamAttrs(i, cb.attrs.ReadOnlyParam); err != nil {
			return nil, fmt.Errorf("declare callback %s: %w", k, err)
		}
	}
	return f, nil
}

// DeclareAll declares every callback in m.
func (cb *Callbacks) DeclareAll(m *ir.Module) ([]*ir.Function, error) {
	out := make([]*ir.Function, 0, numKinds)
	for _, k := range Kinds() {
		f, err := cb.Declare(m, k)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
