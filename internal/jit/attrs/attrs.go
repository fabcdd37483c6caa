// Package attrs provides the calling-convention attribute sets attached to
// contract functions, their runtime parameter and host callbacks.
package attrs

import (
	"evmjit/internal/ir"
	"evmjit/internal/jit/provider"
)

const key = "attrs"

// Attrs holds the attribute sets of one session.
type Attrs struct {
	Callback      ir.AttrSet // host callback declarations
	RuntimeParam  ir.AttrSet // the Runtime* parameter of a contract function
	ReadOnlyParam ir.AttrSet // pointer parameters callbacks only read through
	Contract      ir.AttrSet // contract function definitions
}

// Get returns the session's attribute sets.
func Get(r *provider.Registry) (*Attrs, error) {
	return provider.Lookup(r, key, func(*provider.Registry) (*Attrs, error) {
		return &Attrs{
			Callback:      ir.NewAttrSet(ir.AttrNoUnwind),
			RuntimeParam:  ir.NewAttrSet(ir.AttrNoAlias, ir.AttrNoCapture, ir.AttrNonNull),
			ReadOnlyParam: ir.NewAttrSet(ir.AttrReadOnly, ir.AttrNoCapture),
			Contract:      ir.NewAttrSet(ir.AttrNoUnwind),
		}, nil
	})
}
