package ir

import (
	"fmt"
	"io"
	"strings"
)

// String renders the module as textual LLVM IR.
func (m *Module) String() string {
	var sb strings.Builder
	if _, err := m.WriteTo(&sb); err != nil {
		return ""
	}
	return sb.String()
}

// WriteTo writes the textual IR of the module to w.
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	p := &printer{}
	p.printf("; ModuleID = '%s'\n", m.name)
	if m.triple != "" {
		p.printf("target triple = \"%s\"\n", m.triple)
	}
	p.printf("\n")

	structs := m.ctx.NamedStructs()
	for _, st := range structs {
		if st.IsOpaque() {
			p.printf("%%%s = type opaque\n", st.name)
			continue
		}
		p.printf("%%%s = type %s\n", st.name, st.BodyString())
	}
	if len(structs) > 0 {
		p.printf("\n")
	}

	for _, f := range m.funcs {
		if f.IsDeclaration() {
			p.printf("declare %s\n", signature(f, false))
		}
	}
	for _, f := range m.funcs {
		if f.IsDeclaration() {
			continue
		}
		p.printf("\ndefine %s {\n", signature(f, true))
		for _, bb := range f.blocks {
			p.printf("%s:\n", bb.name)
			for _, in := range bb.instrs {
				p.printf("  %s\n", formatInstr(in))
			}
		}
		p.printf("}\n")
	}

	n, err := io.WriteString(w, p.sb.String())
	return int64(n), err
}

type printer struct {
	sb strings.Builder
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
}

func signature(f *Function, withNames bool) string {
	params := make([]string, 0, len(f.params)+1)
	for i, prm := range f.params {
		s := prm.typ.String()
		if attrs := f.paramAttrs[i]; attrs.Len() > 0 {
			s += " " + attrs.String()
		}
		if withNames {
			s += " " + prm.operand()
		}
		params = append(params, s)
	}
	if f.typ.variadic {
		params = append(params, "...")
	}
	out := fmt.Sprintf("%s @%s(%s)", f.typ.ret.String(), f.name, strings.Join(params, ", "))
	if f.fnAttrs.Len() > 0 {
		out += " " + f.fnAttrs.String()
	}
	return out
}

func formatInstr(in *Instr) string {
	var body string
	switch in.op {
	case OpLoad:
		ptr := in.operands[0]
		body = fmt.Sprintf("load %s, %s", in.typ.String(), Operand(ptr))
	case OpStore:
		body = fmt.Sprintf("store %s, %s", Operand(in.operands[0]), Operand(in.operands[1]))
	case OpStructGEP:
		ptr := in.operands[0]
		pt, _ := AsPointer(ptr.Type())
		body = fmt.Sprintf("getelementptr inbounds %s, %s, i32 0, i32 %d", pt.elem.String(), Operand(ptr), in.index)
	case OpExtractValue:
		body = fmt.Sprintf("extractvalue %s, %d", Operand(in.operands[0]), in.index)
	case OpCall:
		args := make([]string, len(in.operands))
		for i, a := range in.operands {
			args[i] = Operand(a)
		}
		body = fmt.Sprintf("call %s @%s(%s)", in.typ.String(), in.callee.name, strings.Join(args, ", "))
	case OpRet:
		if len(in.operands) == 0 {
			body = "ret void"
		} else {
			body = "ret " + Operand(in.operands[0])
		}
	default:
		body = in.op.String()
	}
	if in.HasValue() {
		return "%" + in.ident + " = " + body
	}
	return body
}
