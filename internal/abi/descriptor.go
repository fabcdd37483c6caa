package abi

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"evmjit/internal/ir"
	"evmjit/internal/layout"
)

// Current descriptor schema version - increment when Descriptor format changes
const DescriptorSchemaVersion uint16 = 1

// ErrDescriptorSchema is returned when decoding a descriptor written by an
// incompatible version.
var ErrDescriptorSchema = errors.New("abi descriptor schema version mismatch")

// Descriptor is a host-facing summary of the records shared between generated
// code and the runtime: names, sizes and field offsets for one target. Hosts
// compare it against their own struct definitions before running code.
type Descriptor struct {
	Schema  uint16             `msgpack:"schema" json:"schema"`
	Triple  string             `msgpack:"triple" json:"triple"`
	Records []RecordDescriptor `msgpack:"records" json:"records"`
}

// RecordDescriptor describes one record.
type RecordDescriptor struct {
	Name   string            `msgpack:"name" json:"name"`
	Opaque bool              `msgpack:"opaque" json:"opaque,omitempty"`
	Size   int               `msgpack:"size" json:"size"`
	Align  int               `msgpack:"align" json:"align"`
	Fields []FieldDescriptor `msgpack:"fields" json:"fields,omitempty"`
}

// FieldDescriptor describes one field of a record.
type FieldDescriptor struct {
	Name   string `msgpack:"name" json:"name"`
	Type   string `msgpack:"type" json:"type"`
	Offset int    `msgpack:"offset" json:"offset"`
	Size   int    `msgpack:"size" json:"size"`
}

// DescribeRecord computes the descriptor of st. Field names come from schema.
func DescribeRecord(le *layout.LayoutEngine, st *ir.StructType, schema *Schema) (RecordDescriptor, error) {
	rd := RecordDescriptor{Name: st.Name()}
	if st.IsOpaque() {
		rd.Opaque = true
		rd.Align = 1
		return rd, nil
	}
	l, err := le.LayoutOf(st)
	if err != nil {
		return rd, fmt.Errorf("describe %s: %w", st.String(), err)
	}
	rd.Size = l.Size
	rd.Align = l.Align
	fields := st.Fields()
	rd.Fields = make([]FieldDescriptor, len(fields))
	for i, ft := range fields {
		size, err := le.SizeOf(ft)
		if err != nil {
			return rd, fmt.Errorf("describe %s field %d: %w", st.String(), i, err)
		}
		name := fmt.Sprintf("field%d", i)
		if schema != nil && i < len(schema.Fields) {
			name = schema.Fields[i].Name
		}
		rd.Fields[i] = FieldDescriptor{
			Name:   name,
			Type:   ft.String(),
			Offset: l.FieldOffsets[i],
			Size:   size,
		}
	}
	return rd, nil
}

// Record finds a record by name.
func (d *Descriptor) Record(name string) (*RecordDescriptor, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Records {
		if d.Records[i].Name == name {
			return &d.Records[i], true
		}
	}
	return nil, false
}

// EncodeDescriptor writes d as msgpack.
func EncodeDescriptor(w io.Writer, d *Descriptor) error {
	if d == nil {
		return errors.New("nil descriptor")
	}
	return msgpack.NewEncoder(w).Encode(d)
}

// DecodeDescriptor reads a msgpack descriptor and checks its schema version.
func DecodeDescriptor(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	if err := msgpack.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode abi descriptor: %w", err)
	}
	if d.Schema != DescriptorSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDescriptorSchema, d.Schema, DescriptorSchemaVersion)
	}
	return &d, nil
}

// Diff lists every difference between want and got, in a stable order.
// An empty result means the descriptors are ABI compatible.
func Diff(want, got *Descriptor) []string {
	var diffs []string
	if want == nil || got == nil {
		if want != got {
			diffs = append(diffs, "one descriptor is missing")
		}
		return diffs
	}
	if want.Triple != got.Triple {
		diffs = append(diffs, fmt.Sprintf("target: want %s, got %s", want.Triple, got.Triple))
	}
	for _, wr := range want.Records {
		gr, ok := got.Record(wr.Name)
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s: missing record", wr.Name))
			continue
		}
		diffs = append(diffs, diffRecord(&wr, gr)...)
	}
	for _, gr := range got.Records {
		if _, ok := want.Record(gr.Name); !ok {
			diffs = append(diffs, fmt.Sprintf("%s: unexpected record", gr.Name))
		}
	}
	return diffs
}

func diffRecord(want, got *RecordDescriptor) []string {
	var diffs []string
	if want.Opaque != got.Opaque {
		diffs = append(diffs, fmt.Sprintf("%s: opaque: want %t, got %t", want.Name, want.Opaque, got.Opaque))
	}
	if want.Size != got.Size || want.Align != got.Align {
		diffs = append(diffs, fmt.Sprintf("%s: size/align: want %d/%d, got %d/%d", want.Name, want.Size, want.Align, got.Size, got.Align))
	}
	if len(want.Fields) != len(got.Fields) {
		diffs = append(diffs, fmt.Sprintf("%s: field count: want %d, got %d", want.Name, len(want.Fields), len(got.Fields)))
		return diffs
	}
	for i := range want.Fields {
		wf, gf := want.Fields[i], got.Fields[i]
		if wf != gf {
			diffs = append(diffs, fmt.Sprintf("%s.%s: want %s@%d (%d bytes), got %s %s@%d (%d bytes)",
				want.Name, wf.Name, wf.Type, wf.Offset, wf.Size, gf.Name, gf.Type, gf.Offset, gf.Size))
		}
	}
	return diffs
}
