package runtime

import (
	"fmt"

	"evmjit/internal/abi"
	"evmjit/internal/ir"
	"evmjit/internal/jit/rtdata"
)

// FieldExtractor unpacks the Runtime argument of the function the builder
// is positioned in. Construction emits, at the cursor:
//
//	%dataPtr = load RuntimeData*   (field 0)
//	%mem     = gep Memory          (field 2, address only)
//	%env     = load Env*           (field 1)
//	%data    = load RuntimeData
//	%gas ... %depth = extractvalue (one per RuntimeData field)
//
// After that every accessor is a plain read of an already emitted value.
type FieldExtractor struct {
	rt      *Type
	fn      *ir.Function
	dataPtr ir.Value
	envPtr  ir.Value
	memAddr ir.Value
	data    ir.Value
	fields  [rtdata.NumFields]ir.Value
}

// NewFieldExtractor validates the builder position and the function's first
// parameter against rt, then emits the extraction sequence. All validation
// happens before the first instruction, so a failure leaves the block as it
// was. ABI disagreements are *abi.MismatchError values; an insertion block
// that already ends in a terminator is reported as ir.ErrBlockTerminated.
func NewFieldExtractor(b *ir.Builder, rt *Type) (*FieldExtractor, error) {
	fn, runtimeArg, err := checkPosition(b, rt)
	if err != nil {
		return nil, err
	}
	if err := checkRecords(rt, fn); err != nil {
		return nil, err
	}

	fe := &FieldExtractor{rt: rt, fn: fn}
	rtAcc := abi.NewRecordAccessor(b, rt.st, Schema)
	if fe.dataPtr, err = rtAcc.LoadField(runtimeArg, DataPtrIndex, rt.data.PtrType(), "dataPtr"); err != nil {
		return nil, err
	}
	if fe.memAddr, err = rtAcc.FieldAddr(runtimeArg, MemIndex, rt.mem.StructType(), "mem"); err != nil {
		return nil, err
	}
	if fe.envPtr, err = rtAcc.LoadField(runtimeArg, EnvPtrIndex, rt.env.PtrType(), "env"); err != nil {
		return nil, err
	}

	dataAcc := abi.NewRecordAccessor(b, rt.data.StructType(), rtdata.Schema)
	if fe.data, err = dataAcc.Load(fe.dataPtr, "data"); err != nil {
		return nil, err
	}
	for _, f := range rtdata.Fields() {
		want, _ := rt.data.FieldType(f)
		v, err := dataAcc.Extract(fe.data, f.Index(), want, f.Name())
		if err != nil {
			return nil, err
		}
		fe.fields[f] = v
	}
	return fe, nil
}

func checkPosition(b *ir.Builder, rt *Type) (*ir.Function, ir.Value, error) {
	bb := b.InsertBlock()
	if bb == nil {
		return nil, nil, &abi.MismatchError{Kind: abi.MismatchNoInsertBlock, Index: -1}
	}
	fn := bb.Parent()
	if fn == nil {
		return nil, nil, &abi.MismatchError{Kind: abi.MismatchNoFunction, Index: -1}
	}
	if bb.Terminated() {
		return nil, nil, fmt.Errorf("extract runtime fields in @%s: %%%s: %w", fn.Name(), bb.Name(), ir.ErrBlockTerminated)
	}
	arg, ok := fn.FirstParam()
	if !ok {
		return nil, nil, &abi.MismatchError{Kind: abi.MismatchNoParams, Func: fn.Name(), Index: -1}
	}
	// Pointer identity also rejects a Runtime* from another session.
	if arg.Type() != ir.Type(rt.ptr) {
		return nil, nil, &abi.MismatchError{
			Kind:  abi.MismatchParamType,
			Func:  fn.Name(),
			Index: 0,
			Want:  rt.ptr,
			Got:   arg.Type(),
		}
	}
	return fn, arg, nil
}

// checkRecords confirms the field types the extraction relies on, so that
// emission cannot stop halfway.
func checkRecords(rt *Type, fn *ir.Function) error {
	want := [...]ir.Type{
		DataPtrIndex: rt.data.PtrType(),
		EnvPtrIndex:  rt.env.PtrType(),
		MemIndex:     rt.mem.StructType(),
	}
	for i, w := range want {
		got, _ := rt.st.Field(i)
		if got != w {
			return &abi.MismatchError{
				Kind:  abi.MismatchFieldType,
				Func:  fn.Name(),
				Field: Schema.Fields[i].Name,
				Index: i,
				Want:  w,
				Got:   got,
			}
		}
	}
	if !rtdata.IsRuntimeDataType(rt.data.StructType()) {
		return &abi.MismatchError{Kind: abi.MismatchRecordType, Func: fn.Name(), Field: "data", Index: DataPtrIndex, Got: rt.data.StructType()}
	}
	return nil
}

// Function returns the function the extractor was built in.
func (fe *FieldExtractor) Function() *ir.Function { return fe.fn }

// Runtime returns the Runtime record the extractor was built against.
func (fe *FieldExtractor) Runtime() *Type { return fe.rt }

// DataPtr returns the loaded RuntimeData* value.
func (fe *FieldExtractor) DataPtr() ir.Value { return fe.dataPtr }

// EnvPtr returns the loaded Env* value.
func (fe *FieldExtractor) EnvPtr() ir.Value { return fe.envPtr }

// MemAddr returns the address of the Memory record inside Runtime.
func (fe *FieldExtractor) MemAddr() ir.Value { return fe.memAddr }

// Data returns the loaded RuntimeData record value.
func (fe *FieldExtractor) Data() ir.Value { return fe.data }

// Field returns the extracted value of f, or nil for an unknown field.
func (fe *FieldExtractor) Field(f rtdata.Field) ir.Value {
	if f.Index() >= rtdata.NumFields {
		return nil
	}
	return fe.fields[f]
}

// Gas returns the remaining gas (i64).
func (fe *FieldExtractor) Gas() ir.Value { return fe.fields[rtdata.Gas] }

// GasPrice returns the transaction gas price (i64).
func (fe *FieldExtractor) GasPrice() ir.Value { return fe.fields[rtdata.GasPrice] }

// CallData returns the pointer to the input bytes.
func (fe *FieldExtractor) CallData() ir.Value { return fe.fields[rtdata.CallData] }

// CallDataSize returns the input length in bytes.
func (fe *FieldExtractor) CallDataSize() ir.Value { return fe.fields[rtdata.CallDataSize] }

// Value returns the wei transferred with the call (i256).
func (fe *FieldExtractor) Value() ir.Value { return fe.fields[rtdata.Value] }

// Code returns the pointer to the executing contract's bytecode.
func (fe *FieldExtractor) Code() ir.Value { return fe.fields[rtdata.Code] }

// CodeSize returns the bytecode length in bytes.
func (fe *FieldExtractor) CodeSize() ir.Value { return fe.fields[rtdata.CodeSize] }

// Address returns the address of the executing contract (i256).
func (fe *FieldExtractor) Address() ir.Value { return fe.fields[rtdata.Address] }

// Depth returns the call depth (i64).
func (fe *FieldExtractor) Depth() ir.Value { return fe.fields[rtdata.Depth] }

// Sender returns the caller address, i.e. the RuntimeData caller field.
func (fe *FieldExtractor) Sender() ir.Value { return fe.fields[rtdata.Caller] }
