package interp

import (
	"fmt"

	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

func init() {
	registerLoad(opcode.ILOAD, []byte{opcode.ILOAD_0, opcode.ILOAD_1, opcode.ILOAD_2, opcode.ILOAD_3})
	registerLoad(opcode.LLOAD, []byte{opcode.LLOAD_0, opcode.LLOAD_1, opcode.LLOAD_2, opcode.LLOAD_3})
	registerLoad(opcode.FLOAD, []byte{opcode.FLOAD_0, opcode.FLOAD_1, opcode.FLOAD_2, opcode.FLOAD_3})
	registerLoad(opcode.DLOAD, []byte{opcode.DLOAD_0, opcode.DLOAD_1, opcode.DLOAD_2, opcode.DLOAD_3})
	registerLoad(opcode.ALOAD, []byte{opcode.ALOAD_0, opcode.ALOAD_1, opcode.ALOAD_2, opcode.ALOAD_3})

	registerStore(opcode.ISTORE, []byte{opcode.ISTORE_0, opcode.ISTORE_1, opcode.ISTORE_2, opcode.ISTORE_3})
	registerStore(opcode.LSTORE, []byte{opcode.LSTORE_0, opcode.LSTORE_1, opcode.LSTORE_2, opcode.LSTORE_3})
	registerStore(opcode.FSTORE, []byte{opcode.FSTORE_0, opcode.FSTORE_1, opcode.FSTORE_2, opcode.FSTORE_3})
	registerStore(opcode.DSTORE, []byte{opcode.DSTORE_0, opcode.DSTORE_1, opcode.DSTORE_2, opcode.DSTORE_3})
	registerStore(opcode.ASTORE, []byte{opcode.ASTORE_0, opcode.ASTORE_1, opcode.ASTORE_2, opcode.ASTORE_3})

	handlers[opcode.IALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Int(e.Payload.ArrayOfI32[i]) })
	handlers[opcode.BALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Int(e.Payload.ArrayOfI32[i]) })
	handlers[opcode.CALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Int(e.Payload.ArrayOfI32[i]) })
	handlers[opcode.SALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Int(e.Payload.ArrayOfI32[i]) })
	handlers[opcode.LALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Long(e.Payload.ArrayOfI64[i]) })
	handlers[opcode.FALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Float(e.Payload.ArrayOfF32[i]) })
	handlers[opcode.DALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Double(e.Payload.ArrayOfF64[i]) })
	handlers[opcode.AALOAD] = arrayLoad(func(e *rt.HeapEntry, i int32) rt.Value { return rt.Ref(e.Payload.ArrayOfRef[i]) })

	handlers[opcode.IASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfI32[i] = v.I32 })
	handlers[opcode.BASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfI32[i] = v.I32 })
	handlers[opcode.CASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfI32[i] = v.I32 })
	handlers[opcode.SASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfI32[i] = v.I32 })
	handlers[opcode.LASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfI64[i] = v.I64 })
	handlers[opcode.FASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfF32[i] = v.F32 })
	handlers[opcode.DASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfF64[i] = v.F64 })
	handlers[opcode.AASTORE] = arrayStore(func(e *rt.HeapEntry, i int32, v rt.Value) { e.Payload.ArrayOfRef[i] = v.Ref })

	handlers[opcode.ARRAYLENGTH] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		ref, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if ref.Ref == nil {
			panic("null pointer: arraylength on null array reference")
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(ref.Ref.Nmemb))
	}
}

// registerLoad wires both the two-byte ILOAD-family opcode and its
// four zero-operand ILOAD_0..3 shorthand forms to the same behavior.
func registerLoad(wide byte, shorthand []byte) {
	handlers[wide] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := int(f.Code.Code[f.PC+1])
		f.PC += 2
		return ctrlContinue, rt.Value{}, f.Push(f.Local(idx))
	}
	for i, op := range shorthand {
		idx := i
		handlers[op] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
			f.PC++
			return ctrlContinue, rt.Value{}, f.Push(f.Local(idx))
		}
	}
}

func registerStore(wide byte, shorthand []byte) {
	handlers[wide] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := int(f.Code.Code[f.PC+1])
		f.PC += 2
		v, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		f.SetLocal(idx, v)
		return ctrlContinue, rt.Value{}, nil
	}
	for i, op := range shorthand {
		idx := i
		handlers[op] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
			f.PC++
			v, err := f.Pop()
			if err != nil {
				return ctrlContinue, rt.Value{}, err
			}
			f.SetLocal(idx, v)
			return ctrlContinue, rt.Value{}, nil
		}
	}
}

// arrayLoad builds a handler for one *ALOAD opcode. Every array
// access validates the reference is non-null and the index is in
// bounds before touching the payload; spec.md §7 documents these as
// placeholder conditions deliberately left as panics rather than a
// modeled Java exception.
func arrayLoad(get func(e *rt.HeapEntry, i int32) rt.Value) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		idxVal, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		ref, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		e := checkArrayAccess(ref, idxVal.I32)
		return ctrlContinue, rt.Value{}, f.Push(get(e, idxVal.I32))
	}
}

func arrayStore(set func(e *rt.HeapEntry, i int32, v rt.Value)) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		v, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		idxVal, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		ref, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		e := checkArrayAccess(ref, idxVal.I32)
		set(e, idxVal.I32, v)
		return ctrlContinue, rt.Value{}, nil
	}
}

func checkArrayAccess(ref rt.Value, index int32) *rt.HeapEntry {
	if ref.Ref == nil {
		panic("null pointer: array access on null reference")
	}
	if index < 0 || index >= ref.Ref.Nmemb {
		panic(fmt.Sprintf("array index out of bounds: index %d, length %d", index, ref.Ref.Nmemb))
	}
	return ref.Ref
}
