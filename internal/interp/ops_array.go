package interp

import (
	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// NEWARRAY allocates a single-dimension primitive array of the size
// popped off the stack, typed by its TypeCode operand byte. ANEWARRAY
// is not implemented (spec.md §4.5.2's Non-goals list — there are no
// object references to populate a reference array with, since NEW
// never runs). MULTIANEWARRAY pops one length per dimension, applying
// the (hi<<8)|lo dimension-byte fix already enforced by the decoder's
// bytecode validation, resolves the array class's leaf element type
// from the constant pool, and builds nested arrays bottom-up.
func init() {
	handlers[opcode.NEWARRAY] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		typeCode := f.Code.Code[f.PC+1]
		f.PC += 2
		n, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if n.I32 < 0 {
			panic("negative array size")
		}
		e := allocPrimitiveArray(vm, typeCode, int(n.I32))
		return ctrlContinue, rt.Value{}, f.Push(rt.Ref(e))
	}

	handlers[opcode.MULTIANEWARRAY] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		code := f.Code.Code
		classIdx := u16be(code, f.PC+1)
		dims := int(code[f.PC+3])
		f.PC += 4

		sizes := make([]int32, dims)
		for i := dims - 1; i >= 0; i-- {
			v, err := f.Pop()
			if err != nil {
				return ctrlContinue, rt.Value{}, err
			}
			if v.I32 < 0 {
				panic("negative array size")
			}
			sizes[i] = v.I32
		}
		elem, err := multiArrayElemKind(f.Class.Pool, classIdx)
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		e := vm.Heap.NewMultiArray(sizes, elem)
		return ctrlContinue, rt.Value{}, f.Push(rt.Ref(e))
	}
}

// multiArrayElemKind resolves MULTIANEWARRAY's class-ref operand to
// the array class's leaf (innermost) element type, per spec.md
// §4.5.2: "L"/"[" leaves are reference-shaped, "D"/"J" leaves are
// 8-byte cells, everything else is the shared int32 cell.
func multiArrayElemKind(pool *classfile.Pool, classIdx uint16) (rt.PayloadKind, error) {
	name, err := pool.ClassNameAt(classIdx)
	if err != nil {
		return 0, err
	}
	tok, _, err := classfile.ParseFieldDescriptor(name)
	if err != nil {
		return 0, err
	}
	for tok.Kind == classfile.DescArray {
		tok = *tok.Elem
	}
	switch tok.Kind {
	case classfile.DescLong:
		return rt.PayloadArrayOfI64, nil
	case classfile.DescDouble:
		return rt.PayloadArrayOfF64, nil
	case classfile.DescFloat:
		return rt.PayloadArrayOfF32, nil
	case classfile.DescRef:
		return rt.PayloadArrayOfRef, nil
	default: // byte, char, int, short, boolean all share the int32 cell
		return rt.PayloadArrayOfI32, nil
	}
}

func allocPrimitiveArray(vm *rt.VM, typeCode byte, n int) *rt.HeapEntry {
	switch typeCode {
	case opcode.TLong:
		return vm.Heap.AllocArrayOfI64(n)
	case opcode.TFloat:
		return vm.Heap.AllocArrayOfF32(n)
	case opcode.TDouble:
		return vm.Heap.AllocArrayOfF64(n)
	default: // TBoolean, TChar, TByte, TShort, TInt all share the int32 cell
		return vm.Heap.AllocArrayOfI32(n)
	}
}
