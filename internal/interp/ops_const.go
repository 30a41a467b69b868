package interp

import (
	"fmt"
	"math"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/native"
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

func init() {
	handlers[opcode.NOP] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		return ctrlContinue, rt.Value{}, nil
	}
	handlers[opcode.ACONST_NULL] = pushConst(rt.NullRef)
	for i, op := range []byte{opcode.ICONST_M1, opcode.ICONST_0, opcode.ICONST_1, opcode.ICONST_2, opcode.ICONST_3, opcode.ICONST_4, opcode.ICONST_5} {
		handlers[op] = pushConst(rt.Int(int32(i - 1)))
	}
	handlers[opcode.LCONST_0] = pushConst(rt.Long(0))
	handlers[opcode.LCONST_1] = pushConst(rt.Long(1))
	handlers[opcode.FCONST_0] = pushConst(rt.Float(0))
	handlers[opcode.FCONST_1] = pushConst(rt.Float(1))
	handlers[opcode.FCONST_2] = pushConst(rt.Float(2))
	handlers[opcode.DCONST_0] = pushConst(rt.Double(0))
	handlers[opcode.DCONST_1] = pushConst(rt.Double(1))

	// BIPUSH/SIPUSH sign-extend their immediate (int8/int16 -> int32).
	// The original source masked with 0xFF/0xFFFF instead, which turns
	// negative immediates into large positive ones; spec.md §4.5.2
	// requires sign extension, so that is what is implemented here.
	handlers[opcode.BIPUSH] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		v := int32(int8(f.Code.Code[f.PC+1]))
		f.PC += 2
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(v))
	}
	handlers[opcode.SIPUSH] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		v := int32(s16be(f.Code.Code, f.PC+1))
		f.PC += 3
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(v))
	}

	handlers[opcode.LDC] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := uint16(f.Code.Code[f.PC+1])
		f.PC += 2
		return ctrlContinue, rt.Value{}, loadConstant(vm, f, idx)
	}
	handlers[opcode.LDC_W] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := u16be(f.Code.Code, f.PC+1)
		f.PC += 3
		return ctrlContinue, rt.Value{}, loadConstant(vm, f, idx)
	}
	handlers[opcode.LDC2_W] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := u16be(f.Code.Code, f.PC+1)
		f.PC += 3
		return ctrlContinue, rt.Value{}, loadConstant(vm, f, idx)
	}
}

func pushConst(v rt.Value) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		return ctrlContinue, rt.Value{}, f.Push(v)
	}
}

// loadConstant resolves a pool entry for LDC/LDC_W/LDC2_W and pushes
// the typed value. Strings allocate a heap reference whose payload is
// the Utf8 bytes themselves (spec.md §4.5.2).
func loadConstant(vm *rt.VM, f *rt.Frame, idx uint16) error {
	e, err := f.Class.Pool.CheckIndex(idx,
		classfile.TagInteger, classfile.TagFloat, classfile.TagString,
		classfile.TagLong, classfile.TagDouble, classfile.TagClass)
	if err != nil {
		return err
	}
	switch e.Tag {
	case classfile.TagInteger:
		return f.Push(rt.Int(int32(e.Bits32)))
	case classfile.TagFloat:
		return f.Push(rt.Float(math.Float32frombits(e.Bits32)))
	case classfile.TagLong:
		return f.Push(rt.Long(int64(uint64(e.BitsHi)<<32 | uint64(e.BitsLo))))
	case classfile.TagDouble:
		return f.Push(rt.Double(math.Float64frombits(uint64(e.BitsHi)<<32 | uint64(e.BitsLo))))
	case classfile.TagString:
		s, err := f.Class.Pool.UTF8At(e.NameIndex)
		if err != nil {
			return err
		}
		return f.Push(native.NewString(vm, s))
	case classfile.TagClass:
		return fmt.Errorf("ldc of Class constants is not implemented")
	}
	return fmt.Errorf("ldc: unreachable tag %v", e.Tag)
}
