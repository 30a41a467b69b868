package interp

import (
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// Branch operands are a signed 16-bit offset (32-bit for the _W
// forms) added to the branch opcode's own pc, per spec.md §4.5.2.
func init() {
	handlers[opcode.IFEQ] = ifInt(func(v int32) bool { return v == 0 })
	handlers[opcode.IFNE] = ifInt(func(v int32) bool { return v != 0 })
	handlers[opcode.IFLT] = ifInt(func(v int32) bool { return v < 0 })
	handlers[opcode.IFGE] = ifInt(func(v int32) bool { return v >= 0 })
	handlers[opcode.IFGT] = ifInt(func(v int32) bool { return v > 0 })
	handlers[opcode.IFLE] = ifInt(func(v int32) bool { return v <= 0 })

	handlers[opcode.IF_ICMPEQ] = ifICmp(func(a, b int32) bool { return a == b })
	handlers[opcode.IF_ICMPNE] = ifICmp(func(a, b int32) bool { return a != b })
	handlers[opcode.IF_ICMPLT] = ifICmp(func(a, b int32) bool { return a < b })
	handlers[opcode.IF_ICMPGE] = ifICmp(func(a, b int32) bool { return a >= b })
	handlers[opcode.IF_ICMPGT] = ifICmp(func(a, b int32) bool { return a > b })
	handlers[opcode.IF_ICMPLE] = ifICmp(func(a, b int32) bool { return a <= b })

	handlers[opcode.IF_ACMPEQ] = ifACmp(func(a, b *rt.HeapEntry) bool { return a == b })
	handlers[opcode.IF_ACMPNE] = ifACmp(func(a, b *rt.HeapEntry) bool { return a != b })

	handlers[opcode.IFNULL] = ifRef(func(r *rt.HeapEntry) bool { return r == nil })
	handlers[opcode.IFNONNULL] = ifRef(func(r *rt.HeapEntry) bool { return r != nil })

	handlers[opcode.GOTO] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		offset := int(s16be(f.Code.Code, f.PC+1))
		f.PC += offset
		return ctrlContinue, rt.Value{}, nil
	}
	handlers[opcode.GOTO_W] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		offset := int(s32be(f.Code.Code, f.PC+1))
		f.PC += offset
		return ctrlContinue, rt.Value{}, nil
	}
	handlers[opcode.JSR] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		ret := f.PC + 3
		offset := int(s16be(f.Code.Code, f.PC+1))
		if err := f.Push(rt.Int(int32(ret))); err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		f.PC += offset
		return ctrlContinue, rt.Value{}, nil
	}
	handlers[opcode.JSR_W] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		ret := f.PC + 5
		offset := int(s32be(f.Code.Code, f.PC+1))
		if err := f.Push(rt.Int(int32(ret))); err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		f.PC += offset
		return ctrlContinue, rt.Value{}, nil
	}
	handlers[opcode.RET] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := int(f.Code.Code[f.PC+1])
		f.PC = int(f.Local(idx).I32)
		return ctrlContinue, rt.Value{}, nil
	}

	handlers[opcode.TABLESWITCH] = tableswitch
	handlers[opcode.LOOKUPSWITCH] = lookupswitch
}

func ifInt(pred func(int32) bool) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		pc := f.PC
		v, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if pred(v.I32) {
			f.PC = pc + int(s16be(f.Code.Code, pc+1))
		} else {
			f.PC = pc + 3
		}
		return ctrlContinue, rt.Value{}, nil
	}
}

func ifICmp(pred func(a, b int32) bool) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		pc := f.PC
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if pred(a.I32, b.I32) {
			f.PC = pc + int(s16be(f.Code.Code, pc+1))
		} else {
			f.PC = pc + 3
		}
		return ctrlContinue, rt.Value{}, nil
	}
}

func ifACmp(pred func(a, b *rt.HeapEntry) bool) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		pc := f.PC
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if pred(a.Ref, b.Ref) {
			f.PC = pc + int(s16be(f.Code.Code, pc+1))
		} else {
			f.PC = pc + 3
		}
		return ctrlContinue, rt.Value{}, nil
	}
}

func ifRef(pred func(*rt.HeapEntry) bool) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		pc := f.PC
		v, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if pred(v.Ref) {
			f.PC = pc + int(s16be(f.Code.Code, pc+1))
		} else {
			f.PC = pc + 3
		}
		return ctrlContinue, rt.Value{}, nil
	}
}

// tableswitch pads pc to the next 4-byte boundary, reads
// (default, low, high, offsets[high-low+1]), and selects
// offsets[key-low] when low <= key <= high, else default.
func tableswitch(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
	base := f.PC
	code := f.Code.Code
	pad := (4 - (base+1)%4) % 4
	off := base + 1 + pad

	defaultOffset := s32be(code, off)
	low := s32be(code, off+4)
	high := s32be(code, off+8)
	off += 12

	key, err := f.Pop()
	if err != nil {
		return ctrlContinue, rt.Value{}, err
	}

	if key.I32 < low || key.I32 > high {
		f.PC = base + int(defaultOffset)
		return ctrlContinue, rt.Value{}, nil
	}
	entryOffset := s32be(code, off+int(key.I32-low)*4)
	f.PC = base + int(entryOffset)
	return ctrlContinue, rt.Value{}, nil
}

// lookupswitch pads pc to the next 4-byte boundary, reads
// (default, npairs, (match, offset)*npairs), and linearly scans the
// sorted match/offset pairs for key.
func lookupswitch(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
	base := f.PC
	code := f.Code.Code
	pad := (4 - (base+1)%4) % 4
	off := base + 1 + pad

	defaultOffset := s32be(code, off)
	npairs := int(s32be(code, off+4))
	off += 8

	key, err := f.Pop()
	if err != nil {
		return ctrlContinue, rt.Value{}, err
	}

	for i := 0; i < npairs; i++ {
		match := s32be(code, off+i*8)
		if match == key.I32 {
			offset := s32be(code, off+i*8+4)
			f.PC = base + int(offset)
			return ctrlContinue, rt.Value{}, nil
		}
	}
	f.PC = base + int(defaultOffset)
	return ctrlContinue, rt.Value{}, nil
}
