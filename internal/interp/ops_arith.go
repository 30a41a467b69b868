package interp

import (
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// Integer division truncates toward zero (Go's / already does this
// for signed integers) and remainder satisfies a - (a/b)*b, which is
// exactly Go's %. Shift amounts use only the low 5 bits (32-bit ops)
// or low 6 bits (64-bit ops) of the shift operand, per spec.md §4.5.2.
func init() {
	handlers[opcode.IADD] = binInt(func(a, b int32) int32 { return a + b })
	handlers[opcode.ISUB] = binInt(func(a, b int32) int32 { return a - b })
	handlers[opcode.IMUL] = binInt(func(a, b int32) int32 { return a * b })
	handlers[opcode.IDIV] = binIntChecked(func(a, b int32) int32 { return a / b })
	handlers[opcode.IREM] = binIntChecked(func(a, b int32) int32 { return a % b })
	handlers[opcode.IAND] = binInt(func(a, b int32) int32 { return a & b })
	handlers[opcode.IOR] = binInt(func(a, b int32) int32 { return a | b })
	handlers[opcode.IXOR] = binInt(func(a, b int32) int32 { return a ^ b })
	handlers[opcode.ISHL] = binInt(func(a, b int32) int32 { return a << (uint32(b) & 0x1F) })
	handlers[opcode.ISHR] = binInt(func(a, b int32) int32 { return a >> (uint32(b) & 0x1F) })
	handlers[opcode.IUSHR] = binInt(func(a, b int32) int32 { return int32(uint32(a) >> (uint32(b) & 0x1F)) })
	handlers[opcode.INEG] = unInt(func(a int32) int32 { return -a })

	handlers[opcode.LADD] = binLong(func(a, b int64) int64 { return a + b })
	handlers[opcode.LSUB] = binLong(func(a, b int64) int64 { return a - b })
	handlers[opcode.LMUL] = binLong(func(a, b int64) int64 { return a * b })
	handlers[opcode.LDIV] = binLongChecked(func(a, b int64) int64 { return a / b })
	handlers[opcode.LREM] = binLongChecked(func(a, b int64) int64 { return a % b })
	handlers[opcode.LAND] = binLong(func(a, b int64) int64 { return a & b })
	handlers[opcode.LOR] = binLong(func(a, b int64) int64 { return a | b })
	handlers[opcode.LXOR] = binLong(func(a, b int64) int64 { return a ^ b })
	handlers[opcode.LNEG] = unLong(func(a int64) int64 { return -a })

	// shift distances for long ops come from an int operand, masked
	// to the low 6 bits, shifting the long.
	handlers[opcode.LSHL] = shiftLong(func(a int64, s uint) int64 { return a << s }, 0x3F)
	handlers[opcode.LSHR] = shiftLong(func(a int64, s uint) int64 { return a >> s }, 0x3F)
	handlers[opcode.LUSHR] = shiftLong(func(a int64, s uint) int64 { return int64(uint64(a) >> s) }, 0x3F)

	handlers[opcode.FADD] = binFloat(func(a, b float32) float32 { return a + b })
	handlers[opcode.FSUB] = binFloat(func(a, b float32) float32 { return a - b })
	handlers[opcode.FMUL] = binFloat(func(a, b float32) float32 { return a * b })
	handlers[opcode.FDIV] = binFloat(func(a, b float32) float32 { return a / b })
	handlers[opcode.FREM] = binFloat(fremF32)
	handlers[opcode.FNEG] = unFloat(func(a float32) float32 { return -a })

	handlers[opcode.DADD] = binDouble(func(a, b float64) float64 { return a + b })
	handlers[opcode.DSUB] = binDouble(func(a, b float64) float64 { return a - b })
	handlers[opcode.DMUL] = binDouble(func(a, b float64) float64 { return a * b })
	handlers[opcode.DDIV] = binDouble(func(a, b float64) float64 { return a / b })
	handlers[opcode.DREM] = binDouble(fremF64)
	handlers[opcode.DNEG] = unDouble(func(a float64) float64 { return -a })

	handlers[opcode.IINC] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := int(f.Code.Code[f.PC+1])
		delta := int32(int8(f.Code.Code[f.PC+2]))
		f.PC += 3
		cur := f.Local(idx)
		f.SetLocal(idx, rt.Int(cur.I32+delta))
		return ctrlContinue, rt.Value{}, nil
	}
}

func fremF32(a, b float32) float32 {
	q := float32(int64(a / b))
	return a - q*b
}

func fremF64(a, b float64) float64 {
	q := float64(int64(a / b))
	return a - q*b
}

func binInt(fn func(a, b int32) int32) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(fn(a.I32, b.I32)))
	}
}

func binIntChecked(fn func(a, b int32) int32) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if b.I32 == 0 {
			panic("division by zero")
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(fn(a.I32, b.I32)))
	}
}

func unInt(fn func(a int32) int32) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(fn(a.I32)))
	}
}

func binLong(fn func(a, b int64) int64) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Long(fn(a.I64, b.I64)))
	}
}

func binLongChecked(fn func(a, b int64) int64) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if b.I64 == 0 {
			panic("division by zero")
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Long(fn(a.I64, b.I64)))
	}
}

func shiftLong(fn func(a int64, s uint) int64, mask uint) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		shiftVal, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		s := uint(shiftVal.I32) & mask
		return ctrlContinue, rt.Value{}, f.Push(rt.Long(fn(a.I64, s)))
	}
}

func unLong(fn func(a int64) int64) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Long(fn(a.I64)))
	}
}

func binFloat(fn func(a, b float32) float32) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Float(fn(a.F32, b.F32)))
	}
}

func unFloat(fn func(a float32) float32) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Float(fn(a.F32)))
	}
}

func binDouble(fn func(a, b float64) float64) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Double(fn(a.F64, b.F64)))
	}
}

func unDouble(fn func(a float64) float64) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Double(fn(a.F64)))
	}
}
