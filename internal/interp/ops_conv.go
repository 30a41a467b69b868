package interp

import (
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// Conversions are value-preserving widenings or truncating
// narrowings per JVM §6.5. I2B and I2S must sign-extend their result
// back to int32 (the original source instead masked with 0xFF/0xFFFF,
// which loses the sign for negative narrow values) — SPEC_FULL §8's
// fix is applied here directly.
func init() {
	handlers[opcode.I2L] = conv(func(v rt.Value) rt.Value { return rt.Long(int64(v.I32)) })
	handlers[opcode.I2F] = conv(func(v rt.Value) rt.Value { return rt.Float(float32(v.I32)) })
	handlers[opcode.I2D] = conv(func(v rt.Value) rt.Value { return rt.Double(float64(v.I32)) })
	handlers[opcode.L2I] = conv(func(v rt.Value) rt.Value { return rt.Int(int32(v.I64)) })
	handlers[opcode.L2F] = conv(func(v rt.Value) rt.Value { return rt.Float(float32(v.I64)) })
	handlers[opcode.L2D] = conv(func(v rt.Value) rt.Value { return rt.Double(float64(v.I64)) })
	handlers[opcode.F2I] = conv(func(v rt.Value) rt.Value { return rt.Int(int32(v.F32)) })
	handlers[opcode.F2L] = conv(func(v rt.Value) rt.Value { return rt.Long(int64(v.F32)) })
	handlers[opcode.F2D] = conv(func(v rt.Value) rt.Value { return rt.Double(float64(v.F32)) })
	handlers[opcode.D2I] = conv(func(v rt.Value) rt.Value { return rt.Int(int32(v.F64)) })
	handlers[opcode.D2L] = conv(func(v rt.Value) rt.Value { return rt.Long(int64(v.F64)) })
	handlers[opcode.D2F] = conv(func(v rt.Value) rt.Value { return rt.Float(float32(v.F64)) })
	handlers[opcode.I2B] = conv(func(v rt.Value) rt.Value { return rt.Int(int32(int8(v.I32))) })
	handlers[opcode.I2C] = conv(func(v rt.Value) rt.Value { return rt.Int(int32(uint16(v.I32))) })
	handlers[opcode.I2S] = conv(func(v rt.Value) rt.Value { return rt.Int(int32(int16(v.I32))) })
}

func conv(fn func(rt.Value) rt.Value) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		v, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(fn(v))
	}
}
