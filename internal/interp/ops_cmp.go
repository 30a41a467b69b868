package interp

import (
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// Comparisons push -1/0/1. NaN operands make FCMPL/DCMPL return -1
// and FCMPG/DCMPG return +1, per spec.md §4.5.2.
func init() {
	handlers[opcode.LCMP] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(cmp64(a.I64, b.I64)))
	}
	handlers[opcode.FCMPL] = fcmp(-1)
	handlers[opcode.FCMPG] = fcmp(1)
	handlers[opcode.DCMPL] = dcmp(-1)
	handlers[opcode.DCMPG] = dcmp(1)
}

func cmp64(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func fcmp(nanResult int32) opHandler {
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
		if a.F32 != a.F32 || b.F32 != b.F32 {
			return ctrlContinue, rt.Value{}, f.Push(rt.Int(nanResult))
		}
		var r int32
		switch {
		case a.F32 < b.F32:
			r = -1
		case a.F32 > b.F32:
			r = 1
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(r))
	}
}

func dcmp(nanResult int32) opHandler {
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
		if a.F64 != a.F64 || b.F64 != b.F64 {
			return ctrlContinue, rt.Value{}, f.Push(rt.Int(nanResult))
		}
		var r int32
		switch {
		case a.F64 < b.F64:
			r = -1
		case a.F64 > b.F64:
			r = 1
		}
		return ctrlContinue, rt.Value{}, f.Push(rt.Int(r))
	}
}
