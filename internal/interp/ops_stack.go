package interp

import (
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// Stack manipulation treats every value as a single slot on the
// operand stack, per spec.md §4.5.2 — no distinction between
// "category 1" and "category 2" forms. POP2/DUP2 variants operate on
// two consecutive single slots rather than tracking per-value width.
func init() {
	handlers[opcode.POP] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		_, err := f.Pop()
		return ctrlContinue, rt.Value{}, err
	}
	handlers[opcode.POP2] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		if _, err := f.Pop(); err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		_, err := f.Pop()
		return ctrlContinue, rt.Value{}, err
	}
	handlers[opcode.DUP] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		v, err := f.Peek()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(v)
	}
	handlers[opcode.DUP_X1] = dupX(1)
	handlers[opcode.DUP_X2] = dupX(2)
	handlers[opcode.DUP2] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		if f.NStack < 2 {
			return ctrlContinue, rt.Value{}, rt.ErrStackUnderflow
		}
		a, b := f.Stack[f.NStack-2], f.Stack[f.NStack-1]
		if err := f.Push(a); err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(b)
	}
	handlers[opcode.DUP2_X1] = dup2X(1)
	handlers[opcode.DUP2_X2] = dup2X(2)
	handlers[opcode.SWAP] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		a, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		b, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if err := f.Push(a); err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(b)
	}
}

// dupX implements DUP_X1 (depth=1) and DUP_X2 (depth=2): duplicate the
// top value and insert the copy depth slots down.
func dupX(depth int) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		if f.NStack < depth+1 {
			return ctrlContinue, rt.Value{}, rt.ErrStackUnderflow
		}
		if f.NStack >= len(f.Stack) {
			return ctrlContinue, rt.Value{}, rt.ErrStackOverflow
		}
		top := f.Stack[f.NStack-1]
		insertAt := f.NStack - 1 - depth
		copy(f.Stack[insertAt+1:f.NStack+1], f.Stack[insertAt:f.NStack])
		f.Stack[insertAt] = top
		f.NStack++
		return ctrlContinue, rt.Value{}, nil
	}
}

// dup2X implements DUP2_X1 (depth=1) and DUP2_X2 (depth=2): duplicate
// the top two values as a pair and insert the copy depth slots down.
func dup2X(depth int) opHandler {
	return func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		f.PC++
		if f.NStack < depth+2 {
			return ctrlContinue, rt.Value{}, rt.ErrStackUnderflow
		}
		if f.NStack+1 >= len(f.Stack) {
			return ctrlContinue, rt.Value{}, rt.ErrStackOverflow
		}
		a, b := f.Stack[f.NStack-2], f.Stack[f.NStack-1]
		insertAt := f.NStack - 2 - depth
		copy(f.Stack[insertAt+2:f.NStack+2], f.Stack[insertAt:f.NStack])
		f.Stack[insertAt] = a
		f.Stack[insertAt+1] = b
		f.NStack += 2
		return ctrlContinue, rt.Value{}, nil
	}
}
