package interp

import (
	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// INVOKEVIRTUAL and INVOKESTATIC both read a 2-byte MethodRef index
// and hand off to Invoke/InvokeStatic, pushing a result onto the
// caller's stack when the descriptor returns non-void.
func init() {
	handlers[opcode.INVOKEVIRTUAL] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := u16be(f.Code.Code, f.PC+1)
		f.PC += 3
		v, hasResult, err := Invoke(vm, f.Class.Pool, idx, classfile.AccNone)
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if hasResult {
			return ctrlContinue, rt.Value{}, f.Push(v)
		}
		return ctrlContinue, rt.Value{}, nil
	}
	handlers[opcode.INVOKESTATIC] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := u16be(f.Code.Code, f.PC+1)
		f.PC += 3
		v, hasResult, err := InvokeStatic(vm, f.Class.Pool, idx)
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		if hasResult {
			return ctrlContinue, rt.Value{}, f.Push(v)
		}
		return ctrlContinue, rt.Value{}, nil
	}
}
