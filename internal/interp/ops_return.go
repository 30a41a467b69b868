package interp

import (
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// Return opcodes end the current frame's execution. The value-bearing
// forms pop exactly one operand-stack slot and hand it back to Run as
// the method's result; RETURN hands back nothing.
func init() {
	handlers[opcode.IRETURN] = returnValue
	handlers[opcode.LRETURN] = returnValue
	handlers[opcode.FRETURN] = returnValue
	handlers[opcode.DRETURN] = returnValue
	handlers[opcode.ARETURN] = returnValue
	handlers[opcode.RETURN] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		return ctrlReturnVoid, rt.Value{}, nil
	}
}

func returnValue(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
	v, err := f.Pop()
	if err != nil {
		return ctrlContinue, rt.Value{}, err
	}
	return ctrlReturnValue, v, nil
}
