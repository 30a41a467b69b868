package classfile

import (
	"fmt"

	"github.com/mjvm/mjvm/internal/opcode"
)

// validateCode performs the bytecode structural validation of
// spec.md §4.2 step 5: every instruction must be a recognized opcode
// with a well-formed operand, every branch target must land on an
// instruction boundary within the code array, TABLESWITCH/LOOKUPSWITCH
// padding and ordering must be correct, LDC's pool index must name a
// loadable constant, MULTIANEWARRAY's dimension count must be at
// least 1, and INVOKESTATIC may never target <init> or <clinit>.
func validateCode(code *CodeAttribute, pool *Pool, m *Method) error {
	bc := code.Code
	n := len(bc)
	starts := make([]bool, n)

	pc := 0
	for pc < n {
		starts[pc] = true
		op := bc[pc]

		if op == opcode.WIDE {
			next, err := validateWide(bc, pc)
			if err != nil {
				return err
			}
			pc = next
			continue
		}

		if op == opcode.TABLESWITCH || op == opcode.LOOKUPSWITCH {
			next, err := validateSwitch(bc, pc, op)
			if err != nil {
				return err
			}
			pc = next
			continue
		}

		operandLen := opcode.Len[op]
		if operandLen < 0 {
			return fmt.Errorf("%w: unrecognized opcode %#x at pc=%d", ErrCode, op, pc)
		}
		if pc+1+operandLen > n {
			return fmt.Errorf("%w: truncated instruction at pc=%d", ErrCode, pc)
		}

		if err := validateOperandSemantics(bc, pc, op, pool, m); err != nil {
			return err
		}

		pc += 1 + operandLen
	}

	return validateBranchTargets(bc, starts, code)
}

func validateWide(bc []byte, pc int) (int, error) {
	n := len(bc)
	if pc+1 >= n {
		return 0, fmt.Errorf("%w: truncated wide at pc=%d", ErrCode, pc)
	}
	sub := bc[pc+1]
	switch sub {
	case opcode.IINC:
		if pc+6 > n {
			return 0, fmt.Errorf("%w: truncated wide iinc at pc=%d", ErrCode, pc)
		}
		return pc + 6, nil
	case opcode.ILOAD, opcode.FLOAD, opcode.ALOAD, opcode.LLOAD, opcode.DLOAD,
		opcode.ISTORE, opcode.FSTORE, opcode.ASTORE, opcode.LSTORE, opcode.DSTORE, opcode.RET:
		if pc+4 > n {
			return 0, fmt.Errorf("%w: truncated wide at pc=%d", ErrCode, pc)
		}
		return pc + 4, nil
	default:
		return 0, fmt.Errorf("%w: wide does not support opcode %#x at pc=%d", ErrCode, sub, pc)
	}
}

func validateSwitch(bc []byte, pc int, op byte) (int, error) {
	n := len(bc)
	// operand bytes start at the first 4-byte boundary after pc+1.
	pad := (4 - (pc+1)%4) % 4
	off := pc + 1 + pad
	if off+4 > n {
		return 0, fmt.Errorf("%w: truncated switch at pc=%d", ErrCode, pc)
	}
	defaultOffset := be32(bc[off:])
	_ = defaultOffset
	off += 4

	if op == opcode.TABLESWITCH {
		if off+8 > n {
			return 0, fmt.Errorf("%w: truncated tableswitch at pc=%d", ErrCode, pc)
		}
		low := int32(be32(bc[off:]))
		high := int32(be32(bc[off+4:]))
		off += 8
		if high < low {
			return 0, fmt.Errorf("%w: tableswitch high < low at pc=%d", ErrCode, pc)
		}
		count := int(high-low) + 1
		need := off + count*4
		if need > n {
			return 0, fmt.Errorf("%w: truncated tableswitch jump table at pc=%d", ErrCode, pc)
		}
		return need, nil
	}

	// LOOKUPSWITCH
	if off+4 > n {
		return 0, fmt.Errorf("%w: truncated lookupswitch at pc=%d", ErrCode, pc)
	}
	npairs := int32(be32(bc[off:]))
	if npairs < 0 {
		return 0, fmt.Errorf("%w: lookupswitch negative npairs at pc=%d", ErrCode, pc)
	}
	off += 4
	need := off + int(npairs)*8
	if need > n {
		return 0, fmt.Errorf("%w: truncated lookupswitch pairs at pc=%d", ErrCode, pc)
	}
	for i := 0; i < int(npairs)-1; i++ {
		a := int32(be32(bc[off+i*8:]))
		b := int32(be32(bc[off+(i+1)*8:]))
		if a >= b {
			return 0, fmt.Errorf("%w: lookupswitch match values out of order at pc=%d", ErrCode, pc)
		}
	}
	return need, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// validateOperandSemantics checks the operand rules that depend on
// the constant pool or on the specific opcode, beyond plain byte
// counting: LDC/LDC_W/LDC2_W pool tags, MULTIANEWARRAY dimensions, and
// INVOKESTATIC's <init>/<clinit> rejection.
func validateOperandSemantics(bc []byte, pc int, op byte, pool *Pool, m *Method) error {
	switch op {
	case opcode.LDC:
		idx := uint16(bc[pc+1])
		if _, err := pool.CheckIndex(idx, TagInteger, TagFloat, TagString, TagClass, TagMethodHandle, TagMethodType, TagDynamic); err != nil {
			return fmt.Errorf("%w: ldc pool index %d not loadable, pc=%d", ErrConstant, idx, pc)
		}
	case opcode.LDC_W:
		idx := be16(bc[pc+1:])
		if _, err := pool.CheckIndex(idx, TagInteger, TagFloat, TagString, TagClass, TagMethodHandle, TagMethodType, TagDynamic); err != nil {
			return fmt.Errorf("%w: ldc_w pool index %d not loadable, pc=%d", ErrConstant, idx, pc)
		}
	case opcode.LDC2_W:
		idx := be16(bc[pc+1:])
		if _, err := pool.CheckIndex(idx, TagLong, TagDouble, TagDynamic); err != nil {
			return fmt.Errorf("%w: ldc2_w pool index %d not loadable, pc=%d", ErrConstant, idx, pc)
		}
	case opcode.MULTIANEWARRAY:
		idx := be16(bc[pc+1:])
		if _, err := pool.CheckIndex(idx, TagClass); err != nil {
			return fmt.Errorf("%w: multianewarray class index %d, pc=%d", ErrIndex, idx, pc)
		}
		dims := bc[pc+3]
		if dims < 1 {
			return fmt.Errorf("%w: multianewarray dimensions must be >= 1, pc=%d", ErrCode, pc)
		}
	case opcode.GETSTATIC, opcode.PUTSTATIC, opcode.GETFIELD, opcode.PUTFIELD:
		idx := be16(bc[pc+1:])
		if _, err := pool.CheckIndex(idx, TagFieldref); err != nil {
			return fmt.Errorf("%w: field reference index %d, pc=%d", ErrIndex, idx, pc)
		}
	case opcode.INVOKEVIRTUAL, opcode.INVOKESTATIC:
		idx := be16(bc[pc+1:])
		_, name, _, err := pool.RefAt(idx, TagMethodref)
		if err != nil {
			return fmt.Errorf("%w: method reference index %d, pc=%d", ErrIndex, idx, pc)
		}
		if op == opcode.INVOKESTATIC && (name == "<init>" || name == "<clinit>") {
			return fmt.Errorf("%w: invokestatic may not target %s, pc=%d", ErrMethod, name, pc)
		}
	case opcode.NEWARRAY:
		t := bc[pc+1]
		if t < opcode.TBoolean || t > opcode.TLong {
			return fmt.Errorf("%w: newarray bad type code %d, pc=%d", ErrCode, t, pc)
		}
	}
	return nil
}

// validateBranchTargets re-walks the instruction for every control
// transfer opcode and confirms its target lands on an instruction
// boundary (never mid-instruction or out of bounds).
func validateBranchTargets(bc []byte, starts []bool, code *CodeAttribute) error {
	n := len(bc)
	pc := 0
	for pc < n {
		op := bc[pc]
		switch op {
		case opcode.IFEQ, opcode.IFNE, opcode.IFLT, opcode.IFGE, opcode.IFGT, opcode.IFLE,
			opcode.IF_ICMPEQ, opcode.IF_ICMPNE, opcode.IF_ICMPLT, opcode.IF_ICMPGE,
			opcode.IF_ICMPGT, opcode.IF_ICMPLE, opcode.IF_ACMPEQ, opcode.IF_ACMPNE,
			opcode.GOTO, opcode.JSR, opcode.IFNULL, opcode.IFNONNULL:
			target := pc + int(int16(be16(bc[pc+1:])))
			if err := checkTarget(target, starts); err != nil {
				return err
			}
			pc += 3
		case opcode.GOTO_W, opcode.JSR_W:
			target := pc + int(int32(be32(bc[pc+1:])))
			if err := checkTarget(target, starts); err != nil {
				return err
			}
			pc += 5
		case opcode.TABLESWITCH, opcode.LOOKUPSWITCH:
			next, err := validateSwitchTargets(bc, pc, op, starts)
			if err != nil {
				return err
			}
			pc = next
		case opcode.WIDE:
			next, _ := validateWide(bc, pc)
			pc = next
		default:
			if opcode.Len[op] < 0 {
				return fmt.Errorf("%w: unrecognized opcode %#x at pc=%d", ErrCode, op, pc)
			}
			pc += 1 + opcode.Len[op]
		}
	}

	for _, h := range code.Exceptions {
		if !starts[h.StartPC] && int(h.StartPC) != len(bc) {
			return fmt.Errorf("%w: exception handler start_pc %d not an instruction boundary", ErrCode, h.StartPC)
		}
		if !starts[h.HandlerPC] {
			return fmt.Errorf("%w: exception handler handler_pc %d not an instruction boundary", ErrCode, h.HandlerPC)
		}
	}
	return nil
}

func checkTarget(target int, starts []bool) error {
	if target < 0 || target >= len(starts) || !starts[target] {
		return fmt.Errorf("%w: branch target %d not an instruction boundary", ErrCode, target)
	}
	return nil
}

func validateSwitchTargets(bc []byte, pc int, op byte, starts []bool) (int, error) {
	pad := (4 - (pc+1)%4) % 4
	off := pc + 1 + pad
	defaultOffset := int32(be32(bc[off:]))
	if err := checkTarget(pc+int(defaultOffset), starts); err != nil {
		return 0, err
	}
	off += 4

	if op == opcode.TABLESWITCH {
		low := int32(be32(bc[off:]))
		high := int32(be32(bc[off+4:]))
		off += 8
		count := int(high-low) + 1
		for i := 0; i < count; i++ {
			offset := int32(be32(bc[off+i*4:]))
			if err := checkTarget(pc+int(offset), starts); err != nil {
				return 0, err
			}
		}
		return off + count*4, nil
	}

	npairs := int(int32(be32(bc[off:])))
	off += 4
	for i := 0; i < npairs; i++ {
		offset := int32(be32(bc[off+i*8+4:]))
		if err := checkTarget(pc+int(offset), starts); err != nil {
			return 0, err
		}
	}
	return off + npairs*8, nil
}
