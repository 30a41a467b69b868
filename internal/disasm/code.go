package disasm

import (
	"fmt"
	"io"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/opcode"
)

// printCode walks a Code attribute's instruction stream the same way
// the decoder's structural validator does — fixed-length instructions
// by table lookup, WIDE/TABLESWITCH/LOOKUPSWITCH by their own padded
// layouts — and prints one disassembled line per instruction.
func printCode(w io.Writer, pool *classfile.Pool, code *classfile.CodeAttribute) {
	fmt.Fprintf(w, "      stack=%d, locals=%d\n", code.MaxStack, code.MaxLocals)
	bc := code.Code
	n := len(bc)
	pc := 0
	for pc < n {
		op := bc[pc]
		switch op {
		case opcode.WIDE:
			pc = printWide(w, bc, pc)
		case opcode.TABLESWITCH:
			pc = printTableswitch(w, bc, pc)
		case opcode.LOOKUPSWITCH:
			pc = printLookupswitch(w, bc, pc)
		default:
			pc = printInstruction(w, pool, bc, pc, op)
		}
	}
}

func printInstruction(w io.Writer, pool *classfile.Pool, bc []byte, pc int, op byte) int {
	operandLen := opcode.Len[op]
	if operandLen < 0 {
		fmt.Fprintf(w, "      %4d: <unknown opcode %#x>\n", pc, op)
		return pc + 1
	}
	name := opcode.Mnemonic(op)
	if name == "" {
		name = fmt.Sprintf("<%#x>", op)
	}
	operand := operandString(pool, bc, pc, op)
	if operand != "" {
		fmt.Fprintf(w, "      %4d: %-15s %s\n", pc, name, operand)
	} else {
		fmt.Fprintf(w, "      %4d: %s\n", pc, name)
	}
	return pc + 1 + operandLen
}

// operandString renders an instruction's operand bytes as a reader
// would want to see them: branch targets as absolute pc, pool
// references resolved to a human-readable comment, everything else as
// its decoded numeric value.
func operandString(pool *classfile.Pool, bc []byte, pc int, op byte) string {
	switch op {
	case opcode.BIPUSH:
		return fmt.Sprintf("%d", int8(bc[pc+1]))
	case opcode.SIPUSH:
		return fmt.Sprintf("%d", int16(u16be(bc, pc+1)))
	case opcode.NEWARRAY:
		return typeCodeName(bc[pc+1])
	case opcode.ILOAD, opcode.LLOAD, opcode.FLOAD, opcode.DLOAD, opcode.ALOAD,
		opcode.ISTORE, opcode.LSTORE, opcode.FSTORE, opcode.DSTORE, opcode.ASTORE, opcode.RET:
		return fmt.Sprintf("%d", bc[pc+1])
	case opcode.IINC:
		return fmt.Sprintf("%d, %d", bc[pc+1], int8(bc[pc+2]))
	case opcode.LDC:
		return poolComment(pool, uint16(bc[pc+1]))
	case opcode.LDC_W, opcode.LDC2_W:
		return poolComment(pool, u16be(bc, pc+1))
	case opcode.GETSTATIC, opcode.PUTSTATIC, opcode.GETFIELD, opcode.PUTFIELD:
		return fieldComment(pool, u16be(bc, pc+1))
	case opcode.INVOKEVIRTUAL, opcode.INVOKESPECIAL, opcode.INVOKESTATIC:
		return methodComment(pool, u16be(bc, pc+1))
	case opcode.NEW, opcode.ANEWARRAY, opcode.CHECKCAST, opcode.INSTANCEOF:
		return classComment(pool, u16be(bc, pc+1))
	case opcode.MULTIANEWARRAY:
		return fmt.Sprintf("%s, dims=%d", classComment(pool, u16be(bc, pc+1)), bc[pc+3])
	case opcode.IFEQ, opcode.IFNE, opcode.IFLT, opcode.IFGE, opcode.IFGT, opcode.IFLE,
		opcode.IF_ICMPEQ, opcode.IF_ICMPNE, opcode.IF_ICMPLT, opcode.IF_ICMPGE,
		opcode.IF_ICMPGT, opcode.IF_ICMPLE, opcode.IF_ACMPEQ, opcode.IF_ACMPNE,
		opcode.GOTO, opcode.JSR, opcode.IFNULL, opcode.IFNONNULL:
		return fmt.Sprintf("%d", pc+int(s16be(bc, pc+1)))
	case opcode.GOTO_W, opcode.JSR_W:
		return fmt.Sprintf("%d", pc+int(s32be(bc, pc+1)))
	}
	return ""
}

func poolComment(pool *classfile.Pool, idx uint16) string {
	if s, err := pool.UTF8At(idx); err == nil {
		return fmt.Sprintf("#%d // %q", idx, s)
	}
	if name, err := pool.ClassNameAt(idx); err == nil {
		return fmt.Sprintf("#%d // %s", idx, name)
	}
	return fmt.Sprintf("#%d", idx)
}

func fieldComment(pool *classfile.Pool, idx uint16) string {
	class, name, desc, err := pool.RefAt(idx, classfile.TagFieldref)
	if err != nil {
		return fmt.Sprintf("#%d", idx)
	}
	return fmt.Sprintf("#%d // %s.%s:%s", idx, class, name, desc)
}

func methodComment(pool *classfile.Pool, idx uint16) string {
	class, name, desc, err := pool.RefAt(idx, classfile.TagMethodref)
	if err != nil {
		return fmt.Sprintf("#%d", idx)
	}
	return fmt.Sprintf("#%d // %s.%s:%s", idx, class, name, desc)
}

func classComment(pool *classfile.Pool, idx uint16) string {
	name, err := pool.ClassNameAt(idx)
	if err != nil {
		return fmt.Sprintf("#%d", idx)
	}
	return fmt.Sprintf("#%d // %s", idx, name)
}

func typeCodeName(t byte) string {
	switch t {
	case opcode.TBoolean:
		return "boolean"
	case opcode.TChar:
		return "char"
	case opcode.TFloat:
		return "float"
	case opcode.TDouble:
		return "double"
	case opcode.TByte:
		return "byte"
	case opcode.TShort:
		return "short"
	case opcode.TInt:
		return "int"
	case opcode.TLong:
		return "long"
	default:
		return fmt.Sprintf("%d", t)
	}
}

func printWide(w io.Writer, bc []byte, pc int) int {
	sub := bc[pc+1]
	name := opcode.Mnemonic(sub)
	if sub == opcode.IINC {
		idx := u16be(bc, pc+2)
		delta := int16(u16be(bc, pc+4))
		fmt.Fprintf(w, "      %4d: wide %-10s %d, %d\n", pc, name, idx, delta)
		return pc + 6
	}
	idx := u16be(bc, pc+2)
	fmt.Fprintf(w, "      %4d: wide %-10s %d\n", pc, name, idx)
	return pc + 4
}

func printTableswitch(w io.Writer, bc []byte, pc int) int {
	pad := (4 - (pc+1)%4) % 4
	off := pc + 1 + pad
	defaultOffset := s32be(bc, off)
	low := s32be(bc, off+4)
	high := s32be(bc, off+8)
	off += 12

	fmt.Fprintf(w, "      %4d: tableswitch { // %d to %d\n", pc, low, high)
	count := int(high-low) + 1
	for i := 0; i < count; i++ {
		target := pc + int(s32be(bc, off+i*4))
		fmt.Fprintf(w, "                   %7d: %d\n", int(low)+i, target)
	}
	fmt.Fprintf(w, "                   default: %d\n      }\n", pc+int(defaultOffset))
	return off + count*4
}

func printLookupswitch(w io.Writer, bc []byte, pc int) int {
	pad := (4 - (pc+1)%4) % 4
	off := pc + 1 + pad
	defaultOffset := s32be(bc, off)
	npairs := int(s32be(bc, off+4))
	off += 8

	fmt.Fprintf(w, "      %4d: lookupswitch { // %d\n", pc, npairs)
	for i := 0; i < npairs; i++ {
		match := s32be(bc, off+i*8)
		target := pc + int(s32be(bc, off+i*8+4))
		fmt.Fprintf(w, "                   %7d: %d\n", match, target)
	}
	fmt.Fprintf(w, "                   default: %d\n      }\n", pc+int(defaultOffset))
	return off + npairs*8
}

func u16be(b []byte, pc int) uint16 { return uint16(b[pc])<<8 | uint16(b[pc+1]) }
func s16be(b []byte, pc int) int16  { return int16(u16be(b, pc)) }
func s32be(b []byte, pc int) int32 {
	return int32(uint32(b[pc])<<24 | uint32(b[pc+1])<<16 | uint32(b[pc+2])<<8 | uint32(b[pc+3]))
}
