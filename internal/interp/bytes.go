package interp

func u16be(code []byte, pc int) uint16 { return uint16(code[pc])<<8 | uint16(code[pc+1]) }
func s16be(code []byte, pc int) int16  { return int16(u16be(code, pc)) }

func u32be(code []byte, pc int) uint32 {
	return uint32(code[pc])<<24 | uint32(code[pc+1])<<16 | uint32(code[pc+2])<<8 | uint32(code[pc+3])
}
func s32be(code []byte, pc int) int32 { return int32(u32be(code, pc)) }
