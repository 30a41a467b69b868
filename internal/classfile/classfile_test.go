package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// classBuilder assembles a minimal well-formed class file byte stream
// for tests, mirroring the layout spec.md §3 describes.
type classBuilder struct {
	buf  bytes.Buffer
	pool [][]byte
}

func newClassBuilder() *classBuilder { return &classBuilder{} }

func (b *classBuilder) addUTF8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(1)
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *classBuilder) addClass(nameIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(7)
	binary.Write(&e, binary.BigEndian, nameIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *classBuilder) addNameAndType(nameIdx, descIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(12)
	binary.Write(&e, binary.BigEndian, nameIdx)
	binary.Write(&e, binary.BigEndian, descIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *classBuilder) addMethodref(classIdx, natIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(10)
	binary.Write(&e, binary.BigEndian, classIdx)
	binary.Write(&e, binary.BigEndian, natIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *classBuilder) addMethodHandle(kind uint8, refIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(15) // TagMethodHandle
	e.WriteByte(kind)
	binary.Write(&e, binary.BigEndian, refIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

// build writes the full class file: header, pool, access_flags,
// this/super, empty interfaces/fields, one method whose Code attribute
// is codeBytes, no class-level attributes.
func (b *classBuilder) build(thisIdx, superIdx uint16, methodNameIdx, methodDescIdx, codeAttrNameIdx uint16, codeBytes []byte, maxStack, maxLocals uint16) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major
	binary.Write(&out, binary.BigEndian, uint16(len(b.pool)+1))
	for _, e := range b.pool {
		out.Write(e)
	}
	binary.Write(&out, binary.BigEndian, uint16(AccSuper)) // access_flags
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count

	binary.Write(&out, binary.BigEndian, uint16(1)) // methods_count
	binary.Write(&out, binary.BigEndian, uint16(AccStatic))
	binary.Write(&out, binary.BigEndian, methodNameIdx)
	binary.Write(&out, binary.BigEndian, methodDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count on method

	var code bytes.Buffer
	binary.Write(&code, binary.BigEndian, maxStack)
	binary.Write(&code, binary.BigEndian, maxLocals)
	binary.Write(&code, binary.BigEndian, uint32(len(codeBytes)))
	code.Write(codeBytes)
	binary.Write(&code, binary.BigEndian, uint16(0)) // exception_table_length
	binary.Write(&code, binary.BigEndian, uint16(0)) // code attributes_count

	binary.Write(&out, binary.BigEndian, codeAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(code.Len()))
	out.Write(code.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count
	return out.Bytes()
}

func simpleReturnClass(t *testing.T) []byte {
	t.Helper()
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	objName := b.addUTF8("java/lang/Object")
	methodName := b.addUTF8("main")
	methodDesc := b.addUTF8("()V")
	codeAttrName := b.addUTF8("Code")
	thisIdx := b.addClass(thisName)
	superIdx := b.addClass(objName)
	return b.build(thisIdx, superIdx, methodName, methodDesc, codeAttrName, []byte{0xB1}, 0, 0) // return
}

func TestParseMinimalClass(t *testing.T) {
	cf, err := Parse(bytes.NewReader(simpleReturnClass(t)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cf.This != "Main" {
		t.Errorf("This = %q, want Main", cf.This)
	}
	if cf.SuperName != "java/lang/Object" {
		t.Errorf("SuperName = %q", cf.SuperName)
	}
	m, ok := cf.MethodByNameAndDescriptor("main", "()V")
	if !ok {
		t.Fatal("main()V not found")
	}
	code, ok := m.Code()
	if !ok || len(code.Code) != 1 {
		t.Fatalf("expected 1-byte code, got %v ok=%v", code, ok)
	}
}

func TestParseBadMagic(t *testing.T) {
	data := simpleReturnClass(t)
	data[0] = 0x00
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrMagic) {
		t.Fatalf("err = %v, want ErrMagic", err)
	}
}

func TestParseTruncated(t *testing.T) {
	data := simpleReturnClass(t)
	_, err := Parse(bytes.NewReader(data[:10]))
	if !errors.Is(err, ErrEOF) {
		t.Fatalf("err = %v, want ErrEOF", err)
	}
}

func TestParseDanglingConstantIndex(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	thisIdx := b.addClass(thisName)
	// super_class points one past the pool: invalid.
	data := b.build(thisIdx, uint16(len(b.pool)+5), thisName, thisName, thisName, []byte{0xB1}, 0, 0)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrIndex) {
		t.Fatalf("err = %v, want ErrIndex", err)
	}
}

func TestParseLongDoubleDeadSlot(t *testing.T) {
	b := newClassBuilder()
	var e bytes.Buffer
	e.WriteByte(5) // TagLong
	binary.Write(&e, binary.BigEndian, uint32(0))
	binary.Write(&e, binary.BigEndian, uint32(42))
	b.pool = append(b.pool, e.Bytes())
	b.pool = append(b.pool, nil) // placeholder slot, never read by name

	thisName := b.addUTF8("Main")
	methodName := b.addUTF8("main")
	voidDesc := b.addUTF8("()V")
	codeAttrName := b.addUTF8("Code")
	thisIdx := b.addClass(thisName)

	data := b.build(thisIdx, 0, methodName, voidDesc, codeAttrName, []byte{0xB1}, 1, 1)
	cf, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cf.Pool.Entries[1].Tag != TagLong {
		t.Fatalf("entry 1 tag = %v, want TagLong", cf.Pool.Entries[1].Tag)
	}
	if cf.Pool.Entries[2].Tag != 0 {
		t.Fatalf("entry 2 (dead slot) tag = %v, want 0", cf.Pool.Entries[2].Tag)
	}
}

func TestParseRejectsInvokestaticOnInit(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	objName := b.addUTF8("java/lang/Object")
	initName := b.addUTF8("<init>")
	voidDesc := b.addUTF8("()V")
	methodName := b.addUTF8("main")
	codeAttrName := b.addUTF8("Code")

	thisIdx := b.addClass(thisName)
	superIdx := b.addClass(objName)
	nat := b.addNameAndType(initName, voidDesc)
	methodref := b.addMethodref(thisIdx, nat)

	code := []byte{
		0xB8, byte(methodref >> 8), byte(methodref), // invokestatic <init>()V
		0xB1, // return
	}
	data := b.build(thisIdx, superIdx, methodName, voidDesc, codeAttrName, code, 1, 1)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrMethod) {
		t.Fatalf("err = %v, want ErrMethod", err)
	}
}

func TestParseRejectsTableswitchHighLessThanLow(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	methodName := b.addUTF8("main")
	voidDesc := b.addUTF8("()V")
	codeAttrName := b.addUTF8("Code")
	thisIdx := b.addClass(thisName)

	// tableswitch at pc=0: pad to 4-byte boundary after opcode byte (3
	// pad bytes), default offset, low=5, high=0 (invalid: high < low).
	code := []byte{0xAA, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0}
	data := b.build(thisIdx, 0, methodName, voidDesc, codeAttrName, code, 1, 0)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrCode) {
		t.Fatalf("err = %v, want ErrCode", err)
	}
}

func TestParseRejectsMultianewarrayZeroDims(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	arrName := b.addUTF8("[Ljava/lang/Object;")
	methodName := b.addUTF8("main")
	voidDesc := b.addUTF8("()V")
	codeAttrName := b.addUTF8("Code")
	thisIdx := b.addClass(thisName)
	arrIdx := b.addClass(arrName)

	code := []byte{0xC5, byte(arrIdx >> 8), byte(arrIdx), 0, 0xB1} // multianewarray, dims=0, return
	data := b.build(thisIdx, 0, methodName, voidDesc, codeAttrName, code, 1, 0)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrCode) {
		t.Fatalf("err = %v, want ErrCode", err)
	}
}

func TestParseRejectsBadMethodHandleReferenceKind(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	objName := b.addUTF8("java/lang/Object")
	methodName := b.addUTF8("main")
	voidDesc := b.addUTF8("()V")
	codeAttrName := b.addUTF8("Code")
	thisIdx := b.addClass(thisName)
	superIdx := b.addClass(objName)
	b.addMethodHandle(0, thisIdx) // reference_kind 0 is outside 1..9

	data := b.build(thisIdx, superIdx, methodName, voidDesc, codeAttrName, []byte{0xB1}, 0, 0)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrKind) {
		t.Fatalf("err = %v, want ErrKind", err)
	}
}

func TestParseRejectsBadBranchTarget(t *testing.T) {
	b := newClassBuilder()
	thisName := b.addUTF8("Main")
	methodName := b.addUTF8("main")
	voidDesc := b.addUTF8("()V")
	codeAttrName := b.addUTF8("Code")
	thisIdx := b.addClass(thisName)

	// goto +100 from an all-too-short 3-byte method body.
	code := []byte{0xA7, 0, 100}
	data := b.build(thisIdx, 0, methodName, voidDesc, codeAttrName, code, 1, 0)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, ErrCode) {
		t.Fatalf("err = %v, want ErrCode", err)
	}
}
