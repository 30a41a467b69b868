package interp

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/mjvm/mjvm/internal/classfile"
)

// interpBuilder assembles constant-pool entries and single-method class
// files for interpreter-level tests, mirroring classfile_test.go's
// classBuilder and classpath_test.go's poolBuilder.
type interpBuilder struct {
	entries [][]byte
	fields  []interpField
}

type interpField struct {
	accessFlags       uint16
	nameIdx, descIdx  uint16
}

// addField records a field_info to be emitted by writeFields.
func (b *interpBuilder) addField(accessFlags, nameIdx, descIdx uint16) {
	b.fields = append(b.fields, interpField{accessFlags: accessFlags, nameIdx: nameIdx, descIdx: descIdx})
}

func (b *interpBuilder) writeFields(out *bytes.Buffer) {
	binary.Write(out, binary.BigEndian, uint16(len(b.fields)))
	for _, f := range b.fields {
		binary.Write(out, binary.BigEndian, f.accessFlags)
		binary.Write(out, binary.BigEndian, f.nameIdx)
		binary.Write(out, binary.BigEndian, f.descIdx)
		binary.Write(out, binary.BigEndian, uint16(0)) // attributes_count
	}
}

func (b *interpBuilder) utf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(1)
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *interpBuilder) class(nameIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(7)
	binary.Write(&e, binary.BigEndian, nameIdx)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *interpBuilder) nameAndType(nameIdx, descIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(12)
	binary.Write(&e, binary.BigEndian, nameIdx)
	binary.Write(&e, binary.BigEndian, descIdx)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *interpBuilder) methodref(classIdx, natIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(10)
	binary.Write(&e, binary.BigEndian, classIdx)
	binary.Write(&e, binary.BigEndian, natIdx)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *interpBuilder) fieldref(classIdx, natIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(9)
	binary.Write(&e, binary.BigEndian, classIdx)
	binary.Write(&e, binary.BigEndian, natIdx)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *interpBuilder) long(v int64) uint16 {
	var e bytes.Buffer
	e.WriteByte(5)
	binary.Write(&e, binary.BigEndian, uint32(uint64(v)>>32))
	binary.Write(&e, binary.BigEndian, uint32(uint64(v)))
	b.entries = append(b.entries, e.Bytes())
	idx := uint16(len(b.entries))
	b.entries = append(b.entries, nil) // dead slot after Long
	return idx
}

// pool builds a *classfile.Pool directly from the raw entries, for
// tests that hand-construct a Frame without going through
// classfile.Parse. Only the tags these tests exercise are decoded.
func (b *interpBuilder) pool() *classfile.Pool {
	entries := make([]classfile.Entry, len(b.entries)+1)
	for i, raw := range b.entries {
		if raw == nil {
			continue
		}
		idx := i + 1
		tag := classfile.Tag(raw[0])
		switch tag {
		case classfile.TagUTF8:
			n := binary.BigEndian.Uint16(raw[1:3])
			entries[idx] = classfile.Entry{Tag: tag, UTF8: string(raw[3 : 3+n])}
		case classfile.TagClass:
			entries[idx] = classfile.Entry{Tag: tag, NameIndex: binary.BigEndian.Uint16(raw[1:3])}
		case classfile.TagNameAndType:
			entries[idx] = classfile.Entry{Tag: tag, NameIndex: binary.BigEndian.Uint16(raw[1:3]), DescriptorIndex: binary.BigEndian.Uint16(raw[3:5])}
		case classfile.TagFieldref, classfile.TagMethodref:
			entries[idx] = classfile.Entry{Tag: tag, ClassIndex: binary.BigEndian.Uint16(raw[1:3]), NameAndTypeIdx: binary.BigEndian.Uint16(raw[3:5])}
		case classfile.TagLong:
			hi := binary.BigEndian.Uint32(raw[1:5])
			lo := binary.BigEndian.Uint32(raw[5:9])
			entries[idx] = classfile.Entry{Tag: tag, BitsHi: hi, BitsLo: lo}
		}
	}
	return &classfile.Pool{Entries: entries}
}

// buildOneMethod writes a full class file byte stream with a single
// method whose Code attribute is codeBytes.
func (b *interpBuilder) buildOneMethod(thisIdx, superIdx, methodNameIdx, methodDescIdx, codeAttrNameIdx uint16, codeBytes []byte, methodAccess uint16, maxStack, maxLocals uint16) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major
	binary.Write(&out, binary.BigEndian, uint16(len(b.entries)+1))
	for _, e := range b.entries {
		out.Write(e)
	}
	binary.Write(&out, binary.BigEndian, uint16(classfile.AccSuper))
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces
	b.writeFields(&out)

	binary.Write(&out, binary.BigEndian, uint16(1)) // methods_count
	binary.Write(&out, binary.BigEndian, methodAccess)
	binary.Write(&out, binary.BigEndian, methodNameIdx)
	binary.Write(&out, binary.BigEndian, methodDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count

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

func writeClassFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".class"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}
