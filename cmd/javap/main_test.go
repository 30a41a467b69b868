package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeTrivialClass(t *testing.T, dir, name string) string {
	t.Helper()
	var pool [][]byte
	addUTF8 := func(s string) uint16 {
		var e bytes.Buffer
		e.WriteByte(1)
		binary.Write(&e, binary.BigEndian, uint16(len(s)))
		e.WriteString(s)
		pool = append(pool, e.Bytes())
		return uint16(len(pool))
	}
	addClass := func(nameIdx uint16) uint16 {
		var e bytes.Buffer
		e.WriteByte(7)
		binary.Write(&e, binary.BigEndian, nameIdx)
		pool = append(pool, e.Bytes())
		return uint16(len(pool))
	}

	thisIdx := addClass(addUTF8(name))
	superIdx := addClass(addUTF8("java/lang/Object"))
	methodNameIdx := addUTF8("run")
	methodDescIdx := addUTF8("()V")
	codeAttrNameIdx := addUTF8("Code")

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(52))
	binary.Write(&out, binary.BigEndian, uint16(len(pool)+1))
	for _, e := range pool {
		out.Write(e)
	}
	binary.Write(&out, binary.BigEndian, uint16(0x0021))
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(0))

	binary.Write(&out, binary.BigEndian, uint16(1))
	binary.Write(&out, binary.BigEndian, uint16(0x0001)) // ACC_PUBLIC
	binary.Write(&out, binary.BigEndian, methodNameIdx)
	binary.Write(&out, binary.BigEndian, methodDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1))

	code := []byte{0xB1}
	var codeAttr bytes.Buffer
	binary.Write(&codeAttr, binary.BigEndian, uint16(1))
	binary.Write(&codeAttr, binary.BigEndian, uint16(1))
	binary.Write(&codeAttr, binary.BigEndian, uint32(len(code)))
	codeAttr.Write(code)
	binary.Write(&codeAttr, binary.BigEndian, uint16(0))
	binary.Write(&codeAttr, binary.BigEndian, uint16(0))

	binary.Write(&out, binary.BigEndian, codeAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(codeAttr.Len()))
	out.Write(codeAttr.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0))

	path := filepath.Join(dir, name+".class")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDisassembleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTrivialClass(t, dir, "Sample")

	var buf bytes.Buffer
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	err := disassembleFile(path)
	w.Close()
	os.Stdout = old
	if err != nil {
		t.Fatalf("disassembleFile: %v", err)
	}
	buf.ReadFrom(r)
	if !bytes.Contains(buf.Bytes(), []byte("class Sample")) {
		t.Errorf("expected class header in output, got:\n%s", buf.String())
	}
}

func TestDisassembleFileNotFound(t *testing.T) {
	if err := disassembleFile(filepath.Join(t.TempDir(), "Missing.class")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
