package classpath

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type poolBuilder struct{ entries [][]byte }

func (b *poolBuilder) utf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(1)
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

func (b *poolBuilder) class(nameIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(7)
	binary.Write(&e, binary.BigEndian, nameIdx)
	b.entries = append(b.entries, e.Bytes())
	return uint16(len(b.entries))
}

// writeClass writes a minimal class file named thisName.class under dir,
// with superName as its superclass ("" for none).
func writeClass(t *testing.T, dir, thisName, superName string) {
	t.Helper()
	b := &poolBuilder{}
	thisU := b.utf8(thisName)
	thisIdx := b.class(thisU)
	var superIdx uint16
	if superName != "" {
		superU := b.utf8(superName)
		superIdx = b.class(superU)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(52))
	binary.Write(&out, binary.BigEndian, uint16(len(b.entries)+1))
	for _, e := range b.entries {
		out.Write(e)
	}
	binary.Write(&out, binary.BigEndian, uint16(0x20)) // access_flags (ACC_SUPER)
	binary.Write(&out, binary.BigEndian, thisIdx)
	binary.Write(&out, binary.BigEndian, superIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields
	binary.Write(&out, binary.BigEndian, uint16(0)) // methods
	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes

	path := filepath.Join(dir, thisName+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadResolvesSuperclassChain(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, "Base", "")
	writeClass(t, dir, "Mid", "Base")
	writeClass(t, dir, "Leaf", "Mid")

	reg := New([]string{dir})
	cls, err := reg.Load("Leaf")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cls.SuperLink == nil || cls.SuperLink.This != "Mid" {
		t.Fatalf("SuperLink = %v, want Mid", cls.SuperLink)
	}
	if cls.SuperLink.SuperLink == nil || cls.SuperLink.SuperLink.This != "Base" {
		t.Fatal("Base not linked two levels up")
	}
}

func TestLoadCachesAlreadyLoaded(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, "Base", "")

	reg := New([]string{dir})
	a, err := reg.Load("Base")
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.Load("Base")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("Load did not return the cached instance")
	}
}

func TestLoadDetectsCircularSuperclass(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, "A", "B")
	writeClass(t, dir, "B", "A")

	reg := New([]string{dir})
	_, err := reg.Load("A")
	if !errors.Is(err, ErrCircular) {
		t.Fatalf("err = %v, want ErrCircular", err)
	}
}

func TestLoadNotFound(t *testing.T) {
	reg := New([]string{t.TempDir()})
	_, err := reg.Load("DoesNotExist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestParseClasspathDefaultsToDot(t *testing.T) {
	got := ParseClasspath("")
	if len(got) != 1 || got[0] != "." {
		t.Fatalf("got %v, want [.]", got)
	}
}

func TestParseClasspathDoesNotMutateInput(t *testing.T) {
	input := "a" + string(os.PathListSeparator) + "b"
	original := input
	_ = ParseClasspath(input)
	if input != original {
		t.Fatal("ParseClasspath mutated its input string")
	}
}
