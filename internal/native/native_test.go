package native

import (
	"bytes"
	"testing"

	"github.com/mjvm/mjvm/internal/rt"
)

func testVM() (*rt.VM, *bytes.Buffer) {
	var out bytes.Buffer
	vm := rt.NewVM(nil, &out, &out)
	return vm, &out
}

func TestPrintlnString(t *testing.T) {
	vm, out := testVM()
	f, ok := Lookup("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	if !ok {
		t.Fatal("println(String) not found")
	}
	recv := rt.Ref(vm.Heap.AllocHostStream(vm.Stdout))
	str := NewString(vm, "hello")
	if _, _, err := f(vm, []rt.Value{recv, str}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello\n" {
		t.Fatalf("got %q, want %q", out.String(), "hello\n")
	}
}

func TestPrintInt(t *testing.T) {
	vm, out := testVM()
	f, _ := Lookup("java/io/PrintStream", "print", "(I)V")
	recv := rt.Ref(vm.Heap.AllocHostStream(vm.Stdout))
	f(vm, []rt.Value{recv, rt.Int(42)})
	if out.String() != "42" {
		t.Fatalf("got %q, want 42", out.String())
	}
}

func TestStringLengthAndCharAt(t *testing.T) {
	vm, _ := testVM()
	s := NewString(vm, "abc")

	lenFn, _ := Lookup("java/lang/String", "length", "()I")
	v, hasRet, err := lenFn(vm, []rt.Value{s})
	if err != nil || !hasRet || v.I32 != 3 {
		t.Fatalf("length() = %v, %v, %v", v, hasRet, err)
	}

	charFn, _ := Lookup("java/lang/String", "charAt", "(I)C")
	v, _, err = charFn(vm, []rt.Value{s, rt.Int(1)})
	if err != nil || v.I32 != 'b' {
		t.Fatalf("charAt(1) = %v, %v, want 'b'", v, err)
	}

	_, _, err = charFn(vm, []rt.Value{s, rt.Int(10)})
	if err == nil {
		t.Fatal("charAt(10) should be out of bounds")
	}
}

func TestStringEqualsAndConcat(t *testing.T) {
	vm, _ := testVM()
	a := NewString(vm, "foo")
	b := NewString(vm, "foo")
	c := NewString(vm, "bar")

	eq, _ := Lookup("java/lang/String", "equals", "(Ljava/lang/Object;)Z")
	v, _, _ := eq(vm, []rt.Value{a, b})
	if v.I32 != 1 {
		t.Fatal("foo.equals(foo) should be true")
	}
	v, _, _ = eq(vm, []rt.Value{a, c})
	if v.I32 != 0 {
		t.Fatal("foo.equals(bar) should be false")
	}

	concat, _ := Lookup("java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;")
	v, _, _ = concat(vm, []rt.Value{a, c})
	if string(StringBytes(v)) != "foobar" {
		t.Fatalf("concat = %q, want foobar", StringBytes(v))
	}
}

func TestResolveStaticFieldSystemStreams(t *testing.T) {
	vm, _ := testVM()
	if _, ok := ResolveStaticField(vm, "java/lang/System", "out"); !ok {
		t.Fatal("System.out should resolve")
	}
	if _, ok := ResolveStaticField(vm, "java/lang/System", "bogus"); ok {
		t.Fatal("unknown System field should not resolve")
	}
}
