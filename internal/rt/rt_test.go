package rt

import (
	"errors"
	"testing"

	"github.com/mjvm/mjvm/internal/classfile"
)

func TestHeapUseFreeLifecycle(t *testing.T) {
	h := NewHeap()
	e := h.AllocBytes(4)
	if e.Count != 1 {
		t.Fatalf("initial count = %d, want 1", e.Count)
	}
	h.Use(e)
	if e.Count != 2 {
		t.Fatalf("count after Use = %d, want 2", e.Count)
	}
	h.Free(e)
	if e.Count != 1 {
		t.Fatalf("count after one Free = %d, want 1", e.Count)
	}
	h.Free(e)
	if e.Count != 0 {
		t.Fatalf("count after second Free = %d, want 0", e.Count)
	}
	if h.head == e {
		t.Fatal("entry still linked into heap after refcount reached 0")
	}
}

func TestHeapDoublyLinkedListUnlink(t *testing.T) {
	h := NewHeap()
	a := h.AllocBytes(1)
	b := h.AllocBytes(1)
	c := h.AllocBytes(1)
	// list head is c -> b -> a
	h.Free(b)
	if h.head != c {
		t.Fatalf("head = %v, want c", h.head)
	}
	if c.next != a {
		t.Fatalf("c.next = %v, want a (b should be unlinked)", c.next)
	}
	if a.prev != c {
		t.Fatalf("a.prev = %v, want c", a.prev)
	}
}

func TestNewMultiArrayTwoDimensions(t *testing.T) {
	h := NewHeap()
	outer := h.NewMultiArray([]int32{3, 2}, PayloadArrayOfI32)
	if outer.Payload.Kind != PayloadArrayOfRef {
		t.Fatalf("outer kind = %v, want PayloadArrayOfRef", outer.Payload.Kind)
	}
	if len(outer.Payload.ArrayOfRef) != 3 {
		t.Fatalf("outer len = %d, want 3", len(outer.Payload.ArrayOfRef))
	}
	for _, inner := range outer.Payload.ArrayOfRef {
		if inner.Payload.Kind != PayloadArrayOfI32 || len(inner.Payload.ArrayOfI32) != 2 {
			t.Fatalf("inner = %+v, want a 2-element int32 array", inner.Payload)
		}
	}
}

func TestFrameWideLocalOccupiesTwoSlots(t *testing.T) {
	code := &classfile.CodeAttribute{MaxLocals: 4, MaxStack: 2}
	f := NewFrame(code, nil, nil)
	f.SetLocal(0, Long(42))
	if f.Local(0).I64 != 42 || f.Local(1).I64 != 42 {
		t.Fatalf("locals[0]=%v locals[1]=%v, want both to shadow 42", f.Local(0), f.Local(1))
	}
	f.SetLocal(2, Int(7))
	if f.Local(2).I32 != 7 {
		t.Fatalf("locals[2] = %v, want Int(7)", f.Local(2))
	}
}

func TestFramePushPopOrder(t *testing.T) {
	code := &classfile.CodeAttribute{MaxLocals: 0, MaxStack: 3}
	f := NewFrame(code, nil, nil)
	f.Push(Int(1))
	f.Push(Int(2))
	v, err := f.Pop()
	if err != nil || v.I32 != 2 {
		t.Fatalf("Pop = %v, %v, want 2, nil", v, err)
	}
	v, err = f.Pop()
	if err != nil || v.I32 != 1 {
		t.Fatalf("Pop = %v, %v, want 1, nil", v, err)
	}
}

func TestFrameStackOverflowAndUnderflow(t *testing.T) {
	code := &classfile.CodeAttribute{MaxLocals: 0, MaxStack: 1}
	f := NewFrame(code, nil, nil)
	if err := f.Push(Int(1)); err != nil {
		t.Fatal(err)
	}
	if err := f.Push(Int(2)); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("err = %v, want ErrStackOverflow", err)
	}
	if _, err := f.Pop(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("err = %v, want ErrStackUnderflow", err)
	}
}
