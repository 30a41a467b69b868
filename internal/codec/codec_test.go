package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderReadsBigEndian(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x11}))
	if got := r.ReadU4(); got != 0xCAFEBABE {
		t.Fatalf("ReadU4 = %#x, want 0xCAFEBABE", got)
	}
	if got := r.ReadU2(); got != 0x0011 {
		t.Fatalf("ReadU2 = %#x, want 0x0011", got)
	}
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01}))
	_ = r.ReadU4() // not enough bytes
	if r.Err == nil {
		t.Fatal("expected sticky error after short read")
	}
	if !errors.Is(r.Err, ErrEOF) {
		t.Fatalf("expected ErrEOF, got %v", r.Err)
	}
	// further reads are no-ops, not panics
	if got := r.ReadU1(); got != 0 {
		t.Fatalf("ReadU1 after error = %d, want 0", got)
	}
}

func TestFloatBitReinterpretation(t *testing.T) {
	// 1.5f = 0x3FC00000
	if got := Float32FromBits(0x3FC00000); got != 1.5 {
		t.Fatalf("Float32FromBits = %v, want 1.5", got)
	}
	// 1.0 = 0x3FF0000000000000
	if got := Float64FromBits(0x3FF00000, 0x00000000); got != 1.0 {
		t.Fatalf("Float64FromBits = %v, want 1.0", got)
	}
}

func TestInt64FromBitsTwosComplement(t *testing.T) {
	got := int64(Int64FromBits(0xFFFFFFFF, 0xFFFFFFFF))
	if got != -1 {
		t.Fatalf("Int64FromBits(-1 pattern) = %d, want -1", got)
	}
}

func TestModifiedUTF8RoundTrip(t *testing.T) {
	cases := []string{"hello", "", "héllo", "\U0001F600"}
	for _, s := range cases {
		enc := EncodeModifiedUTF8(s)
		dec := DecodeModifiedUTF8(enc)
		if dec != s {
			t.Errorf("round trip %q -> %q", s, dec)
		}
	}
}

func TestModifiedUTF8NulEncoding(t *testing.T) {
	enc := EncodeModifiedUTF8("a\x00b")
	want := []byte{'a', 0xC0, 0x80, 'b'}
	if !bytes.Equal(enc, want) {
		t.Fatalf("NUL encoding = %x, want %x", enc, want)
	}
}
