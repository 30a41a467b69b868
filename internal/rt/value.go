// Package rt is the interpreter's runtime memory model: stack/local
// values, the reference-counted heap, and the frame stack (spec.md
// §3.5-§3.7, §4.4).
package rt

// Kind discriminates the four JVM computational-type shapes a Value
// can hold, plus a reference into the heap (spec.md §3.5).
type Kind uint8

const (
	KindInt Kind = iota
	KindLong
	KindFloat
	KindDouble
	KindRef
)

// Value is a tagged union over a single interpreter slot: exactly one
// of I32/I64/F32/F64/Ref is meaningful, selected by Kind. A long or
// double occupies one operand-stack slot but two consecutive local
// variable slots — that duality is centralized in Frame, never
// duplicated at call sites (spec.md §3.5, §3.7).
type Value struct {
	Kind Kind
	I32  int32
	I64  int64
	F32  float32
	F64  float64
	Ref  *HeapEntry
}

func Int(v int32) Value    { return Value{Kind: KindInt, I32: v} }
func Long(v int64) Value   { return Value{Kind: KindLong, I64: v} }
func Float(v float32) Value { return Value{Kind: KindFloat, F32: v} }
func Double(v float64) Value { return Value{Kind: KindDouble, F64: v} }
func Ref(h *HeapEntry) Value { return Value{Kind: KindRef, Ref: h} }

// NullRef is the null reference value.
var NullRef = Value{Kind: KindRef, Ref: nil}

// IsWide reports whether this value's kind occupies two local slots.
func (v Value) IsWide() bool { return v.Kind == KindLong || v.Kind == KindDouble }
