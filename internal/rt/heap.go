package rt

import "io"

// PayloadKind discriminates the shape of a heap entry's backing
// storage. The original C source aliased a single FILE* pointer
// through an untagged union; this tagged variant replaces that unsafe
// aliasing with an explicit, exhaustively-switchable type (spec.md §3.6,
// SPEC_FULL §7).
type PayloadKind uint8

const (
	PayloadBytes PayloadKind = iota
	PayloadArrayOfRef
	PayloadArrayOfI32
	PayloadArrayOfI64
	PayloadArrayOfF32
	PayloadArrayOfF64
	PayloadHostStream // backs java.io.PrintStream/InputStream bridges
)

// HeapPayload is the tagged contents of one heap entry.
type HeapPayload struct {
	Kind       PayloadKind
	Bytes      []byte
	ArrayOfRef []*HeapEntry
	ArrayOfI32 []int32
	ArrayOfI64 []int64
	ArrayOfF32 []float32
	ArrayOfF64 []float64
	Stream     io.Writer
}

// HeapEntry is one live allocation: a reference-counted node in the
// heap's doubly-linked list (spec.md §3.6). Nmemb == 0 marks a scalar
// cell; Nmemb > 0 marks an array of that many elements.
type HeapEntry struct {
	Payload HeapPayload
	Nmemb   int32
	Count   uint32
	prev    *HeapEntry
	next    *HeapEntry
}

// Heap is the doubly-linked list of every live allocation, grounded on
// spec.md §4.4's heap_alloc/heap_use/heap_free state machine.
type Heap struct {
	head *HeapEntry
}

// NewHeap returns an empty heap.
func NewHeap() *Heap { return &Heap{} }

// insert links e at the head of the list with an initial reference
// count of 1.
func (h *Heap) insert(e *HeapEntry) *HeapEntry {
	e.Count = 1
	e.next = h.head
	if h.head != nil {
		h.head.prev = e
	}
	h.head = e
	return e
}

// AllocBytes allocates a scalar byte-backed cell (Nmemb == 0) or a
// byte array (Nmemb == n).
func (h *Heap) AllocBytes(n int) *HeapEntry {
	nmemb := int32(0)
	if n > 0 {
		nmemb = int32(n)
	}
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadBytes, Bytes: make([]byte, n)}, Nmemb: nmemb})
}

// AllocArrayOfRef allocates a reference-typed array of n elements,
// all initially null.
func (h *Heap) AllocArrayOfRef(n int) *HeapEntry {
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadArrayOfRef, ArrayOfRef: make([]*HeapEntry, n)}, Nmemb: int32(n)})
}

// AllocArrayOfI32 allocates an int/short/char/byte/boolean-backed
// array of n elements (callers narrow on store/load per element type).
func (h *Heap) AllocArrayOfI32(n int) *HeapEntry {
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadArrayOfI32, ArrayOfI32: make([]int32, n)}, Nmemb: int32(n)})
}

// AllocArrayOfI64 allocates a long-backed array of n elements.
func (h *Heap) AllocArrayOfI64(n int) *HeapEntry {
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadArrayOfI64, ArrayOfI64: make([]int64, n)}, Nmemb: int32(n)})
}

// AllocArrayOfF32 allocates a float-backed array of n elements.
func (h *Heap) AllocArrayOfF32(n int) *HeapEntry {
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadArrayOfF32, ArrayOfF32: make([]float32, n)}, Nmemb: int32(n)})
}

// AllocArrayOfF64 allocates a double-backed array of n elements.
func (h *Heap) AllocArrayOfF64(n int) *HeapEntry {
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadArrayOfF64, ArrayOfF64: make([]float64, n)}, Nmemb: int32(n)})
}

// AllocHostStream wraps a Go io.Writer (e.g. os.Stdout) as a heap
// entry so it can be held by a reference value, backing
// java.io.PrintStream.
func (h *Heap) AllocHostStream(w io.Writer) *HeapEntry {
	return h.insert(&HeapEntry{Payload: HeapPayload{Kind: PayloadHostStream, Stream: w}, Nmemb: 0})
}

// Use increments e's reference count and returns its payload pointer.
func (h *Heap) Use(e *HeapEntry) *HeapPayload {
	if e == nil {
		return nil
	}
	e.Count++
	return &e.Payload
}

// Free decrements e's reference count; at zero the entry is unlinked
// from the list and its payload released.
func (h *Heap) Free(e *HeapEntry) {
	if e == nil || e.Count == 0 {
		return
	}
	e.Count--
	if e.Count > 0 {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else if h.head == e {
		h.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	e.Payload = HeapPayload{}
}

// NewMultiArray recursively allocates a multi-dimensional array given
// per-dimension sizes, per spec.md §4.4's array_new: the base case
// (one remaining dimension) allocates a contiguous primitive or
// reference block; every outer dimension allocates an array of Ref and
// recurses into each cell.
func (h *Heap) NewMultiArray(sizes []int32, elem PayloadKind) *HeapEntry {
	if len(sizes) == 0 {
		return nil
	}
	n := int(sizes[0])
	if len(sizes) == 1 {
		switch elem {
		case PayloadArrayOfI64:
			return h.AllocArrayOfI64(n)
		case PayloadArrayOfF32:
			return h.AllocArrayOfF32(n)
		case PayloadArrayOfF64:
			return h.AllocArrayOfF64(n)
		case PayloadArrayOfRef:
			return h.AllocArrayOfRef(n)
		default:
			return h.AllocArrayOfI32(n)
		}
	}
	outer := h.AllocArrayOfRef(n)
	for i := 0; i < n; i++ {
		outer.Payload.ArrayOfRef[i] = h.NewMultiArray(sizes[1:], elem)
	}
	return outer
}
