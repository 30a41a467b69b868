// Package codec is the primitive binary codec for the JVM class-file
// format: big-endian u1/u2/u4 reads over a streaming io.Reader, modified
// UTF-8 decoding, and bitwise reinterpretation of raw words as
// IEEE-754 float/double and two's-complement int/long.
package codec

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrRead is returned when the underlying reader fails before EOF.
var ErrRead = errors.New("READ: underlying read failure")

// ErrEOF is returned when the stream ends before the requested bytes
// could be read.
var ErrEOF = errors.New("EOF: unexpected end of class file")

// Reader wraps an io.Reader with a sticky first error: once a read
// fails, every subsequent Read* call is a no-op returning the zero
// value, so call sites don't need an error check after every read.
// Grounded on other_examples/dhamidi-sai's classfile reader.
type Reader struct {
	r   io.Reader
	Err error
}

// NewReader wraps r for sequential big-endian decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) fail(err error) {
	if r.Err == nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.Err = ErrEOF
		} else {
			r.Err = ErrRead
		}
	}
}

// ReadU1 reads one unsigned byte.
func (r *Reader) ReadU1() uint8 {
	if r.Err != nil {
		return 0
	}
	var buf [1]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		r.fail(err)
		return 0
	}
	return buf[0]
}

// ReadU2 reads a big-endian uint16.
func (r *Reader) ReadU2() uint16 {
	if r.Err != nil {
		return 0
	}
	var buf [2]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		r.fail(err)
		return 0
	}
	return binary.BigEndian.Uint16(buf[:])
}

// ReadU4 reads a big-endian uint32.
func (r *Reader) ReadU4() uint32 {
	if r.Err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		r.fail(err)
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.Err != nil || n == 0 {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.fail(err)
		return nil
	}
	return buf
}

// Float32FromBits reinterprets a raw u32 as an IEEE-754 float. Bitwise,
// not a lossy numeric conversion.
func Float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// Float64FromBits reinterprets a (hi,lo) u32 pair as an IEEE-754 double.
func Float64FromBits(hi, lo uint32) float64 {
	return math.Float64frombits(Int64FromBits(hi, lo))
}

// Int64FromBits reinterprets a (hi,lo) u32 pair as a two's-complement
// int64 bit pattern.
func Int64FromBits(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}
