package classfile

import "errors"

// The closed taxonomy of loader errors from spec.md §7. Each is a
// sentinel compared with errors.Is; detail is attached with %w.
var (
	ErrRead       = errors.New("READ")
	ErrEOF        = errors.New("EOF")
	ErrAlloc      = errors.New("ALLOC")
	ErrMagic      = errors.New("MAGIC: invalid magic number")
	ErrTag        = errors.New("TAG: unknown constant-pool tag")
	ErrIndex      = errors.New("INDEX: constant-pool index out of range")
	ErrConstant   = errors.New("CONSTANT: wrong constant-pool entry type")
	ErrDescriptor = errors.New("DESCRIPTOR: malformed field/method descriptor")
	ErrKind       = errors.New("KIND: invalid method handle reference_kind")
	ErrCode       = errors.New("CODE: bytecode structural violation")
	ErrMethod     = errors.New("METHOD: INVOKESTATIC may not target <init> or <clinit>")
)
