// Package interp is the bytecode interpreter: a dense [256]opHandler
// dispatch table over the fetch-decode-execute loop of spec.md §4.5,
// plus method invocation and the five bugs from the original source
// that SPEC_FULL §8 lists as fixed rather than reproduced.
package interp

import (
	"fmt"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/native"
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// ctrl is what a handler tells the run loop to do next.
type ctrl uint8

const (
	ctrlContinue ctrl = iota
	ctrlReturnVoid
	ctrlReturnValue
)

// opHandler executes one instruction. On entry f.PC indexes the
// opcode byte itself; the handler is responsible for leaving f.PC at
// the next instruction's start (or at a branch target).
type opHandler func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error)

var handlers [256]opHandler

// ErrNotImplemented is returned for opcodes spec.md §4.5.2 explicitly
// excludes from this core (INVOKESPECIAL, NEW, ATHROW, ...), and for
// any opcode that is not a recognized JVM instruction.
var ErrNotImplemented = fmt.Errorf("opcode not implemented")

// Run drives the fetch-decode-execute loop for a single frame until a
// return opcode fires, per spec.md §4.5's "while pc < code_length"
// loop. It does not recover panics — callers that want the
// array-bounds/null-deref/div-by-zero placeholder conditions of
// spec.md §7 surfaced as fatal errors should wrap the outermost call
// with RunGuarded.
func Run(vm *rt.VM, f *rt.Frame) (rt.Value, bool, error) {
	code := f.Code.Code
	for f.PC < len(code) {
		op := code[f.PC]
		if !opcode.Implemented(op) {
			return rt.Value{}, false, fmt.Errorf("%w: %#x (%s) at pc=%d", ErrNotImplemented, op, opcode.Mnemonic(op), f.PC)
		}
		h := handlers[op]
		if h == nil {
			return rt.Value{}, false, fmt.Errorf("%w: %#x at pc=%d", ErrNotImplemented, op, f.PC)
		}
		c, v, err := h(vm, f, op)
		if err != nil {
			return rt.Value{}, false, err
		}
		switch c {
		case ctrlReturnVoid:
			return rt.Value{}, false, nil
		case ctrlReturnValue:
			return v, true, nil
		}
	}
	return rt.Value{}, false, fmt.Errorf("control fell off the end of code without a return, pc=%d", f.PC)
}

// RunGuarded wraps Run and converts a panic raised by the placeholder
// conditions of spec.md §7 (null array dereference, out-of-bounds
// index, negative array size, division by zero) into a regular error,
// matching the launcher's single "progname: <message>" fatal-error
// contract instead of crashing the process with a Go stack trace.
func RunGuarded(vm *rt.VM, f *rt.Frame) (result rt.Value, hasResult bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return Run(vm, f)
}

// Call resolves and invokes a method on an already-loaded class,
// per spec.md §4.5.1: places the already-popped args into the
// callee's locals, pushes a new frame, runs it to completion, and pops
// it again.
func Call(vm *rt.VM, class *classfile.ClassFile, m *classfile.Method, args []rt.Value) (rt.Value, bool, error) {
	code, ok := m.Code()
	if !ok {
		return rt.Value{}, false, fmt.Errorf("%s.%s%s has no Code attribute", class.This, m.Name, m.Descriptor)
	}

	f := rt.NewFrame(code, class, nil)
	setParams(f, args)

	vm.PushFrame(f)
	defer vm.PopFrame()

	return RunGuarded(vm, f)
}

// setParams places args into locals[0..), honoring wide (long/double)
// parameters' two-slot footprint via Frame.SetLocal, which is the one
// place the slot-duality rule is expressed.
func setParams(f *rt.Frame, args []rt.Value) {
	idx := 0
	for _, a := range args {
		f.SetLocal(idx, a)
		if a.IsWide() {
			idx += 2
		} else {
			idx++
		}
	}
}

// Invoke resolves a MethodRef constant-pool entry and dispatches to
// either the native bridge or a recursive Call, per spec.md §4.5.2's
// Invocation rules. requiredFlags is the access-flag mask the
// resolved method must carry (e.g. ACC_STATIC for INVOKESTATIC); the
// original source mistakenly required ACC_STATIC for INVOKEVIRTUAL
// too — the fix, per SPEC_FULL §8, is that INVOKEVIRTUAL requires no
// particular flag.
func Invoke(vm *rt.VM, pool *classfile.Pool, methodRefIdx uint16, requiredFlags uint16) (rt.Value, bool, error) {
	className, methodName, descriptor, err := pool.RefAt(methodRefIdx, classfile.TagMethodref)
	if err != nil {
		return rt.Value{}, false, err
	}

	params, _, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return rt.Value{}, false, err
	}

	args, err := popArgs(vm.Current, len(params), true)
	if err != nil {
		return rt.Value{}, false, err
	}

	if native.HostClasses[className] {
		fn, ok := native.Lookup(className, methodName, descriptor)
		if !ok {
			return rt.Value{}, false, fmt.Errorf("native method not found: %s.%s%s", className, methodName, descriptor)
		}
		return fn(vm, args)
	}

	cls, err := vm.Classes.Load(className)
	if err != nil {
		return rt.Value{}, false, err
	}
	m, ok := cls.MethodByNameAndDescriptor(methodName, descriptor)
	if !ok {
		return rt.Value{}, false, fmt.Errorf("method not found: %s.%s%s", className, methodName, descriptor)
	}
	if !m.HasFlag(requiredFlags) {
		return rt.Value{}, false, fmt.Errorf("method not found: %s.%s%s (access flags mismatch)", className, methodName, descriptor)
	}
	return Call(vm, cls.ClassFile, m, args)
}

// InvokeStatic resolves and calls a static method; the receiver is
// absent, and <init>/<clinit> targets are rejected at decode time
// (classfile.validateCode), not here.
func InvokeStatic(vm *rt.VM, pool *classfile.Pool, methodRefIdx uint16) (rt.Value, bool, error) {
	className, methodName, descriptor, err := pool.RefAt(methodRefIdx, classfile.TagMethodref)
	if err != nil {
		return rt.Value{}, false, err
	}
	params, _, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return rt.Value{}, false, err
	}

	args, err := popArgs(vm.Current, len(params), false)
	if err != nil {
		return rt.Value{}, false, err
	}

	if native.HostClasses[className] {
		fn, ok := native.Lookup(className, methodName, descriptor)
		if !ok {
			return rt.Value{}, false, fmt.Errorf("native method not found: %s.%s%s", className, methodName, descriptor)
		}
		return fn(vm, args)
	}

	cls, err := vm.Classes.Load(className)
	if err != nil {
		return rt.Value{}, false, err
	}
	m, ok := cls.MethodByNameAndDescriptor(methodName, descriptor)
	if !ok {
		return rt.Value{}, false, fmt.Errorf("method not found: %s.%s%s", className, methodName, descriptor)
	}
	if !m.HasFlag(classfile.AccStatic) {
		return rt.Value{}, false, fmt.Errorf("%s.%s%s is not static", className, methodName, descriptor)
	}
	return Call(vm, cls.ClassFile, m, args)
}

// popArgs pops one operand-stack value per parameter off the caller
// frame's stack, in left-to-right order (plus one more for the
// receiver, if any). A long/double parameter still occupies only a
// single operand-stack slot — it's the locals side that doubles, via
// setParams/Frame.SetLocal — so popArgs must be driven by paramCount,
// not classfile.ParamSlots' locals-width count: the original source's
// prologue reused a single "top of stack" variable across iterations
// and ended up aliasing the same popped value into multiple parameter
// slots when a parameter was wide; this walks the descriptor's param
// list and pops exactly one value per parameter, never reusing a
// popped value for a second slot and never over-popping for wide ones.
func popArgs(f *rt.Frame, paramCount int, withReceiver bool) ([]rt.Value, error) {
	total := paramCount
	if withReceiver {
		total++
	}
	raw := make([]rt.Value, total)
	for i := total - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return nil, fmt.Errorf("popping call argument: %w", err)
		}
		raw[i] = v
	}
	return raw, nil
}

// LoadFrameParams is exported for callers (e.g. the launcher) that
// need to seed a synthetic root frame's locals directly rather than
// through the operand-stack popping path Invoke/InvokeStatic use.
func LoadFrameParams(f *rt.Frame, args []rt.Value) { setParams(f, args) }
