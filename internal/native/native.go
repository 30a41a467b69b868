// Package native is the bridge between bytecode and host
// functionality for the minimal set of classes this machine never
// loads from a .class file: java/lang/System, java/lang/String, and
// java/io/PrintStream (spec.md §4.7).
package native

import (
	"fmt"
	"io"

	"github.com/mjvm/mjvm/internal/rt"
)

// HostClasses is the set of class names the bridge recognizes. A
// class reference that resolves to one of these never goes through
// classpath.Registry.Load.
var HostClasses = map[string]bool{
	"java/lang/System":    true,
	"java/lang/String":    true,
	"java/io/PrintStream": true,
}

// Func is a native method implementation: it receives the VM and the
// already-popped argument values (receiver first, for instance
// methods), and returns a result value plus whether the descriptor's
// return type is non-void.
type Func func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error)

// methods is the signature-keyed dispatch table, keyed exactly as
// "class/name.methodName(descriptor)", matching the teacher's
// gfunction MethodSignatures convention.
var methods map[string]Func

func init() {
	methods = map[string]Func{
		"java/io/PrintStream.print(Ljava/lang/String;)V":   printString(false),
		"java/io/PrintStream.println(Ljava/lang/String;)V": printString(true),
		"java/io/PrintStream.print(I)V":                     printInt(false),
		"java/io/PrintStream.println(I)V":                   printInt(true),
		"java/io/PrintStream.print(J)V":                      printLong(false),
		"java/io/PrintStream.println(J)V":                    printLong(true),
		"java/io/PrintStream.print(D)V":                       printDouble(false),
		"java/io/PrintStream.println(D)V":                     printDouble(true),
		"java/io/PrintStream.print(F)V":                       printFloat(false),
		"java/io/PrintStream.println(F)V":                     printFloat(true),
		"java/io/PrintStream.print(Z)V":                        printBool(false),
		"java/io/PrintStream.println(Z)V":                      printBool(true),
		"java/io/PrintStream.print(C)V":                         printChar(false),
		"java/io/PrintStream.println(C)V":                       printChar(true),
		"java/io/PrintStream.println()V":                        printlnEmpty,

		"java/lang/String.length()I":                  stringLength,
		"java/lang/String.charAt(I)C":                 stringCharAt,
		"java/lang/String.equals(Ljava/lang/Object;)Z": stringEquals,
		"java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;": stringConcat,
	}
}

// Lookup finds the native implementation for class.name+descriptor, in
// the "class/name.methodName(descriptor)" key form.
func Lookup(class, name, descriptor string) (Func, bool) {
	f, ok := methods[class+"."+name+descriptor]
	return f, ok
}

// ResolveStaticField handles GETSTATIC against java/lang/System: the
// out/err/in fields resolve to host standard streams wrapped as heap
// references (spec.md §4.7).
func ResolveStaticField(vm *rt.VM, class, name string) (rt.Value, bool) {
	if class != "java/lang/System" {
		return rt.Value{}, false
	}
	switch name {
	case "out":
		return rt.Ref(vm.Heap.AllocHostStream(vm.Stdout)), true
	case "err":
		return rt.Ref(vm.Heap.AllocHostStream(vm.Stderr)), true
	default:
		return rt.Value{}, false
	}
}

// StringBytes reads the modified-UTF8-decoded bytes backing a String
// heap reference; the payload is the Utf8 byte pointer itself, per
// spec.md §4.5.2's LDC note on string allocation.
func StringBytes(v rt.Value) []byte {
	if v.Ref == nil {
		return nil
	}
	return v.Ref.Payload.Bytes
}

// NewString allocates a String heap object backed by s's bytes.
func NewString(vm *rt.VM, s string) rt.Value {
	e := vm.Heap.AllocBytes(0)
	e.Payload.Bytes = []byte(s)
	return rt.Ref(e)
}

func streamWriter(vm *rt.VM, recv rt.Value) io.Writer {
	if recv.Ref != nil && recv.Ref.Payload.Stream != nil {
		return recv.Ref.Payload.Stream
	}
	return vm.Stdout
}

func printString(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		s := string(StringBytes(args[1]))
		return emit(vm, args[0], s, newline)
	}
}

func printInt(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		return emit(vm, args[0], fmt.Sprintf("%d", args[1].I32), newline)
	}
}

func printLong(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		return emit(vm, args[0], fmt.Sprintf("%d", args[1].I64), newline)
	}
}

func printDouble(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		return emit(vm, args[0], fmt.Sprintf("%g", args[1].F64), newline)
	}
}

func printFloat(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		return emit(vm, args[0], fmt.Sprintf("%g", args[1].F32), newline)
	}
}

func printBool(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		return emit(vm, args[0], fmt.Sprintf("%t", args[1].I32 != 0), newline)
	}
}

func printChar(newline bool) Func {
	return func(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
		return emit(vm, args[0], string(rune(args[1].I32)), newline)
	}
}

func printlnEmpty(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
	return emit(vm, args[0], "", true)
}

func emit(vm *rt.VM, recv rt.Value, s string, newline bool) (rt.Value, bool, error) {
	w := streamWriter(vm, recv)
	if newline {
		s += "\n"
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return rt.Value{}, false, err
	}
	return rt.Value{}, false, nil
}

func stringLength(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
	return rt.Int(int32(len(StringBytes(args[0])))), true, nil
}

func stringCharAt(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
	b := StringBytes(args[0])
	idx := args[1].I32
	if idx < 0 || int(idx) >= len(b) {
		return rt.Value{}, false, fmt.Errorf("String.charAt: index %d out of bounds for length %d", idx, len(b))
	}
	return rt.Int(int32(b[idx])), true, nil
}

func stringEquals(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
	other := args[1]
	if other.Ref == nil {
		return rt.Int(0), true, nil
	}
	eq := string(StringBytes(args[0])) == string(StringBytes(other))
	if eq {
		return rt.Int(1), true, nil
	}
	return rt.Int(0), true, nil
}

func stringConcat(vm *rt.VM, args []rt.Value) (rt.Value, bool, error) {
	s := string(StringBytes(args[0])) + string(StringBytes(args[1]))
	return NewString(vm, s), true, nil
}
