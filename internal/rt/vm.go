package rt

import (
	"io"

	"github.com/mjvm/mjvm/internal/classpath"
)

// VM is the explicit execution context threaded through the
// interpreter and native bridge: the heap, the class registry, the
// current frame, and the host streams native code writes to. The
// original source keeps all of this as package-level globals; SPEC_FULL
// §12 records the choice to pass it explicitly instead, so no package
// here holds hidden process-wide state.
type VM struct {
	Heap    *Heap
	Classes *classpath.Registry
	Current *Frame
	Stdout  io.Writer
	Stderr  io.Writer

	// Statics holds user-class static field values, keyed by
	// "class/Name.fieldName". Populated lazily on first GETSTATIC,
	// seeded from the field's ConstantValue attribute if present.
	Statics map[string]Value
}

// NewVM builds a VM over an already-configured class registry.
func NewVM(classes *classpath.Registry, stdout, stderr io.Writer) *VM {
	return &VM{
		Heap:    NewHeap(),
		Classes: classes,
		Stdout:  stdout,
		Stderr:  stderr,
		Statics: make(map[string]Value),
	}
}

// PushFrame makes f the current frame, chaining the previous current
// frame as its parent.
func (vm *VM) PushFrame(f *Frame) {
	f.Parent = vm.Current
	vm.Current = f
}

// PopFrame discards the current frame and restores its parent.
func (vm *VM) PopFrame() {
	if vm.Current != nil {
		vm.Current = vm.Current.Parent
	}
}
