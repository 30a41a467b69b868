package interp

import (
	"fmt"
	"math"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/native"
	"github.com/mjvm/mjvm/internal/opcode"
	"github.com/mjvm/mjvm/internal/rt"
)

// GETSTATIC/PUTSTATIC resolve a FieldRef and, for host classes, go
// through the native bridge; for user classes they read or write the
// field's slot in the owning VM's static-field store, seeded from the
// field's ConstantValue attribute on first access. GETFIELD/PUTFIELD
// are reachable but fall through to "not implemented", per spec.md
// §4.5.2: this core never allocates object instances (NEW is not
// implemented), so there is nothing for an instance field to live on.
func init() {
	handlers[opcode.GETSTATIC] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := u16be(f.Code.Code, f.PC+1)
		f.PC += 3
		v, err := resolveStaticGet(vm, f.Class.Pool, idx)
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, f.Push(v)
	}
	handlers[opcode.PUTSTATIC] = func(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
		idx := u16be(f.Code.Code, f.PC+1)
		f.PC += 3
		v, err := f.Pop()
		if err != nil {
			return ctrlContinue, rt.Value{}, err
		}
		return ctrlContinue, rt.Value{}, putStatic(vm, f.Class.Pool, idx, v)
	}
	handlers[opcode.GETFIELD] = notImplementedField
	handlers[opcode.PUTFIELD] = notImplementedField
}

func notImplementedField(vm *rt.VM, f *rt.Frame, op byte) (ctrl, rt.Value, error) {
	return ctrlContinue, rt.Value{}, fmt.Errorf("%w: instance fields (%#x)", ErrNotImplemented, op)
}

func resolveStaticGet(vm *rt.VM, pool *classfile.Pool, idx uint16) (rt.Value, error) {
	className, fieldName, _, err := pool.RefAt(idx, classfile.TagFieldref)
	if err != nil {
		return rt.Value{}, err
	}

	if native.HostClasses[className] {
		v, ok := native.ResolveStaticField(vm, className, fieldName)
		if !ok {
			return rt.Value{}, fmt.Errorf("native static field not found: %s.%s", className, fieldName)
		}
		return v, nil
	}

	cls, err := vm.Classes.Load(className)
	if err != nil {
		return rt.Value{}, err
	}
	key := className + "." + fieldName
	if v, ok := vm.Statics[key]; ok {
		return v, nil
	}
	v, err := initialStaticValue(cls.ClassFile, fieldName)
	if err != nil {
		return rt.Value{}, err
	}
	vm.Statics[key] = v
	return v, nil
}

func putStatic(vm *rt.VM, pool *classfile.Pool, idx uint16, v rt.Value) error {
	className, fieldName, _, err := pool.RefAt(idx, classfile.TagFieldref)
	if err != nil {
		return err
	}
	if native.HostClasses[className] {
		return fmt.Errorf("cannot write native static field: %s.%s", className, fieldName)
	}
	if _, err := vm.Classes.Load(className); err != nil {
		return err
	}
	vm.Statics[className+"."+fieldName] = v
	return nil
}

// initialStaticValue computes a static field's value the first time it
// is read: the constant from its ConstantValue attribute if it has
// one, else a zeroed value of the field's descriptor kind.
func initialStaticValue(cls *classfile.ClassFile, fieldName string) (rt.Value, error) {
	fld, ok := cls.FieldByName(fieldName)
	if !ok {
		return rt.Value{}, fmt.Errorf("field not found: %s.%s", cls.This, fieldName)
	}
	if attr, ok := fld.ConstantValue(); ok {
		return constantValueOf(cls.Pool, attr.ConstantValueIndex)
	}
	return zeroValueOf(fld.Descriptor), nil
}

func constantValueOf(pool *classfile.Pool, idx uint16) (rt.Value, error) {
	e, err := pool.CheckIndex(idx, classfile.TagInteger, classfile.TagFloat, classfile.TagLong, classfile.TagDouble, classfile.TagString)
	if err != nil {
		return rt.Value{}, err
	}
	switch e.Tag {
	case classfile.TagInteger:
		return rt.Int(int32(e.Bits32)), nil
	case classfile.TagFloat:
		return rt.Float(math.Float32frombits(e.Bits32)), nil
	case classfile.TagLong:
		return rt.Long(int64(uint64(e.BitsHi)<<32 | uint64(e.BitsLo))), nil
	case classfile.TagDouble:
		return rt.Double(math.Float64frombits(uint64(e.BitsHi)<<32 | uint64(e.BitsLo))), nil
	case classfile.TagString:
		return rt.Value{}, fmt.Errorf("%w: String ConstantValue", ErrNotImplemented)
	}
	return rt.Value{}, fmt.Errorf("unexpected ConstantValue tag %d", e.Tag)
}

func zeroValueOf(descriptor string) rt.Value {
	switch descriptor[0] {
	case 'J':
		return rt.Long(0)
	case 'F':
		return rt.Float(0)
	case 'D':
		return rt.Double(0)
	case 'L', '[':
		return rt.Ref(nil)
	default:
		return rt.Int(0)
	}
}
