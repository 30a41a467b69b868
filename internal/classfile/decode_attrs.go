package classfile

import (
	"fmt"

	"github.com/mjvm/mjvm/internal/codec"
)

// decodeAttributes reads an attributes_count-prefixed list and
// dispatches each one by name, per spec.md §3.2. Attribute names the
// decoder does not recognize are kept verbatim as raw bytes rather
// than rejected.
func decodeAttributes(cr *codec.Reader, pool *Pool) ([]Attribute, error) {
	count := cr.ReadU2()
	if cr.Err != nil {
		return nil, wrapReadErr(cr.Err)
	}
	attrs := make([]Attribute, count)
	for i := range attrs {
		nameIdx := cr.ReadU2()
		length := cr.ReadU4()
		if cr.Err != nil {
			return nil, wrapReadErr(cr.Err)
		}
		name, err := pool.UTF8At(nameIdx)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute[%d] name", ErrIndex, i)
		}

		a, err := decodeOneAttribute(cr, pool, name, length)
		if err != nil {
			return nil, err
		}
		attrs[i] = a
	}
	return attrs, nil
}

func decodeOneAttribute(cr *codec.Reader, pool *Pool, name string, length uint32) (Attribute, error) {
	switch name {
	case "ConstantValue":
		idx := cr.ReadU2()
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		return Attribute{Name: name, Kind: AttrConstantValue, ConstantValueIndex: idx}, nil

	case "Code":
		code, err := decodeCodeAttribute(cr, pool)
		if err != nil {
			return Attribute{}, err
		}
		return Attribute{Name: name, Kind: AttrCode, Code: code}, nil

	case "Exceptions":
		n := cr.ReadU2()
		table := make([]uint16, n)
		for i := range table {
			table[i] = cr.ReadU2()
		}
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		return Attribute{Name: name, Kind: AttrExceptions, ExceptionIndexTable: table}, nil

	case "InnerClasses":
		n := cr.ReadU2()
		entries := make([]InnerClassEntry, n)
		for i := range entries {
			entries[i] = InnerClassEntry{
				InnerClassInfoIndex:   cr.ReadU2(),
				OuterClassInfoIndex:   cr.ReadU2(),
				InnerNameIndex:        cr.ReadU2(),
				InnerClassAccessFlags: cr.ReadU2(),
			}
		}
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		return Attribute{Name: name, Kind: AttrInnerClasses, InnerClasses: entries}, nil

	case "SourceFile":
		idx := cr.ReadU2()
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		file, err := pool.UTF8At(idx)
		if err != nil {
			return Attribute{}, fmt.Errorf("%w: SourceFile index", ErrIndex)
		}
		return Attribute{Name: name, Kind: AttrSourceFile, SourceFile: file}, nil

	case "Synthetic", "Deprecated":
		kind := AttrSynthetic
		if name == "Deprecated" {
			kind = AttrDeprecated
		}
		if length != 0 {
			return Attribute{}, fmt.Errorf("%w: %s attribute_length must be 0", ErrConstant, name)
		}
		return Attribute{Name: name, Kind: kind}, nil

	case "LineNumberTable":
		n := cr.ReadU2()
		entries := make([]LineNumberEntry, n)
		for i := range entries {
			entries[i] = LineNumberEntry{StartPC: cr.ReadU2(), LineNumber: cr.ReadU2()}
		}
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		return Attribute{Name: name, Kind: AttrLineNumberTable, LineNumbers: entries}, nil

	case "LocalVariableTable":
		n := cr.ReadU2()
		entries := make([]LocalVariableEntry, n)
		for i := range entries {
			startPC := cr.ReadU2()
			length := cr.ReadU2()
			nameIdx := cr.ReadU2()
			descIdx := cr.ReadU2()
			index := cr.ReadU2()
			if cr.Err != nil {
				return Attribute{}, wrapReadErr(cr.Err)
			}
			varName, err := pool.UTF8At(nameIdx)
			if err != nil {
				return Attribute{}, fmt.Errorf("%w: LocalVariableTable name_index", ErrIndex)
			}
			varDesc, err := pool.UTF8At(descIdx)
			if err != nil {
				return Attribute{}, fmt.Errorf("%w: LocalVariableTable descriptor_index", ErrIndex)
			}
			entries[i] = LocalVariableEntry{StartPC: startPC, Length: length, Name: varName, Descriptor: varDesc, Index: index}
		}
		return Attribute{Name: name, Kind: AttrLocalVariableTable, LocalVariables: entries}, nil

	case "BootstrapMethods":
		n := cr.ReadU2()
		methods := make([]BootstrapMethod, n)
		for i := range methods {
			ref := cr.ReadU2()
			argc := cr.ReadU2()
			args := make([]uint16, argc)
			for j := range args {
				args[j] = cr.ReadU2()
			}
			if cr.Err != nil {
				return Attribute{}, wrapReadErr(cr.Err)
			}
			methods[i] = BootstrapMethod{MethodRef: ref, Arguments: args}
		}
		return Attribute{Name: name, Kind: AttrBootstrapMethods, BootstrapMethods: methods}, nil

	case "StackMapTable":
		raw := cr.ReadBytes(int(length))
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		return Attribute{Name: name, Kind: AttrStackMapTable, Raw: raw}, nil

	default:
		raw := cr.ReadBytes(int(length))
		if cr.Err != nil {
			return Attribute{}, wrapReadErr(cr.Err)
		}
		return Attribute{Name: name, Kind: AttrUnknown, Raw: raw}, nil
	}
}

func decodeCodeAttribute(cr *codec.Reader, pool *Pool) (*CodeAttribute, error) {
	maxStack := cr.ReadU2()
	maxLocals := cr.ReadU2()
	codeLen := cr.ReadU4()
	if cr.Err != nil {
		return nil, wrapReadErr(cr.Err)
	}
	if codeLen == 0 {
		return nil, fmt.Errorf("%w: code_length must be > 0", ErrCode)
	}
	code := cr.ReadBytes(int(codeLen))
	if cr.Err != nil {
		return nil, wrapReadErr(cr.Err)
	}

	excCount := cr.ReadU2()
	if cr.Err != nil {
		return nil, wrapReadErr(cr.Err)
	}
	exceptions := make([]ExceptionHandler, excCount)
	for i := range exceptions {
		exceptions[i] = ExceptionHandler{
			StartPC:   cr.ReadU2(),
			EndPC:     cr.ReadU2(),
			HandlerPC: cr.ReadU2(),
			CatchType: cr.ReadU2(),
		}
	}
	if cr.Err != nil {
		return nil, wrapReadErr(cr.Err)
	}

	attrs, err := decodeAttributes(cr, pool)
	if err != nil {
		return nil, err
	}

	return &CodeAttribute{
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       code,
		Exceptions: exceptions,
		Attributes: attrs,
	}, nil
}
