package disasm

import (
	"strings"

	"github.com/mjvm/mjvm/internal/classfile"
)

// javaType renders a field descriptor in Java source-like notation
// ("int", "java.lang.String", "int[][]") for signature lines. Falls
// back to the raw descriptor if it fails to parse — disassembly never
// aborts on a malformed descriptor, it just prints what it can.
func javaType(descriptor string) string {
	tok, _, err := classfile.ParseFieldDescriptor(descriptor)
	if err != nil {
		return descriptor
	}
	return tokenType(tok)
}

func tokenType(tok classfile.DescToken) string {
	switch tok.Kind {
	case classfile.DescByte:
		return "byte"
	case classfile.DescChar:
		return "char"
	case classfile.DescDouble:
		return "double"
	case classfile.DescFloat:
		return "float"
	case classfile.DescInt:
		return "int"
	case classfile.DescLong:
		return "long"
	case classfile.DescShort:
		return "short"
	case classfile.DescBoolean:
		return "boolean"
	case classfile.DescVoid:
		return "void"
	case classfile.DescRef:
		return strings.ReplaceAll(tok.RefName, "/", ".")
	case classfile.DescArray:
		return tokenType(*tok.Elem) + "[]"
	default:
		return "?"
	}
}

// methodSignature renders "returnType name(paramType, paramType, …)"
// for a method, falling back to the raw descriptor on parse failure.
func methodSignature(name, descriptor string) string {
	params, ret, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return name + descriptor
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = tokenType(p)
	}
	if name == "<init>" {
		return "<init>(" + strings.Join(parts, ", ") + ")"
	}
	return tokenType(ret) + " " + name + "(" + strings.Join(parts, ", ") + ")"
}
