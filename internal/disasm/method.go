package disasm

import (
	"fmt"
	"io"

	"github.com/mjvm/mjvm/internal/classfile"
)

func printMethod(w io.Writer, cls *classfile.ClassFile, m *classfile.Method, opts Options) {
	if !opts.Private && m.AccessFlags&classfile.AccPrivate != 0 {
		return
	}
	flags := accessFlagString(m.AccessFlags, methodFlagNames)
	if flags != "" {
		flags += " "
	}
	fmt.Fprintf(w, "\n  %s%s;\n", flags, methodSignature(m.Name, m.Descriptor))
	if opts.Descriptors {
		fmt.Fprintf(w, "    descriptor: %s\n", m.Descriptor)
	}

	code, ok := m.Code()
	if !ok {
		return
	}
	if opts.Code {
		fmt.Fprintln(w, "    Code:")
		printCode(w, cls.Pool, code)
	}
	if opts.Lines {
		printLineTable(w, code)
		printLocalVariableTable(w, code)
	}
}

func printLineTable(w io.Writer, code *classfile.CodeAttribute) {
	for _, a := range code.Attributes {
		if a.Kind != classfile.AttrLineNumberTable {
			continue
		}
		fmt.Fprintln(w, "    LineNumberTable:")
		for _, e := range a.LineNumbers {
			fmt.Fprintf(w, "      line %d: %d\n", e.LineNumber, e.StartPC)
		}
	}
}

func printLocalVariableTable(w io.Writer, code *classfile.CodeAttribute) {
	for _, a := range code.Attributes {
		if a.Kind != classfile.AttrLocalVariableTable {
			continue
		}
		fmt.Fprintln(w, "    LocalVariableTable:")
		fmt.Fprintln(w, "      Start  Length  Slot  Name   Signature")
		for _, e := range a.LocalVariables {
			fmt.Fprintf(w, "      %-6d %-7d %-5d %-6s %s\n",
				e.StartPC, e.Length, e.Index, e.Name, e.Descriptor)
		}
	}
}
