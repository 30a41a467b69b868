// Package disasm pretty-prints a parsed *classfile.ClassFile, the
// same model the loader and interpreter use — no re-parsing, and no
// round-trip back to bytes is attempted or required.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mjvm/mjvm/internal/classfile"
)

var sectionHeader = color.New(color.Bold)

// Options controls which sections javap prints, mirroring the -clpsv
// flags of spec.md §6.2 verbatim.
type Options struct {
	Code        bool // -c: disassembled bytecode
	Lines       bool // -l: line-number and local-variable tables
	Private     bool // -p: include private members
	Descriptors bool // -s: print raw descriptor strings alongside signatures
	Verbose     bool // -v: implies Code+Lines+Private+Descriptors, plus pool/metadata dump
}

// Resolve applies the -v implication rule before printing.
func (o Options) Resolve() Options {
	if o.Verbose {
		o.Code = true
		o.Lines = true
		o.Private = true
		o.Descriptors = true
	}
	return o
}

// Print writes a human-readable disassembly of cls to w.
func Print(w io.Writer, cls *classfile.ClassFile, opts Options) error {
	opts = opts.Resolve()

	sectionHeader.Fprintf(w, "%s\n", classHeader(cls))
	if cls.SuperName != "" {
		fmt.Fprintf(w, "  extends %s\n", strings.ReplaceAll(cls.SuperName, "/", "."))
	}
	for _, iface := range cls.Interfaces {
		fmt.Fprintf(w, "  implements %s\n", iface)
	}

	if opts.Verbose {
		fmt.Fprintf(w, "  minor version: %d\n", cls.MinorVersion)
		fmt.Fprintf(w, "  major version: %d\n", cls.MajorVersion)
		printPool(w, cls.Pool)
	}

	fmt.Fprintln(w, "{")
	for i := range cls.Fields {
		printField(w, &cls.Fields[i], opts)
	}
	for i := range cls.Methods {
		printMethod(w, cls, &cls.Methods[i], opts)
	}
	fmt.Fprintln(w, "}")
	return nil
}

func classHeader(cls *classfile.ClassFile) string {
	var b strings.Builder
	flags := accessFlagString(cls.AccessFlags, classFlagNames)
	if flags != "" {
		b.WriteString(flags)
		b.WriteByte(' ')
	}
	if cls.AccessFlags&classfile.AccInterface != 0 {
		b.WriteString("interface ")
	} else {
		b.WriteString("class ")
	}
	b.WriteString(cls.This)
	return b.String()
}

func printField(w io.Writer, f *classfile.Field, opts Options) {
	if !opts.Private && f.AccessFlags&classfile.AccPrivate != 0 {
		return
	}
	flags := accessFlagString(f.AccessFlags, memberFlagNames)
	if flags != "" {
		flags += " "
	}
	fmt.Fprintf(w, "  %s%s %s;\n", flags, javaType(f.Descriptor), f.Name)
	if opts.Descriptors {
		fmt.Fprintf(w, "    descriptor: %s\n", f.Descriptor)
	}
}
