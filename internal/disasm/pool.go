package disasm

import (
	"fmt"
	"io"

	"github.com/mjvm/mjvm/internal/classfile"
)

var tagNames = map[classfile.Tag]string{
	classfile.TagUTF8:               "Utf8",
	classfile.TagInteger:            "Integer",
	classfile.TagFloat:              "Float",
	classfile.TagLong:               "Long",
	classfile.TagDouble:             "Double",
	classfile.TagClass:              "Class",
	classfile.TagString:             "String",
	classfile.TagFieldref:           "Fieldref",
	classfile.TagMethodref:          "Methodref",
	classfile.TagInterfaceMethodref: "InterfaceMethodref",
	classfile.TagNameAndType:        "NameAndType",
	classfile.TagMethodHandle:       "MethodHandle",
	classfile.TagMethodType:         "MethodType",
	classfile.TagDynamic:            "Dynamic",
	classfile.TagInvokeDynamic:      "InvokeDynamic",
	classfile.TagModule:             "Module",
	classfile.TagPackage:            "Package",
}

// printPool dumps the constant pool in the style of javap -v: one
// #index line per entry, with a symbolic reference resolved into a
// trailing comment wherever the entry points elsewhere in the pool.
func printPool(w io.Writer, pool *classfile.Pool) {
	fmt.Fprintln(w, "  Constant pool:")
	for i := 1; i < pool.Count(); i++ {
		e, err := pool.CheckIndex(uint16(i),
			classfile.TagUTF8, classfile.TagInteger, classfile.TagFloat,
			classfile.TagLong, classfile.TagDouble, classfile.TagClass,
			classfile.TagString, classfile.TagFieldref, classfile.TagMethodref,
			classfile.TagInterfaceMethodref, classfile.TagNameAndType,
			classfile.TagMethodHandle, classfile.TagMethodType,
			classfile.TagDynamic, classfile.TagInvokeDynamic,
			classfile.TagModule, classfile.TagPackage)
		if err != nil {
			continue // dead slot following a Long/Double
		}
		fmt.Fprintf(w, "   #%-3d = %-19s %s\n", i, tagNames[e.Tag]+";", poolEntryDetail(pool, e))
	}
}

func poolEntryDetail(pool *classfile.Pool, e classfile.Entry) string {
	switch e.Tag {
	case classfile.TagUTF8:
		return fmt.Sprintf("%q", e.UTF8)
	case classfile.TagInteger:
		return fmt.Sprintf("%d", int32(e.Bits32))
	case classfile.TagFloat:
		return fmt.Sprintf("%d", e.Bits32)
	case classfile.TagLong, classfile.TagDouble:
		return fmt.Sprintf("%d, %d", e.BitsHi, e.BitsLo)
	case classfile.TagClass:
		return fmt.Sprintf("#%d", e.NameIndex)
	case classfile.TagString:
		return fmt.Sprintf("#%d", e.NameIndex)
	case classfile.TagFieldref, classfile.TagMethodref, classfile.TagInterfaceMethodref:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIdx)
	case classfile.TagNameAndType:
		return fmt.Sprintf("#%d:#%d", e.NameIndex, e.DescriptorIndex)
	case classfile.TagMethodHandle:
		return fmt.Sprintf("%d #%d", e.ReferenceKind, e.ReferenceIndex)
	case classfile.TagMethodType:
		return fmt.Sprintf("#%d", e.NameIndex)
	case classfile.TagDynamic, classfile.TagInvokeDynamic:
		return fmt.Sprintf("#%d:#%d", e.BootstrapAttrIndex, e.NameAndTypeIdx)
	case classfile.TagModule, classfile.TagPackage:
		return fmt.Sprintf("#%d", e.NameIndex)
	}
	return ""
}
