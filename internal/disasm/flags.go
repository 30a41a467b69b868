package disasm

import (
	"strings"

	"github.com/mjvm/mjvm/internal/classfile"
)

type flagName struct {
	mask uint16
	name string
}

var classFlagNames = []flagName{
	{classfile.AccPublic, "public"},
	{classfile.AccFinal, "final"},
	{classfile.AccAbstract, "abstract"},
	{classfile.AccSynthetic, "synthetic"},
	{classfile.AccAnnotation, "annotation"},
	{classfile.AccEnum, "enum"},
	{classfile.AccModule, "module"},
}

var memberFlagNames = []flagName{
	{classfile.AccPublic, "public"},
	{classfile.AccPrivate, "private"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccFinal, "final"},
	{classfile.AccVolatile, "volatile"},
	{classfile.AccTransient, "transient"},
	{classfile.AccSynthetic, "synthetic"},
}

var methodFlagNames = []flagName{
	{classfile.AccPublic, "public"},
	{classfile.AccPrivate, "private"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccFinal, "final"},
	{classfile.AccSynchronized, "synchronized"},
	{classfile.AccBridge, "bridge"},
	{classfile.AccVarargs, "varargs"},
	{classfile.AccNative, "native"},
	{classfile.AccAbstract, "abstract"},
	{classfile.AccStrict, "strictfp"},
	{classfile.AccSynthetic, "synthetic"},
}

func accessFlagString(flags uint16, names []flagName) string {
	var parts []string
	for _, fn := range names {
		if flags&fn.mask == fn.mask {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, " ")
}
