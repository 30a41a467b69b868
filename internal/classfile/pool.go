package classfile

// Tag identifies the variant of a constant-pool entry (JVM §4.4).
type Tag uint8

const (
	TagUTF8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// Entry is a single constant-pool slot: a tagged variant, as described
// in spec.md §3.1. Only the fields relevant to Tag are meaningful; the
// rest are zero. Slot 0 is reserved, and the slot after a Long/Double
// is an unusable placeholder (Tag == 0).
type Entry struct {
	Tag Tag

	// Utf8
	UTF8 string

	// Integer / Float: raw bits, reinterpreted at the point of use
	Bits32 uint32

	// Long / Double: raw bits
	BitsHi, BitsLo uint32

	// Class, String, MethodType, Module, Package: index into pool
	// pointing at a Utf8 (Class/MethodType/Module/Package) or itself
	// a Utf8 index (String).
	NameIndex uint16

	// Fieldref / Methodref / InterfaceMethodref
	ClassIndex      uint16
	NameAndTypeIdx  uint16

	// NameAndType
	DescriptorIndex uint16

	// MethodHandle
	ReferenceKind  uint8
	ReferenceIndex uint16

	// Dynamic / InvokeDynamic
	BootstrapAttrIndex uint16
}

// ReferenceKind values for MethodHandle entries (JVM §5.4.3.5).
const (
	RefGetField         = 1
	RefGetStatic        = 2
	RefPutField         = 3
	RefPutStatic        = 4
	RefInvokeVirtual    = 5
	RefInvokeStatic     = 6
	RefInvokeSpecial    = 7
	RefNewInvokeSpecial = 8
	RefInvokeInterface  = 9
)

// Pool is the constant pool of a class, 1-indexed: Entries[0] is the
// unused reserved slot.
type Pool struct {
	Entries []Entry
}

// Count returns the number of addressable slots, including the
// reserved slot 0.
func (p *Pool) Count() int { return len(p.Entries) }

// entryAt returns the entry at index, or an error if index is out of
// the valid range [1, len).
func (p *Pool) entryAt(index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(p.Entries) {
		return Entry{}, ErrIndex
	}
	return p.Entries[index], nil
}

// CheckIndex verifies that index resolves to an entry whose tag is in
// wantTags. Grounded on classloader's pass-B referential-integrity
// check ("checkindex") in spec.md §4.2 step 3.
func (p *Pool) CheckIndex(index uint16, wantTags ...Tag) (Entry, error) {
	e, err := p.entryAt(index)
	if err != nil {
		return Entry{}, err
	}
	for _, t := range wantTags {
		if e.Tag == t {
			return e, nil
		}
	}
	return Entry{}, ErrConstant
}

// UTF8At resolves index to a Utf8 entry's string, or an error.
func (p *Pool) UTF8At(index uint16) (string, error) {
	e, err := p.CheckIndex(index, TagUTF8)
	if err != nil {
		return "", err
	}
	return e.UTF8, nil
}

// ClassNameAt resolves a Class entry at index to its name string.
func (p *Pool) ClassNameAt(index uint16) (string, error) {
	e, err := p.CheckIndex(index, TagClass)
	if err != nil {
		return "", err
	}
	return p.UTF8At(e.NameIndex)
}

// NameAndTypeAt resolves a NameAndType entry to its (name, descriptor)
// pair of strings.
func (p *Pool) NameAndTypeAt(index uint16) (name, desc string, err error) {
	e, err := p.CheckIndex(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	name, err = p.UTF8At(e.NameIndex)
	if err != nil {
		return "", "", err
	}
	desc, err = p.UTF8At(e.DescriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// RefAt resolves a Fieldref/Methodref/InterfaceMethodRef entry at
// index into (className, memberName, descriptor).
func (p *Pool) RefAt(index uint16, tag Tag) (class, name, desc string, err error) {
	e, err := p.CheckIndex(index, tag)
	if err != nil {
		return "", "", "", err
	}
	class, err = p.ClassNameAt(e.ClassIndex)
	if err != nil {
		return "", "", "", err
	}
	name, desc, err = p.NameAndTypeAt(e.NameAndTypeIdx)
	if err != nil {
		return "", "", "", err
	}
	return class, name, desc, nil
}
