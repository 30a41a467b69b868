package classfile

import (
	"fmt"

	"github.com/mjvm/mjvm/internal/codec"
)

// decodePool implements spec.md §4.2's two-pass constant pool decode:
// pass A reads every slot by tag, skipping the dead placeholder slot
// that follows a Long or Double; pass B ("checkindex") validates that
// every index a slot refers to resolves to an entry of the expected
// tag, so bad forward/backward references are caught before anything
// else touches the pool.
func decodePool(cr *codec.Reader, count uint16) (*Pool, error) {
	pool := &Pool{Entries: make([]Entry, count)}

	for i := 1; i < int(count); i++ {
		tag := Tag(cr.ReadU1())
		if cr.Err != nil {
			return nil, wrapReadErr(cr.Err)
		}
		entry := Entry{Tag: tag}

		switch tag {
		case TagUTF8:
			n := cr.ReadU2()
			b := cr.ReadBytes(int(n))
			if cr.Err != nil {
				return nil, wrapReadErr(cr.Err)
			}
			entry.UTF8 = codec.DecodeModifiedUTF8(b)

		case TagInteger, TagFloat:
			entry.Bits32 = cr.ReadU4()

		case TagLong, TagDouble:
			entry.BitsHi = cr.ReadU4()
			entry.BitsLo = cr.ReadU4()
			if cr.Err != nil {
				return nil, wrapReadErr(cr.Err)
			}
			// the slot after a Long/Double is unusable (JVM §4.4.5).
			if i+1 >= int(count) {
				return nil, fmt.Errorf("%w: long/double at last slot", ErrConstant)
			}
			pool.Entries[i] = entry
			i++
			pool.Entries[i] = Entry{Tag: 0}
			continue

		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			entry.NameIndex = cr.ReadU2()

		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			entry.ClassIndex = cr.ReadU2()
			entry.NameAndTypeIdx = cr.ReadU2()

		case TagNameAndType:
			entry.NameIndex = cr.ReadU2()
			entry.DescriptorIndex = cr.ReadU2()

		case TagMethodHandle:
			entry.ReferenceKind = cr.ReadU1()
			entry.ReferenceIndex = cr.ReadU2()

		case TagDynamic, TagInvokeDynamic:
			entry.BootstrapAttrIndex = cr.ReadU2()
			entry.NameAndTypeIdx = cr.ReadU2()

		default:
			return nil, fmt.Errorf("%w: %d", ErrTag, tag)
		}

		if cr.Err != nil {
			return nil, wrapReadErr(cr.Err)
		}
		pool.Entries[i] = entry
	}

	if err := checkPoolReferences(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// checkPoolReferences is pass B: every entry that names another slot
// must resolve, with the right tag, before decoding continues.
func checkPoolReferences(pool *Pool) error {
	for i := 1; i < len(pool.Entries); i++ {
		e := pool.Entries[i]
		switch e.Tag {
		case TagClass, TagMethodType, TagModule, TagPackage:
			if _, err := pool.CheckIndex(e.NameIndex, TagUTF8); err != nil {
				return fmt.Errorf("%w: constant[%d] name_index", ErrIndex, i)
			}
		case TagString:
			if _, err := pool.CheckIndex(e.NameIndex, TagUTF8); err != nil {
				return fmt.Errorf("%w: constant[%d] string_index", ErrIndex, i)
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			if _, err := pool.CheckIndex(e.ClassIndex, TagClass); err != nil {
				return fmt.Errorf("%w: constant[%d] class_index", ErrIndex, i)
			}
			if _, err := pool.CheckIndex(e.NameAndTypeIdx, TagNameAndType); err != nil {
				return fmt.Errorf("%w: constant[%d] name_and_type_index", ErrIndex, i)
			}
		case TagNameAndType:
			if _, err := pool.CheckIndex(e.NameIndex, TagUTF8); err != nil {
				return fmt.Errorf("%w: constant[%d] name_index", ErrIndex, i)
			}
			if _, err := pool.CheckIndex(e.DescriptorIndex, TagUTF8); err != nil {
				return fmt.Errorf("%w: constant[%d] descriptor_index", ErrIndex, i)
			}
		case TagMethodHandle:
			if e.ReferenceKind < RefGetField || e.ReferenceKind > RefInvokeInterface {
				return fmt.Errorf("%w: constant[%d] reference_kind %d", ErrKind, i, e.ReferenceKind)
			}
			if int(e.ReferenceIndex) == 0 || int(e.ReferenceIndex) >= len(pool.Entries) {
				return fmt.Errorf("%w: constant[%d] reference_index", ErrIndex, i)
			}
		case TagDynamic, TagInvokeDynamic:
			if _, err := pool.CheckIndex(e.NameAndTypeIdx, TagNameAndType); err != nil {
				return fmt.Errorf("%w: constant[%d] name_and_type_index", ErrIndex, i)
			}
		}
	}
	return nil
}
