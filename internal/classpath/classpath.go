// Package classpath is the class registry and linker: it locates
// class files on a search path, decodes and caches them, links
// superclasses, detects circularity, and runs <clinit> (spec.md §4.3).
package classpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/trace"
)

// ErrNotFound is returned when name cannot be located on any search root.
var ErrNotFound = errors.New("class not found on classpath")

// ErrCircular is returned when a superclass chain refers back to a
// class already being linked.
var ErrCircular = errors.New("circular superclass chain")

// ErrNameMismatch is returned when the decoded this_class does not
// match the name used to load the file.
var ErrNameMismatch = errors.New("class name does not match file contents")

// Class wraps a decoded classfile.ClassFile with the registry's own
// linkage bookkeeping: a non-owning back-pointer to the linked
// superclass (SuperLink), and an idempotency flag for <clinit>.
type Class struct {
	*classfile.ClassFile
	SuperLink *Class
	InitDone  bool
}

// Registry is the process-wide (or per-VM) table of loaded classes
// plus the ordered list of search roots, grounded on classloader.go's
// singly-linked loaded-class list and root-path slice.
type Registry struct {
	roots   []string
	loaded  map[string]*Class
	loading map[string]bool // in-progress, for circularity detection
}

// New builds a registry over the given search roots, in order.
func New(roots []string) *Registry {
	return &Registry{
		roots:   roots,
		loaded:  make(map[string]*Class),
		loading: make(map[string]bool),
	}
}

// ParseClasspath splits a platform-separated classpath string
// (":" on POSIX, ";" on Windows) via filepath.SplitList, which never
// mutates its input — the documented fix for the original setclasspath
// bug of splitting argv's string in place.
func ParseClasspath(cp string) []string {
	if cp == "" {
		return []string{"."}
	}
	return filepath.SplitList(cp)
}

// Load resolves name (internal form, "java/lang/Object") to a linked,
// initialized Class, loading it and its superclass chain from the
// search roots if not already cached (spec.md §4.3 load/init).
func (r *Registry) Load(name string) (*Class, error) {
	if c, ok := r.loaded[name]; ok {
		return c, nil
	}

	cls, err := r.loadOne(name)
	if err != nil {
		return nil, err
	}

	if err := r.linkChain(cls, map[string]bool{name: true}); err != nil {
		return nil, err
	}

	r.loaded[name] = cls
	if err := r.initClass(cls); err != nil {
		return nil, err
	}
	return cls, nil
}

func (r *Registry) loadOne(name string) (*Class, error) {
	for _, root := range r.roots {
		path := filepath.Join(root, name+".class")
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		defer f.Close()

		cf, err := classfile.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s from %s: %w", name, path, err)
		}
		if cf.This != name {
			return nil, fmt.Errorf("%w: requested %s, file declares %s", ErrNameMismatch, name, cf.This)
		}
		trace.Trace(fmt.Sprintf("loaded %s from %s", name, path))
		return &Class{ClassFile: cf}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// linkChain recursively loads and links the superclass chain,
// detecting cycles by tracking the set of class names already visited
// in this particular chain walk.
func (r *Registry) linkChain(cls *Class, seen map[string]bool) error {
	if cls.SuperName == "" || cls.SuperName == "java/lang/Object" {
		return nil
	}
	if seen[cls.SuperName] {
		return fmt.Errorf("%w: %s", ErrCircular, cls.SuperName)
	}

	if super, ok := r.loaded[cls.SuperName]; ok {
		cls.SuperLink = super
		return nil
	}

	super, err := r.loadOne(cls.SuperName)
	if err != nil {
		return err
	}
	seen[cls.SuperName] = true
	if err := r.linkChain(super, seen); err != nil {
		return err
	}
	r.loaded[cls.SuperName] = super
	cls.SuperLink = super
	return nil
}

// initClass runs <clinit>, recursing into the superclass first, and is
// idempotent via InitDone (spec.md §4.3's init()).
func (r *Registry) initClass(cls *Class) error {
	if cls.InitDone {
		return nil
	}
	cls.InitDone = true

	if cls.SuperLink != nil {
		if err := r.initClass(cls.SuperLink); err != nil {
			return err
		}
	}

	m, ok := cls.MethodByNameAndDescriptor("<clinit>", "()V")
	if !ok {
		return nil
	}
	if cls.MajorVersion >= 51 && !m.HasFlag(classfile.AccStatic) {
		return fmt.Errorf("%s.<clinit>()V must be static in class file version %d", cls.This, cls.MajorVersion)
	}
	if initHook != nil {
		return initHook(cls, m)
	}
	return nil
}

// initHook, when set, is invoked to execute a resolved <clinit>
// method. The registry package has no dependency on the interpreter;
// the VM wires this at startup to avoid an import cycle.
var initHook func(cls *Class, m *classfile.Method) error

// SetInitHook installs the callback the registry uses to actually run
// a class's <clinit>.
func SetInitHook(hook func(cls *Class, m *classfile.Method) error) {
	initHook = hook
}

// Loaded returns every class currently in the registry, in load order
// is not guaranteed (map iteration order).
func (r *Registry) Loaded() []*Class {
	out := make([]*Class, 0, len(r.loaded))
	for _, c := range r.loaded {
		out = append(out, c)
	}
	return out
}
