// Command jvm launches a class on the bytecode machine: it resolves
// <main-class> on the classpath, runs its static initializers, and
// invokes main(String[]) with the trailing arguments.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/classpath"
	"github.com/mjvm/mjvm/internal/interp"
	"github.com/mjvm/mjvm/internal/native"
	"github.com/mjvm/mjvm/internal/rt"
)

var classpathFlag string

var rootCmd = &cobra.Command{
	Use:                   "jvm [-cp classpath] <main-class> [args...]",
	Short:                 "Run a class file on the bytecode machine",
	Args:                  cobra.MinimumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE:                  run,
}

func init() {
	rootCmd.Flags().StringVar(&classpathFlag, "classpath", "", "classpath (defaults to $CLASSPATH, then \".\")")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// java's own "-cp" spelling is a single dash followed by two letters,
// which pflag's shorthand mechanism (exactly one rune) cannot express
// directly; rewrite it to the long form before cobra parses argv.
func rewriteClasspathFlag(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		if a == "-cp" {
			a = "--classpath"
		}
		out = append(out, a)
	}
	return out
}

func main() {
	rootCmd.SetArgs(rewriteClasspathFlag(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progname(), err)
		os.Exit(1)
	}
}

func progname() string { return filepath.Base(os.Args[0]) }

func run(cmd *cobra.Command, args []string) error {
	mainClass, programArgs := args[0], args[1:]

	cp := classpathFlag
	if cp == "" {
		cp = os.Getenv("CLASSPATH")
	}
	roots := classpath.ParseClasspath(cp)

	classes := classpath.New(roots)
	vm := rt.NewVM(classes, os.Stdout, os.Stderr)
	classpath.SetInitHook(func(cls *classpath.Class, m *classfile.Method) error {
		_, _, err := interp.Call(vm, cls.ClassFile, m, nil)
		return err
	})

	cls, err := classes.Load(mainClass)
	if err != nil {
		return err
	}
	m, ok := cls.MethodByNameAndDescriptor("main", "([Ljava/lang/String;)V")
	if !ok {
		return fmt.Errorf("%s: no main([Ljava/lang/String;)V method", mainClass)
	}
	if !m.HasFlag(classfile.AccStatic) {
		return fmt.Errorf("%s.main([Ljava/lang/String;)V must be static", mainClass)
	}

	argsRef := buildStringArray(vm, programArgs)
	_, _, err = interp.Call(vm, cls.ClassFile, m, []rt.Value{rt.Ref(argsRef)})
	return err
}

func buildStringArray(vm *rt.VM, args []string) *rt.HeapEntry {
	e := vm.Heap.AllocArrayOfRef(len(args))
	for i, s := range args {
		e.Payload.ArrayOfRef[i] = native.NewString(vm, s).Ref
	}
	return e
}
