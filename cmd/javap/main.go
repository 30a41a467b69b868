// Command javap disassembles one or more .class files to stdout.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mjvm/mjvm/internal/classfile"
	"github.com/mjvm/mjvm/internal/disasm"
)

var opts disasm.Options

var rootCmd = &cobra.Command{
	Use:   "javap [-clpsv] <classfile>...",
	Short: "Disassemble class files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVarP(&opts.Code, "code", "c", false, "print disassembled code")
	rootCmd.Flags().BoolVarP(&opts.Lines, "lines", "l", false, "print line number and local variable tables")
	rootCmd.Flags().BoolVarP(&opts.Private, "private", "p", false, "show private members")
	rootCmd.Flags().BoolVarP(&opts.Descriptors, "descriptors", "s", false, "print descriptor strings")
	rootCmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (implies -c -l -p -s, plus constant pool dump)")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, paths []string) error {
	for _, path := range paths {
		if err := disassembleFile(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func disassembleFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cls, err := classfile.Parse(f)
	if err != nil {
		return err
	}
	return disasm.Print(os.Stdout, cls, opts)
}
