// Package trace is a small leveled logger in the spirit of the teacher's
// jacobin/trace package: level-gated Trace/Warning/Error calls writing to
// stderr, plus a class-format-error constructor that records the caller's
// file and line the way classloader.cfe() does.
package trace

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Level controls which messages SetLevel/Trace/Warning/Error emit.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelTrace
)

var (
	level  = LevelWarning
	logger = log.New(os.Stderr, "", 0)
)

// SetLevel changes the global verbosity. It is not safe to call
// concurrently with Trace/Warning/Error, matching the teacher's own
// startup-only logging configuration.
func SetLevel(l Level) { level = l }

// Trace emits a message only at LevelTrace or higher.
func Trace(msg string) {
	if level >= LevelTrace {
		logger.Println("[trace]", msg)
	}
}

// Warning emits a message at LevelWarning or higher.
func Warning(msg string) {
	if level >= LevelWarning {
		logger.Println("[warning]", msg)
	}
}

// Error always emits, regardless of level.
func Error(msg string) {
	logger.Println("[error]", msg)
}

// ClassFormatError builds a "Class Format Error: <msg>" error, annotated
// with the file and line of its caller, and logs it. It mirrors the
// teacher's cfe() helper in classloader/classloader.go.
func ClassFormatError(msg string) error {
	errMsg := "Class Format Error: " + msg

	pc, _, _, ok := runtime.Caller(1)
	if ok {
		fn := runtime.FuncForPC(pc)
		fileName, fileLine := fn.FileLine(pc)
		errMsg += "\n  detected by file: " + filepath.Base(fileName) +
			", line: " + strconv.Itoa(fileLine)
	}
	Error(errMsg)
	return fmt.Errorf("%s", errMsg)
}
