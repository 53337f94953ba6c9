package testutil

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
)

// FileLineNumber is where a test case was declared, so that a failure reported from the loop
// over a table of cases points at the case itself.
type FileLineNumber struct {
	File string
	Line int
}

func (fln FileLineNumber) String() string {
	if fln.File == "" || fln.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d: ", filepath.Base(fln.File), fln.Line)
}

// Errorf reports a failure on t prefixed with the location of the case.
func (fln FileLineNumber) Errorf(t testing.TB, format string, args ...interface{}) {
	t.Helper()
	t.Errorf(fln.String()+format, args...)
}

func caller(skip int) FileLineNumber {
	_, fn, ln, ok := runtime.Caller(skip + 1)
	if !ok {
		return FileLineNumber{}
	}
	return FileLineNumber{fn, ln}
}

// Case returns the location of the call to Case; use it inline in a table of cases.
func Case() FileLineNumber {
	return caller(1)
}

// MakeFileLineNumber returns the location of the call to the function which called it, for
// helpers that build whole cases.
func MakeFileLineNumber() FileLineNumber {
	return caller(2)
}
