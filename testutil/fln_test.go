package testutil_test

import (
	"strings"
	"testing"

	"github.com/leftmike/sqlmirror/testutil"
)

func here() testutil.FileLineNumber {
	return testutil.MakeFileLineNumber()
}

func TestFileLineNumber(t *testing.T) {
	cases := []struct {
		fln  testutil.FileLineNumber
		line int
	}{
		{fln: testutil.Case(), line: 19},
		{fln: here(), line: 20},
	}

	for _, c := range cases {
		s := c.fln.String()
		if !strings.HasPrefix(s, "fln_test.go:") || c.fln.Line != c.line {
			t.Errorf("FileLineNumber got %s want fln_test.go:%d: ", s, c.line)
		}
	}

	if s := (testutil.FileLineNumber{}).String(); s != "" {
		t.Errorf("FileLineNumber{}.String() got %q want \"\"", s)
	}
}
