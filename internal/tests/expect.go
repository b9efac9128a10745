package tests

import (
	"path/filepath"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ExpectPaths compares two lists of slash-separated relative paths, including
// their order.
func ExpectPaths(t *testing.T, want, got []string) {
	t.Helper()

	got = append([]string(nil), got...)
	for i, p := range got {
		got[i] = filepath.ToSlash(p)
	}

	if !cmp.Equal(want, got, cmpopts.EquateEmpty()) {
		t.Fatalf("unexpected paths:\n%s", cmp.Diff(want, got, cmpopts.EquateEmpty()))
	}
}

// ExpectOutput fails the test if got is not equal to want and prints a line
// diff of both.
func ExpectOutput(t *testing.T, want, got string) {
	t.Helper()

	if want != got {
		t.Fatalf("unexpected output:\n%s\n\nwant:\n%q\n\ngot:\n%q", diff.LineDiff(want, got), want, got)
	}
}
