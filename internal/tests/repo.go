package tests

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// Must is a function that takes a value and an error and returns the value. If
// the error is not nil, Must panics with the error.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// File is a file of a test repository.
type File struct {
	Path    string
	Content string
}

// Files creates File values with the given paths and the same content.
func Files(content string, paths ...string) []File {
	out := make([]File, len(paths))
	for i, path := range paths {
		out[i] = File{Path: path, Content: content}
	}
	return out
}

// CreateRepo writes files below root in fsys, creating the parent directories
// as needed. File paths are slash-separated and relative to root.
func CreateRepo(t *testing.T, fsys afero.Fs, root string, files []File) {
	t.Helper()

	if err := fsys.MkdirAll(root, 0755); err != nil {
		t.Fatalf("create root %s: %v", root, err)
	}

	for _, file := range files {
		path := filepath.Join(root, filepath.FromSlash(file.Path))
		dir := filepath.Dir(path)
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("create dummy dir %s: %v", dir, err)
		}
		if err := afero.WriteFile(fsys, path, []byte(file.Content), 0644); err != nil {
			t.Fatalf("create dummy file %s: %v", path, err)
		}
	}
}

// MemRepo returns an in-memory filesystem that contains files below root.
func MemRepo(t *testing.T, root string, files []File) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	CreateRepo(t, fsys, root, files)
	return fsys
}
