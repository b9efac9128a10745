package find

import (
	"io/fs"
	"path/filepath"

	"github.com/modernice/flatten/internal/slice"
)

// DefaultDirs are the directory names that are pruned by SkipDefault. A pruned
// directory and everything beneath it is never listed.
var DefaultDirs = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	".next",
	".cache",
	".vercel",
	"coverage",
	"public",
}

// DefaultFiles are the file names that SkipDefault always rejects, regardless
// of their extension.
var DefaultFiles = []string{
	".DS_Store",
	"yarn.lock",
	"package-lock.json",
	"pnpm-lock.yaml",
	"aplanado.txt",
	"flatten.py",
	"tailwind.config.ts",
	"postcss.config.js",
	"eslint.config.js",
	"tsconfig.json",
	"tsconfig.app.json",
	"tsconfig.node.json",
	"vite.config.ts",
	"index.html",
}

// DefaultExtensions are the file extensions that SkipDefault lets through.
var DefaultExtensions = []string{
	".js", ".jsx", ".ts", ".tsx",
	".json", ".md",
	".py", ".env", ".lock", ".txt",
}

// Skip represents the filters that decide which directories are walked and
// which files are returned by a Finder. Dirs is the prune set of directory
// names, Files is the set of excluded file names and Extensions is the
// whitelist of file extensions. An empty Extensions list disables extension
// filtering. The Dir and File fields can be set to custom functions that
// exclude additional directories and files.
//
// A Skip is a value and is never modified by a Finder. It can be passed
// directly to New as an Option.
type Skip struct {
	Dirs       []string
	Files      []string
	Extensions []string

	Dir  func(Entry) bool
	File func(Entry) bool
}

// Entry describes a directory entry that is checked against a Skip. Path is
// the path of the entry relative to the walked root.
type Entry struct {
	fs.FileInfo
	Path string
}

// SkipNone returns a Skip that excludes nothing.
func SkipNone() Skip {
	return Skip{}
}

// SkipDefault returns a Skip that prunes DefaultDirs, rejects DefaultFiles and
// only accepts files with one of the DefaultExtensions.
func SkipDefault() Skip {
	return Skip{
		Dirs:       append([]string(nil), DefaultDirs...),
		Files:      append([]string(nil), DefaultFiles...),
		Extensions: append([]string(nil), DefaultExtensions...),
	}
}

func (s Skip) apply(f *Finder) {
	f.skip = s.compile()
}

// ExcludeDir reports whether the directory e must be pruned. A directory is
// pruned if its name is in Dirs or if the custom Dir function excludes it.
func (s Skip) ExcludeDir(e Entry) bool {
	return s.compile().excludeDir(e)
}

// ExcludeFile reports whether the file e must be left out. Name exclusion is
// checked before the extension whitelist, followed by the custom File
// function.
func (s Skip) ExcludeFile(e Entry) bool {
	_, excluded := s.compile().excludeFile(e)
	return excluded
}

// Extension returns the extension of the base name of path: the substring
// starting at the last dot, including the dot. It returns an empty string if
// the name has no dot.
func Extension(path string) string {
	return filepath.Ext(filepath.Base(path))
}

type compiledSkip struct {
	dirs       map[string]struct{}
	files      map[string]struct{}
	extensions map[string]struct{}
	dir        func(Entry) bool
	file       func(Entry) bool
}

func (s Skip) compile() *compiledSkip {
	return &compiledSkip{
		dirs:       slice.Set(s.Dirs),
		files:      slice.Set(s.Files),
		extensions: slice.Set(s.Extensions),
		dir:        s.Dir,
		file:       s.File,
	}
}

func (s *compiledSkip) excludeDir(e Entry) bool {
	if _, ok := s.dirs[e.Name()]; ok {
		return true
	}

	if s.dir != nil {
		return s.dir(e)
	}

	return false
}

func (s *compiledSkip) excludeFile(e Entry) (string, bool) {
	if _, ok := s.files[e.Name()]; ok {
		return "excluded name", true
	}

	if len(s.extensions) > 0 {
		if _, ok := s.extensions[Extension(e.Name())]; !ok {
			return "extension not allowed", true
		}
	}

	if s.file != nil && s.file(e) {
		return "custom filter", true
	}

	return "", false
}
