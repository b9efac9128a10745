package find

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modernice/flatten/internal"
	"github.com/modernice/flatten/internal/slice"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

// Finder walks a directory tree top-down and yields the files that pass its
// filters. Directories are pruned before they are listed, so nothing below a
// pruned directory is ever visited. Within a directory, files are yielded in
// name order before any of its subdirectories are walked, and subdirectories
// are walked in name order. To create a Finder, use New with an afero.Fs and
// optional Options.
type Finder struct {
	fs      afero.Fs
	skip    *compiledSkip
	include []string
	exclude []string
	log     *slog.Logger
}

// File is a file yielded by a Finder. Path is relative to the walked root and
// uses the platform path separator. FSPath is the path of the file within the
// Finder's filesystem.
type File struct {
	Path   string
	FSPath string
}

// Option is an interface that allows for optional configuration of a Finder.
// Skip values implement Option.
type Option interface {
	apply(*Finder)
}

type optionFunc func(*Finder)

func (opt optionFunc) apply(f *Finder) {
	opt(f)
}

// WithLogger returns an Option that sets the logger for a Finder. Skipped
// entries are logged at debug level, unreadable directories as warnings.
func WithLogger(h slog.Handler) Option {
	return optionFunc(func(f *Finder) {
		f.log = slog.New(h)
	})
}

// Include adds glob patterns that a file's slash-separated relative path must
// match for the file to be yielded. Patterns use doublestar syntax, so "**"
// matches across directories. Without Include patterns, every file that passes
// the Skip filters is yielded.
func Include(pattern ...string) Option {
	pattern = slice.Map(pattern, strings.TrimSpace)
	pattern = slice.NoZero(pattern)
	return optionFunc(func(f *Finder) {
		f.include = append(f.include, pattern...)
	})
}

// Exclude adds glob patterns of relative file paths that must not be yielded.
func Exclude(pattern ...string) Option {
	pattern = slice.Map(pattern, strings.TrimSpace)
	pattern = slice.NoZero(pattern)
	return optionFunc(func(f *Finder) {
		f.exclude = append(f.exclude, pattern...)
	})
}

// New returns a Finder that walks the given filesystem. If no Skip is
// provided, SkipDefault is used.
func New(fsys afero.Fs, opts ...Option) *Finder {
	f := &Finder{fs: fsys}
	for _, opt := range opts {
		opt.apply(f)
	}
	if f.skip == nil {
		f.skip = SkipDefault().compile()
	}
	if f.log == nil {
		f.log = internal.NopLogger()
	}
	f.include = slice.Unique(f.include)
	f.exclude = slice.Unique(f.exclude)
	return f
}

// Walk walks the directory tree at root and calls fn for every file that
// passes the filters, in traversal order. Walk fails if root cannot be listed,
// if a glob pattern is invalid, if ctx is canceled or if fn returns an error.
// Subdirectories that cannot be listed are logged and skipped.
func (f *Finder) Walk(ctx context.Context, root string, fn func(File) error) error {
	if err := f.validatePatterns(); err != nil {
		return err
	}

	entries, err := afero.ReadDir(f.fs, root)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", root, err)
	}

	return f.walkDir(ctx, root, "", entries, fn)
}

// Files walks the directory tree at root and returns all files that pass the
// filters, in traversal order.
func (f *Finder) Files(ctx context.Context, root string) ([]File, error) {
	var files []File
	if err := f.Walk(ctx, root, func(file File) error {
		files = append(files, file)
		return nil
	}); err != nil {
		return files, err
	}
	return files, nil
}

func (f *Finder) walkDir(ctx context.Context, root, dir string, entries []os.FileInfo, fn func(File) error) error {
	var subdirs []string

	for _, info := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, info.Name())
		fsPath := filepath.Join(root, path)
		e := Entry{FileInfo: info, Path: path}

		switch f.kind(fsPath, info) {
		case kindDir:
			if f.skip.excludeDir(e) {
				f.log.Debug("Skipping directory", "dir", path)
				continue
			}
			subdirs = append(subdirs, path)
			continue
		case kindLinkedDir:
			f.log.Debug("Skipping directory", "dir", path, "reason", "symbolic link")
			continue
		}

		if reason, excluded := f.skip.excludeFile(e); excluded {
			f.log.Debug("Skipping file", "path", path, "reason", reason)
			continue
		}

		if reason, excluded := f.excludeGlob(path); excluded {
			f.log.Debug("Skipping file", "path", path, "reason", reason)
			continue
		}

		if err := fn(File{Path: path, FSPath: fsPath}); err != nil {
			return err
		}
	}

	for _, path := range subdirs {
		fsPath := filepath.Join(root, path)
		entries, err := afero.ReadDir(f.fs, fsPath)
		if err != nil {
			f.log.Warn("Could not read directory", "dir", path, "error", err)
			continue
		}
		if err := f.walkDir(ctx, root, path, entries, fn); err != nil {
			return err
		}
	}

	return nil
}

type entryKind int

const (
	kindFile entryKind = iota
	kindDir
	kindLinkedDir
)

func (f *Finder) kind(fsPath string, info os.FileInfo) entryKind {
	if info.IsDir() {
		return kindDir
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return kindFile
	}
	// Links are never followed into directories. Dangling links are reported
	// as files so that reading them fails visibly.
	target, err := f.fs.Stat(fsPath)
	if err == nil && target.IsDir() {
		return kindLinkedDir
	}
	return kindFile
}

func (f *Finder) excludeGlob(path string) (string, bool) {
	if len(f.include) == 0 && len(f.exclude) == 0 {
		return "", false
	}

	slashed := filepath.ToSlash(path)

	for _, pattern := range f.exclude {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return fmt.Sprintf("matches exclude pattern %q", pattern), true
		}
	}

	if len(f.include) == 0 {
		return "", false
	}

	for _, pattern := range f.include {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return "", false
		}
	}

	return "no include pattern matches", true
}

func (f *Finder) validatePatterns() error {
	for _, pattern := range append(append([]string(nil), f.include...), f.exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("glob %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	return nil
}
