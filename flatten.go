package flatten

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/modernice/flatten/find"
	"github.com/modernice/flatten/internal"
	"github.com/spf13/afero"
	"github.com/tiktoken-go/tokenizer"
	"golang.org/x/exp/slog"
)

const (
	// DefaultRoot is the directory that is flattened when none is given.
	DefaultRoot = "."

	// DefaultOutput is the file the snapshot is written to when none is given.
	DefaultOutput = "aplanado.txt"
)

// ErrNotDirectory is returned by Flatten if the root path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Flattener writes a snapshot of a directory tree into a single text file.
// Each file that passes the configured find.Skip filters becomes one block in
// the snapshot: a "--- FILE: <path> ---" header line, the file's text and a
// blank line. Blocks appear in the order in which a find.Finder visits the
// files. Use New to create a Flattener.
type Flattener struct {
	fs       afero.Fs
	skip     find.Skip
	findOpts []find.Option
	model    string
	tokens   bool
	log      *slog.Logger
}

// Result describes a completed run of a Flattener. Files contains the
// relative paths of the files written to the snapshot, in order. Failed
// contains the files that passed the filters but could not be read or
// decoded. Bytes is the size of the snapshot and Tokens the estimated number
// of tokens in it, or 0 if token counting is disabled.
type Result struct {
	Files  []string
	Failed []Failure
	Bytes  int64
	Tokens int
}

// Failure is a file that was left out of a snapshot because it could not be
// read.
type Failure struct {
	Path string
	Err  error
}

// Option is a functional option for a Flattener.
type Option func(*Flattener)

// WithLogger returns an Option that sets the logger of a Flattener. Files that
// cannot be read are logged as warnings.
func WithLogger(h slog.Handler) Option {
	return func(f *Flattener) {
		f.log = slog.New(h)
	}
}

// WithFS returns an Option that sets the filesystem a Flattener reads the
// directory tree from and writes the snapshot to. The default is the
// operating system's filesystem.
func WithFS(fsys afero.Fs) Option {
	return func(f *Flattener) {
		f.fs = fsys
	}
}

// WithSkip returns an Option that replaces the filters of a Flattener. The
// default is find.SkipDefault().
func WithSkip(skip find.Skip) Option {
	return func(f *Flattener) {
		f.skip = skip
	}
}

// FindWith returns an Option that passes additional options to the find.Finder
// that walks the directory tree, for example find.Include or find.Exclude.
func FindWith(opts ...find.Option) Option {
	return func(f *Flattener) {
		f.findOpts = append(f.findOpts, opts...)
	}
}

// CountTokens returns an Option that makes a Flattener estimate the number of
// tokens in the snapshot using the tokenizer of the given model. Unknown
// models fall back to the cl100k_base encoding.
func CountTokens(model string) Option {
	return func(f *Flattener) {
		f.tokens = true
		f.model = model
	}
}

// New returns a Flattener configured by the given options.
func New(opts ...Option) *Flattener {
	f := &Flattener{skip: find.SkipDefault()}
	for _, opt := range opts {
		opt(f)
	}
	if f.fs == nil {
		f.fs = afero.NewOsFs()
	}
	if f.log == nil {
		f.log = internal.NopLogger()
	}
	return f
}

// Flatten is a shorthand for New(opts...).Flatten(ctx, root, output).
func Flatten(ctx context.Context, root, output string, opts ...Option) (Result, error) {
	return New(opts...).Flatten(ctx, root, output)
}

// Flatten walks the directory tree at root and writes its snapshot to output,
// replacing any existing file. Flatten fails if root does not exist or is not
// a directory, if output cannot be created or written, or if ctx is canceled.
// Files that cannot be read or are not valid UTF-8 are logged, reported in
// Result.Failed and left out; they never abort the run.
func (f *Flattener) Flatten(ctx context.Context, root, output string) (Result, error) {
	var result Result

	info, err := f.fs.Stat(root)
	if err != nil {
		return result, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("root %s: %w", root, ErrNotDirectory)
	}

	codec := f.codec()

	out, err := f.fs.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return result, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	f.log.Info("Flattening directory ...", "root", root, "output", output)

	w := bufio.NewWriter(out)
	outputPath := absPath(output)

	finder := find.New(f.fs, append([]find.Option{f.skip, find.WithLogger(f.log.Handler())}, f.findOpts...)...)

	if err := finder.Walk(ctx, root, func(file find.File) error {
		if absPath(file.FSPath) == outputPath {
			f.log.Debug("Skipping file", "path", file.Path, "reason", "output file")
			return nil
		}

		content, err := f.read(file.FSPath)
		if err != nil {
			f.log.Warn("Could not read file", "path", file.FSPath, "error", err)
			result.Failed = append(result.Failed, Failure{Path: file.Path, Err: err})
			return nil
		}

		n, err := WriteBlock(w, file.Path, content)
		result.Bytes += int64(n)
		if err != nil {
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
		result.Files = append(result.Files, file.Path)

		if codec != nil {
			tokens, err := internal.CountTokens(codec, Block(file.Path, content))
			if err != nil {
				f.log.Debug("Could not count tokens", "path", file.Path, "error", err)
			}
			result.Tokens += tokens
		}

		f.log.Debug("Added file", "path", file.Path, "bytes", n)

		return nil
	}); err != nil {
		return result, fmt.Errorf("walk %s: %w", root, err)
	}

	if err := w.Flush(); err != nil {
		return result, fmt.Errorf("write output: %w", err)
	}

	if err := out.Close(); err != nil {
		return result, fmt.Errorf("close output: %w", err)
	}

	f.log.Info(fmt.Sprintf("Wrote %d files to %s", len(result.Files), output), "failed", len(result.Failed), "bytes", result.Bytes, "tokens", result.Tokens)

	return result, nil
}

func (f *Flattener) read(path string) (string, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	content, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	return content, nil
}

func (f *Flattener) codec() tokenizer.Codec {
	if !f.tokens {
		return nil
	}
	codec, err := internal.Tokenizer(f.model)
	if err != nil {
		f.log.Warn("Could not load tokenizer, token counting is disabled", "model", f.model, "error", err)
		return nil
	}
	return codec
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
