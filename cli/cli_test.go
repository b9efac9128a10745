package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/modernice/flatten/cli"
	"github.com/modernice/flatten/internal/tests"
	"github.com/spf13/afero"
)

func TestCLI_parse(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want cli.CLI
	}{
		{
			name: "no arguments",
			args: nil,
			want: cli.CLI{Model: "gpt-4"},
		},
		{
			name: "root and output",
			args: []string{"src", "out.txt"},
			want: cli.CLI{Root: "src", Output: "out.txt", Model: "gpt-4"},
		},
		{
			name: "extra arguments are ignored",
			args: []string{"src", "out.txt", "extra"},
			want: cli.CLI{Root: "src", Output: "out.txt", Model: "gpt-4"},
		},
		{
			name: "flags",
			args: []string{"src", "out.txt", "-i", "src/**", "--exclude", "**/*.md", "-v", "--model", "gpt-3.5-turbo"},
			want: cli.CLI{
				Root:    "src",
				Output:  "out.txt",
				Include: []string{"src/**"},
				Exclude: []string{"**/*.md"},
				Model:   "gpt-3.5-turbo",
				Verbose: true,
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var got cli.CLI
			parser, err := kong.New(&got, cli.Options()...)
			if err != nil {
				t.Fatal(err)
			}

			if _, err := parser.Parse(tt.args); err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}

			if got.Root != tt.want.Root || got.Output != tt.want.Output || got.Model != tt.want.Model || got.Verbose != tt.want.Verbose {
				t.Fatalf("unexpected configuration\n\nwant:\n%+v\n\ngot:\n%+v", tt.want, got)
			}
			tests.ExpectPaths(t, tt.want.Include, got.Include)
			tests.ExpectPaths(t, tt.want.Exclude, got.Exclude)
		})
	}
}

func TestCLI_Execute(t *testing.T) {
	root := t.TempDir()
	tests.CreateRepo(t, afero.NewOsFs(), root, []tests.File{
		{Path: "a.ts", Content: "x"},
		{Path: "node_modules/b.ts", Content: "b"},
		{Path: "notes.md", Content: "hi"},
	})
	output := filepath.Join(t.TempDir(), "snapshot.txt")

	var stdout, stderr bytes.Buffer
	cfg := cli.CLI{Root: root, Output: output}

	result, err := cfg.Execute(context.Background(), &stdout, &stderr)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	tests.ExpectPaths(t, []string{"a.ts", "notes.md"}, result.Files)
	tests.ExpectOutput(t, "--- FILE: a.ts ---\nx\n\n--- FILE: notes.md ---\nhi\n\n", string(tests.Must(os.ReadFile(output))))

	if strings.Contains(stdout.String(), "using defaults") {
		t.Fatalf("defaults should not be used if root and output are given; got:\n%s", stdout.String())
	}

	if !strings.Contains(stdout.String(), "Created text file: "+output) {
		t.Fatalf("completion message missing from output:\n%s", stdout.String())
	}
}

func TestCLI_environmentIsIgnored(t *testing.T) {
	t.Setenv("FLATTEN_INCLUDE", "**/*.ts")
	t.Setenv("FLATTEN_EXCLUDE", "**/*.md")
	t.Setenv("FLATTEN_MODEL", "gpt-3.5-turbo")
	t.Setenv("FLATTEN_VERBOSE", "true")

	root := t.TempDir()
	tests.CreateRepo(t, afero.NewOsFs(), root, []tests.File{
		{Path: "a.ts", Content: "x"},
		{Path: "notes.md", Content: "hi"},
	})
	output := filepath.Join(t.TempDir(), "out.txt")

	var cfg cli.CLI
	parser, err := kong.New(&cfg, cli.Options()...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{root, output}); err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if len(cfg.Include) != 0 || len(cfg.Exclude) != 0 || cfg.Model != "gpt-4" || cfg.Verbose {
		t.Fatalf("environment should not configure the command line; got %+v", cfg)
	}

	var stdout, stderr bytes.Buffer
	result, err := cfg.Execute(context.Background(), &stdout, &stderr)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	tests.ExpectPaths(t, []string{"a.ts", "notes.md"}, result.Files)
}

func TestCLI_Execute_defaults(t *testing.T) {
	root := t.TempDir()
	tests.CreateRepo(t, afero.NewOsFs(), root, []tests.File{
		{Path: "a.ts", Content: "x"},
		{Path: "aplanado.txt", Content: "previous snapshot"},
	})
	chdir(t, root)

	var stdout, stderr bytes.Buffer

	// A single positional argument is not enough, both fall back to the defaults.
	cfg := cli.CLI{Root: "ignored"}

	if _, err := cfg.Execute(context.Background(), &stdout, &stderr); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	for _, line := range []string{
		"No arguments given, using defaults:",
		"  Directory to flatten: .",
		"  Output file: aplanado.txt",
	} {
		if !strings.Contains(stdout.String(), line) {
			t.Errorf("expected %q in output:\n%s", line, stdout.String())
		}
	}

	tests.ExpectOutput(t, "--- FILE: a.ts ---\nx\n\n", string(tests.Must(os.ReadFile(filepath.Join(root, "aplanado.txt")))))
}

func TestCLI_Execute_unreadableFile(t *testing.T) {
	root := t.TempDir()
	tests.CreateRepo(t, afero.NewOsFs(), root, []tests.File{
		{Path: "a.ts", Content: "a"},
		{Path: "b.ts", Content: "\xff"},
	})
	output := filepath.Join(t.TempDir(), "out.txt")

	var stdout, stderr bytes.Buffer
	cfg := cli.CLI{Root: root, Output: output}

	if _, err := cfg.Execute(context.Background(), &stdout, &stderr); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !strings.Contains(stderr.String(), "Could not read file") || !strings.Contains(stderr.String(), "b.ts") {
		t.Fatalf("expected a diagnostic for b.ts; got:\n%s", stderr.String())
	}

	if !strings.Contains(stdout.String(), "1 files could not be read") {
		t.Fatalf("expected failure count in output:\n%s", stdout.String())
	}
}

func TestCLI_Execute_missingRoot(t *testing.T) {
	dir := t.TempDir()
	cfg := cli.CLI{Root: filepath.Join(dir, "missing"), Output: filepath.Join(dir, "out.txt")}

	var stdout, stderr bytes.Buffer
	_, err := cfg.Execute(context.Background(), &stdout, &stderr)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Execute() should fail with %q; got %v", fs.ErrNotExist, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
