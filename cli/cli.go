package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/modernice/flatten"
	"github.com/modernice/flatten/find"
	"golang.org/x/exp/slog"
)

// CLI is the command-line interface of the "flatten" tool. Root and Output are
// positional: both must be given, otherwise the defaults flatten.DefaultRoot
// and flatten.DefaultOutput are used for both. Additional positional
// arguments are ignored.
type CLI struct {
	Root   string   `arg:"" optional:"" help:"Directory to flatten. Defaults to the current directory."`
	Output string   `arg:"" optional:"" help:"File to write the snapshot to. Defaults to aplanado.txt."`
	Rest   []string `arg:"" optional:"" hidden:"" help:"Ignored."`

	Include []string `name:"include" short:"i" help:"Glob pattern(s) a file's relative path must match."`
	Exclude []string `name:"exclude" short:"e" help:"Glob pattern(s) of relative paths to leave out."`
	Model   string   `default:"gpt-4" help:"Model whose tokenizer is used to estimate the size of the snapshot."`
	Verbose bool     `name:"verbose" short:"v" help:"Enable verbose logging."`
}

// Run flattens the selected directory into the output file. It is called by
// kong after the command line has been parsed. Run stops early if the process
// receives an interrupt signal.
func (cfg *CLI) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_, err := cfg.Execute(ctx, os.Stdout, os.Stderr)
	return err
}

// Execute runs the tool with the parsed configuration. User-facing messages
// are written to stdout, log records to stderr.
func (cfg *CLI) Execute(ctx context.Context, stdout, stderr io.Writer) (flatten.Result, error) {
	out := log.New(stdout, "", 0)

	root, output := cfg.Root, cfg.Output
	if root == "" || output == "" {
		root, output = flatten.DefaultRoot, flatten.DefaultOutput
		out.Println("No arguments given, using defaults:")
		out.Printf("  Directory to flatten: %s", root)
		out.Printf("  Output file: %s", output)
	}

	var level slog.Level
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logHandler := slog.HandlerOptions{Level: level}.NewTextHandler(stderr)

	result, err := flatten.Flatten(ctx, root, output,
		flatten.WithLogger(logHandler),
		flatten.FindWith(find.Include(cfg.Include...), find.Exclude(cfg.Exclude...)),
		flatten.CountTokens(cfg.Model),
	)
	if err != nil {
		return result, fmt.Errorf("flatten %s: %w", root, err)
	}

	out.Printf("Created text file: %s", output)
	out.Printf("  %d files, %d bytes, ~%d tokens", len(result.Files), result.Bytes, result.Tokens)
	if len(result.Failed) > 0 {
		out.Printf("  %d files could not be read", len(result.Failed))
	}

	return result, nil
}

// Options returns the kong options of the "flatten" command line.
func Options() []kong.Option {
	return []kong.Option{
		kong.Name("flatten"),
		kong.Description("Concatenate the source files of a directory tree into a single text file."),
		kong.UsageOnError(),
	}
}

// New parses the command-line arguments of the process and returns the
// resulting *kong.Context. Parse errors terminate the process.
func New() *kong.Context {
	var cfg CLI
	return kong.Parse(&cfg, Options()...)
}
