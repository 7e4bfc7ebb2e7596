package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/hookwave/hookwave/pkg/aggregator"
	"github.com/hookwave/hookwave/pkg/chunk"
	"github.com/hookwave/hookwave/pkg/engine"
)

// RunCommand handles the run command functionality
type RunCommand struct{}

// RunOptions holds command-line options for the run command
type RunOptions struct {
	Config       string        `long:"config"        description:"Path to the config file for a single-project run" short:"c"`
	Color        string        `long:"color"          description:"Whether to use color in output (auto, always, never)" default:"auto"`
	Files        []string      `long:"files"          description:"Specific filenames to run hooks on"`
	Directories  []string      `long:"directory"      description:"Limit the run to files under this directory (repeatable)" short:"d"`
	Include      []string      `long:"hook"           description:"Selector token to include (project[:hook], :hook, ./project)"`
	Skip         []string      `long:"skip"           description:"Selector token to skip"`
	Timeout      time.Duration `long:"timeout"        description:"Per-hook execution timeout (e.g. 30s, 5m)"        default:"0s"`
	Jobs         int           `long:"jobs"           description:"Number of hooks to run in parallel"               short:"j" default:"0"`
	AllFiles     bool          `long:"all-files"      description:"Run on every tracked file in the repository"      short:"a"`
	Verbose      bool          `long:"verbose"        description:"Verbose output"                                  short:"v"`
	FailFast     bool          `long:"fail-fast"      description:"Stop scheduling further waves after a failure"`
	CheckStaged  bool          `long:"check-staged"   description:"Fail if any project's config is not staged"`
	Help         bool          `long:"help"           description:"Show this help message"                          short:"h"`
}

// Help returns the help text for the run command
func (c *RunCommand) Help() string {
	var opts RunOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [SELECTOR ...]"

	helpText := `usage: hookwave run ` + parser.Usage + `

Run hooks.

optional arguments:
  -h, --help            show this help message and exit
  -a, --all-files       run on every tracked file in the repository
  --files FILES         specific filenames to run hooks on
  -d, --directory DIR   limit the run to files under this directory (repeatable)
  -c, --config CONFIG   path to config file for a single-project run
  -v, --verbose         verbose output
  --fail-fast           stop scheduling further waves after a failure
  --check-staged        fail if any project's config is not staged
  -j, --jobs JOBS        number of hooks to run in parallel
  --timeout TIMEOUT      per-hook execution timeout (e.g. 30s, 5m)
  --color {auto,always,never}
                        whether to use color in output (default: auto)

Positional SELECTOR arguments (or --hook/--skip) restrict the run to
specific projects or hooks: "project[:hook]", ":hook", or "./project".
`

	return helpText
}

// Synopsis returns a short description of the run command
func (c *RunCommand) Synopsis() string {
	return "Run hooks on files"
}

// RunCommandFactory creates a new run command instance
func RunCommandFactory() (cli.Command, error) {
	return &RunCommand{}, nil
}

// Run executes the run command
func (c *RunCommand) Run(args []string) int {
	var opts RunOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [SELECTOR ...]"

	selectors, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Printf("Error parsing flags: %v\n", err)
		return 1
	}

	if len(opts.Files) > 0 && opts.AllFiles {
		fmt.Println("Error: --all-files and --files are mutually exclusive")
		return 1
	}

	pathSource := engine.PathSourceStaged
	switch {
	case opts.AllFiles:
		pathSource = engine.PathSourceAll
	case len(opts.Files) > 0:
		pathSource = engine.PathSourceExplicit
	}

	colorMode := aggregator.ColorAuto
	switch opts.Color {
	case "always":
		colorMode = aggregator.ColorAlways
	case "never":
		colorMode = aggregator.ColorNever
	}

	result, err := engine.Run(context.Background(), engine.Options{
		ExplicitConfig:     opts.Config,
		PathSource:         pathSource,
		Files:              opts.Files,
		Directories:        opts.Directories,
		IncludeTokens:      append(append([]string{}, opts.Include...), selectors...),
		SkipTokens:         opts.Skip,
		Concurrency:        opts.Jobs,
		FailFast:           opts.FailFast,
		Verbose:            opts.Verbose,
		ColorMode:          colorMode,
		ChunkOpts:          chunk.Options{},
		Timeout:            opts.Timeout,
		CheckConfigsStaged: opts.CheckStaged,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	if result.Summary != "" {
		fmt.Println(result.Summary)
	}

	return result.ExitCode
}
