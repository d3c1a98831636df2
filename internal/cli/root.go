package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/grammargen/internal/config"
)

// DefaultConfigFile is read when --config is not given.
const DefaultConfigFile = "grammargen.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the grammargen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "grammargen",
		Short: "Incremental ANTLR grammar generation",
		Long: `grammargen regenerates parser sources from ANTLR grammars.

Only grammars that changed since the last successful run are regenerated.
When a grammar is removed, the output directory is cleared and every
grammar is regenerated. The generator always runs in a separate worker
process with its own memory limit.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))

	return cmd
}

// configureLogging installs the process-wide slog handler. Logs always go
// to w (stderr) so stdout stays parseable in JSON mode.
func configureLogging(verbose bool, w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// configSource names a config file and the project directory relative
// paths in it are resolved against.
type configSource struct {
	Path       string
	ProjectDir string
}

// load reads the config file. The project directory defaults to the
// directory holding the file.
func (s configSource) load() (config.Config, string, *ExitError) {
	path := s.Path
	if path == "" {
		path = DefaultConfigFile
	}
	projectDir := s.ProjectDir
	if projectDir == "" {
		projectDir = filepath.Dir(path)
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return config.Config{}, "", &ExitError{Code: ExitCommandError, Kind: CodeConfig, Message: "resolving project directory", Err: err}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, projectDir, nil
}
