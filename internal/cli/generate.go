package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/grammargen/internal/config"
	"github.com/roach88/grammargen/internal/orchestrator"
	"github.com/roach88/grammargen/internal/request"
	"github.com/roach88/grammargen/internal/store"
	"github.com/roach88/grammargen/internal/tracker"
	"github.com/roach88/grammargen/internal/worker"
)

// Generate statuses reported in GenerateResult.Status.
const (
	StatusGenerated = "generated"
	StatusUpToDate  = "up-to-date"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	ConfigPath string
	ProjectDir string

	// Overrides for values in the config file.
	Output  string
	Package string
	Trace   bool
	MaxHeap string
	Args    []string

	// Rerun regenerates every grammar even when nothing changed.
	Rerun bool

	// Invoker overrides the worker (for testing). If nil, this binary is
	// re-executed in worker mode.
	Invoker orchestrator.Invoker

	// RunIDs overrides run ID generation (for testing).
	RunIDs orchestrator.RunIDGenerator
}

// GenerateResult is the outcome reported by the generate command.
type GenerateResult struct {
	RunID           string   `json:"run_id,omitempty"`
	Status          string   `json:"status"`
	CleanRebuild    bool     `json:"clean_rebuild"`
	Files           []string `json:"files"`
	OutputDirectory string   `json:"output_directory"`
	Added           int      `json:"added"`
	Modified        int      `json:"modified"`
	Removed         int      `json:"removed"`
}

func (r GenerateResult) String() string {
	if r.Status == StatusUpToDate {
		return "Grammars up to date."
	}
	s := fmt.Sprintf("Generated %d grammar(s) into %s", len(r.Files), r.OutputDirectory)
	if r.CleanRebuild {
		s += " (clean rebuild)"
	}
	return s
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate sources for changed grammars",
		Long: `Regenerate parser sources for grammars that changed since the last
successful run.

Added or modified grammars are regenerated on their own. If any grammar
was removed, the output directory is deleted and every grammar is
regenerated. Every grammar is also regenerated when the settings that
shape the output (arguments, package, trace flags, output directory,
tool) changed or the output directory is missing. Nothing runs when no
grammar changed.

Exit codes:
  0 - Generation succeeded, or grammars were up to date
  1 - The generator reported errors or the worker failed
  2 - Command error (bad config, unreadable state, etc.)

Examples:
  grammargen generate
  grammargen generate --config ./grammargen.yaml --package com.example.parser
  grammargen generate --rerun --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", DefaultConfigFile, "path to config file (.yaml or .cue)")
	cmd.Flags().StringVar(&opts.ProjectDir, "project-dir", "", "project directory (default: directory of the config file)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory, relative to the project directory")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name for generated sources")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "generate parsers with tracing")
	cmd.Flags().StringVar(&opts.MaxHeap, "max-heap", "", "worker memory limit, e.g. 512m or 2g")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "extra generator argument (repeatable)")
	cmd.Flags().BoolVar(&opts.Rerun, "rerun", false, "regenerate every grammar even if unchanged")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose, cmd.ErrOrStderr())
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, projectDir, loadErr := configSource{Path: opts.ConfigPath, ProjectDir: opts.ProjectDir}.load()
	if loadErr != nil {
		return out.Report(loadErr)
	}
	if err := opts.applyOverrides(cmd, &cfg); err != nil {
		return out.Report(WrapExitError(ExitCommandError, "invalid configuration", err))
	}
	cfg = cfg.Resolve(projectDir)
	slog.Debug("configuration loaded",
		"project_dir", projectDir,
		"output_dir", cfg.OutputDirectory,
		"sources", cfg.Source,
		"state", cfg.State,
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.State)
	if err != nil {
		return out.Report(stateError("failed to open state database", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing state database", "error", closeErr)
		}
	}()

	tr := tracker.New(st, cfg.Source, cfg.Matcher())
	scan, err := tr.Scan(ctx)
	if err != nil {
		return out.Report(stateError("failed to scan sources", err))
	}
	shape := request.Build(cfg, nil, nil, projectDir)
	settings, err := shape.OutputFingerprint(cfg.Tool)
	if err != nil {
		return out.Report(stateError("failed to fingerprint settings", err))
	}
	stale, err := outputStale(ctx, st, settings, shape.OutputDirectory)
	if err != nil {
		return out.Report(stateError("failed to read state", err))
	}
	if opts.Rerun || stale {
		scan.MarkAllModified()
	}

	result := GenerateResult{
		Files:           []string{},
		OutputDirectory: cfg.OutputDirectory,
		Added:           scan.Count(tracker.Added),
		Modified:        scan.Count(tracker.Modified),
		Removed:         scan.Count(tracker.Removed),
	}
	if !scan.HasChanges() {
		slog.Info("grammars up to date", "files", len(scan.Sources))
		result.Status = StatusUpToDate
		return out.Success(result)
	}

	invoker := opts.Invoker
	if invoker == nil {
		launcher, err := worker.SelfLauncher()
		if err != nil {
			return out.Report(&ExitError{Code: ExitCommandError, Kind: CodeGeneration, Message: "cannot start worker", Err: err})
		}
		launcher.Stderr = cmd.ErrOrStderr()
		if opts.Verbose {
			launcher.Args = append(launcher.Args, "--verbose")
		}
		invoker = worker.NewInvoker(launcher)
	}

	orch := orchestrator.New(invoker, orchestrator.Options{
		ProjectDir: projectDir,
		Recorder:   st,
		IDs:        opts.RunIDs,
	})
	outcome, err := orch.Run(ctx, orchestrator.Invocation{
		Inputs:       scan.Changes,
		KnownSources: scan.Sources,
	}, cfg)
	if err != nil {
		return out.Report(WrapExitError(ExitFailure, "generation failed", err))
	}

	// Only a successful run moves the baseline; failed grammars are
	// picked up again next time.
	if err := tr.Commit(ctx, scan); err != nil {
		return out.Report(stateError("failed to save source snapshot", err))
	}
	if err := st.PutSetting(ctx, store.SettingOutputFingerprint, settings); err != nil {
		return out.Report(stateError("failed to save settings fingerprint", err))
	}

	result.RunID = outcome.RunID
	result.Status = StatusGenerated
	result.CleanRebuild = outcome.CleanRebuild
	result.Files = outcome.Request.GrammarFiles
	result.OutputDirectory = outcome.Request.OutputDirectory
	return out.Success(result)
}

// outputStale reports whether existing output can no longer be trusted:
// the settings that shape it changed since the last successful run, or
// the output directory is gone.
func outputStale(ctx context.Context, st *store.Store, settings, outputDir string) (bool, error) {
	previous, err := st.Setting(ctx, store.SettingOutputFingerprint)
	if err != nil {
		return false, err
	}
	if previous != settings {
		if previous != "" {
			slog.Info("generator settings changed, regenerating all grammars")
		}
		return true, nil
	}
	if _, err := os.Stat(outputDir); errors.Is(err, fs.ErrNotExist) {
		slog.Info("output directory missing, regenerating all grammars", "output_dir", outputDir)
		return true, nil
	}
	return false, nil
}

// applyOverrides copies explicitly set flags over cfg and checks the
// fields the CLI needs.
func (o *GenerateOptions) applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDirectory = o.Output
	}
	if flags.Changed("package") {
		cfg.PackageName = o.Package
	}
	if flags.Changed("trace") {
		cfg.Trace = o.Trace
	}
	if flags.Changed("max-heap") {
		if _, err := config.ParseHeapSize(o.MaxHeap); err != nil {
			return &config.LoadError{Code: config.ErrCodeInvalid, Message: fmt.Sprintf("--max-heap: %v", err)}
		}
		cfg.MaxHeapSize = o.MaxHeap
	}
	if len(o.Args) > 0 {
		cfg.Arguments = append(slices.Clone(cfg.Arguments), o.Args...)
	}

	if len(cfg.Tool) == 0 {
		return &config.LoadError{Code: config.ErrCodeInvalid, Message: "tool is required"}
	}
	if len(cfg.Source) == 0 {
		return &config.LoadError{Code: config.ErrCodeInvalid, Message: "at least one source is required"}
	}
	return cfg.Validate()
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
