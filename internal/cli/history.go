package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/grammargen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	ConfigPath string
	ProjectDir string
	State      string
	Limit      int
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generation runs",
		Long: `Show recent generation runs, newest first.

The state database is taken from --state, or from the config file's
state setting when --state is not given.

Examples:
  grammargen history
  grammargen history --limit 5 --format json
  grammargen history --state ./.grammargen/state.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", DefaultConfigFile, "path to config file (.yaml or .cue)")
	cmd.Flags().StringVar(&opts.ProjectDir, "project-dir", "", "project directory (default: directory of the config file)")
	cmd.Flags().StringVar(&opts.State, "state", "", "path to the state database (overrides the config file)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of runs to show (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose, cmd.ErrOrStderr())
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	statePath := opts.State
	if statePath == "" {
		cfg, projectDir, loadErr := configSource{Path: opts.ConfigPath, ProjectDir: opts.ProjectDir}.load()
		if loadErr != nil {
			return out.Report(loadErr)
		}
		statePath = cfg.Resolve(projectDir).State
	}

	// History never creates state. A project that has not generated yet
	// simply has no runs; an explicit --state must name a database.
	runs := []store.Run{}
	st, err := store.OpenExisting(statePath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && opts.State == "":
		slog.Debug("no state database yet", "state", statePath)
	case err != nil:
		return out.Report(stateError("failed to open state database", err))
	default:
		defer st.Close()
		recent, err := st.RecentRuns(commandContext(cmd), opts.Limit)
		if err != nil {
			return out.Report(stateError("failed to read run history", err))
		}
		if recent != nil {
			runs = recent
		}
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{
			Status: "ok",
			Data:   HistoryResult{Runs: runs, Total: len(runs)},
		})
	}

	outputHistoryText(cmd, runs, opts.Verbose)
	return nil
}

// outputHistoryText prints runs in the order given.
func outputHistoryText(cmd *cobra.Command, runs []store.Run, verbose bool) {
	w := cmd.OutOrStdout()

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "Run History: %d run(s)\n", len(runs))
	fmt.Fprintln(w)

	for _, run := range runs {
		status := "✓"
		if run.ErrorCount != 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "%s #%d %s\n", status, run.Seq, run.ID)

		kind := "incremental"
		if run.CleanRebuild {
			kind = "clean rebuild"
		}
		fmt.Fprintf(w, "  Files: %d (%s)\n", run.Files, kind)
		if run.Message != "" {
			fmt.Fprintf(w, "  Result: %s\n", run.Message)
		}
		if verbose {
			fmt.Fprintf(w, "  Fingerprint: %s\n", run.Fingerprint)
		}
		fmt.Fprintln(w)
	}
}
