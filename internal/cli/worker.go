package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/grammargen/internal/worker"
)

// NewWorkerCommand creates the hidden command that turns this binary into
// a generation worker. The parent process writes one request to stdin and
// reads one result from stdout.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           worker.WorkerCommand,
		Short:         "Serve one generation request on stdin/stdout",
		Hidden:        true,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(rootOpts.Verbose, cmd.ErrOrStderr())
			err := worker.Serve(commandContext(cmd), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return WrapExitError(ExitFailure, "writing worker result", err)
			}
			return nil
		},
	}
}
