// Command grammargen regenerates ANTLR parser sources incrementally.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/grammargen/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintf(os.Stderr, "grammargen: %v\n", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
