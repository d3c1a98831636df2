package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/grammargen/internal/config"
)

// GeneratorArgs builds the generator command line for req:
//
//	tool... [-Xmx<heap>] arguments... -o <out> [-lib <dir>] grammarFiles...
//
// -Xmx is inserted only for a java launcher without an explicit -Xmx.
// -o and -lib are skipped when arguments already carry them; -lib is
// added when every known source lives in one directory.
func GeneratorArgs(req Request) []string {
	argv := slices.Clone(req.Tool)

	if req.MaxHeapSize != "" && len(argv) > 0 && isJava(argv[0]) && !hasPrefixArg(argv, "-Xmx") {
		argv = slices.Insert(argv, 1, "-Xmx"+req.MaxHeapSize)
	}

	argv = append(argv, req.Arguments...)

	if !slices.Contains(req.Arguments, "-o") {
		argv = append(argv, "-o", req.OutputDirectory)
	}
	if !slices.Contains(req.Arguments, "-lib") {
		if lib := commonDir(req.SourceFiles); lib != "" {
			argv = append(argv, "-lib", lib)
		}
	}

	return append(argv, req.GrammarFiles...)
}

// Generate runs the generator for req and counts reported errors.
// Generator output is copied to diag. Generate never returns a Go error;
// every failure is encoded in the Result.
func Generate(ctx context.Context, req Request, diag io.Writer) Result {
	if len(req.Tool) == 0 {
		return Fatal("no generator tool configured")
	}
	if req.OutputDirectory == "" {
		return Fatal("no output directory in request")
	}

	pattern := req.ErrorPattern
	if pattern == "" {
		pattern = config.DefaultErrorPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Fatal("invalid error pattern %q: %v", pattern, err)
	}

	if err := os.MkdirAll(req.OutputDirectory, 0o755); err != nil {
		return Fatal("create output directory: %v", err)
	}

	argv := GeneratorArgs(req)
	slog.Debug("running generator", "argv", strings.Join(argv, " "), "files", len(req.GrammarFiles))

	counter := newErrorCounter(re, diag)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = req.WorkDir
	cmd.Stdout = counter
	cmd.Stderr = counter

	runErr := cmd.Run()
	counter.Flush()

	var exitErr *exec.ExitError
	switch {
	case runErr != nil && !errors.As(runErr, &exitErr):
		return Fatal("failed to start generator %s: %v", argv[0], runErr)
	case counter.count > 0:
		return Result{
			ErrorCount: counter.count,
			Failure: &Failure{
				Message: fmt.Sprintf("generator reported %d error(s)", counter.count),
				Detail:  counter.errors.String(),
			},
		}
	case runErr != nil:
		return Fatal("generator exited abnormally: %v", runErr).withDetail(counter.tail.String())
	}

	slog.Debug("generator finished", "output_dir", req.OutputDirectory)
	return Result{}
}

// commonDir returns the directory shared by every path, or "" when the
// paths span several directories or there are none.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		if filepath.Dir(p) != dir {
			return ""
		}
	}
	return dir
}

func hasPrefixArg(argv []string, prefix string) bool {
	for _, a := range argv {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}
