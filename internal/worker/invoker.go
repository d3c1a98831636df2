package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// WorkerCommand is the subcommand that puts the binary in worker mode.
const WorkerCommand = "worker"

// waitDelay bounds how long Invoke waits for the worker's output pipes
// after the worker itself has exited.
const waitDelay = 2 * time.Second

// Launcher describes how to start a worker process.
type Launcher struct {
	// Executable is the binary to run; it must implement Serve.
	Executable string

	// Args follow Executable on the command line.
	Args []string

	// Env is appended to the parent's environment.
	Env []string

	// Stderr receives the worker's diagnostics. Nil means os.Stderr.
	Stderr io.Writer
}

// SelfLauncher re-executes the running binary as "<self> worker".
func SelfLauncher() (Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return Launcher{}, fmt.Errorf("locate executable: %w", err)
	}
	return Launcher{Executable: exe, Args: []string{WorkerCommand}}, nil
}

// Invoker runs generation requests in isolated worker processes.
// Each Invoke starts a fresh process; an Invoker holds no per-run state.
type Invoker struct {
	launcher Launcher
}

// NewInvoker creates an Invoker for the given launcher.
func NewInvoker(l Launcher) *Invoker {
	return &Invoker{launcher: l}
}

// Invoke blocks until the worker exits and returns its Result. It never
// fails: launch errors, crashes, signals and missing or garbled output
// all become a Result with a negative ErrorCount.
//
// Cancelling ctx kills the worker's process group; the Result then
// describes the termination like any other crash.
func (inv *Invoker) Invoke(ctx context.Context, req Request) Result {
	env, err := heapEnv(req.MaxHeapSize)
	if err != nil {
		return Fatal("invalid maxHeapSize: %v", err)
	}

	var stdin bytes.Buffer
	if err := WriteRequest(&stdin, req); err != nil {
		return Fatal("%v", err)
	}

	stderr := inv.launcher.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	tail := newTailBuffer(maxDetail)
	var stdout bytes.Buffer

	cmd := exec.CommandContext(ctx, inv.launcher.Executable, inv.launcher.Args...)
	cmd.Env = append(append(os.Environ(), inv.launcher.Env...), env...)
	cmd.Stdin = &stdin
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	slog.Debug("starting worker",
		"executable", inv.launcher.Executable,
		"files", len(req.GrammarFiles),
		"max_heap", req.MaxHeapSize,
	)

	runErr := cmd.Run()
	// A generator left behind by a dying worker must not keep writing
	// into the output directory.
	reapGroup(cmd)

	if res, ok := decodeResult(stdout.Bytes()); ok {
		if runErr != nil {
			slog.Warn("worker exited with error after writing result", "error", runErr)
		}
		return res
	}

	var exitErr *exec.ExitError
	var res Result
	switch {
	case runErr == nil:
		res = Fatal("worker process exited without producing a result")
	case ctx.Err() != nil:
		res = Fatal("worker process cancelled: %v", runErr)
	case errors.As(runErr, &exitErr):
		res = Fatal("worker process terminated abnormally: %v", runErr)
	default:
		res = Fatal("failed to launch worker process: %v", runErr)
	}
	slog.Error("worker failed", "error", res.Failure.Message)
	return res.withDetail(tail.String())
}
