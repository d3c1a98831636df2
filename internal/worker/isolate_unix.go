//go:build unix

package worker

import (
	"errors"
	"log/slog"
	"os/exec"
	"syscall"
)

// isolate puts the worker in its own process group so that cancellation
// also kills any generator it started.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

// reapGroup kills whatever is left in the worker's process group once
// the worker has exited.
func reapGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err == nil {
		slog.Warn("killed processes left behind by worker", "pgid", cmd.Process.Pid)
		return
	}
	if !errors.Is(err, syscall.ESRCH) {
		slog.Debug("cannot reap worker process group", "pgid", cmd.Process.Pid, "error", err)
	}
}
