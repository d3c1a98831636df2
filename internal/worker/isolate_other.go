//go:build !unix

package worker

import "os/exec"

func isolate(cmd *exec.Cmd) {}

func reapGroup(cmd *exec.Cmd) {}
