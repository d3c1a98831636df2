//go:build !unix

package worker

import "os"

func killSelf() {
	os.Exit(137)
}

func processAlive(pid int) bool { return false }
