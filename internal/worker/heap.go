package worker

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/grammargen/internal/config"
)

// Environment variables set on the worker process.
const (
	EnvMaxHeap  = "GRAMMARGEN_MAX_HEAP"
	EnvMemLimit = "GOMEMLIMIT"
)

// heapEnv returns the environment entries that carry maxHeap to the worker.
func heapEnv(maxHeap string) ([]string, error) {
	if maxHeap == "" {
		return nil, nil
	}
	n, err := config.ParseHeapSize(maxHeap)
	if err != nil {
		return nil, err
	}
	return []string{
		EnvMemLimit + "=" + strconv.FormatInt(n, 10),
		EnvMaxHeap + "=" + maxHeap,
	}, nil
}

// isJava reports whether argv0 names a java launcher.
func isJava(argv0 string) bool {
	base := strings.TrimSuffix(strings.ToLower(filepath.Base(argv0)), ".exe")
	return base == "java"
}
