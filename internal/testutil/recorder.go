package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/grammargen/internal/store"
)

// MemoryRecorder keeps run records in memory.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MemoryRecorder struct {
	mu   sync.Mutex
	runs []store.Run

	// Fail makes WriteRun return an error.
	Fail bool
}

// WriteRun implements orchestrator.Recorder.
func (r *MemoryRecorder) WriteRun(_ context.Context, run store.Run) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return 0, errors.New("recorder unavailable")
	}
	run.Seq = int64(len(r.runs) + 1)
	r.runs = append(r.runs, run)
	return run.Seq, nil
}

// Runs returns a copy of the recorded runs, oldest first.
func (r *MemoryRecorder) Runs() []store.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Run(nil), r.runs...)
}
