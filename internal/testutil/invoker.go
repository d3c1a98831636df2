package testutil

import (
	"context"
	"os"
	"sync"

	"github.com/roach88/grammargen/internal/worker"
)

// FakeInvoker records requests and replays canned results in order.
// When results run out it returns a zero (successful) Result. Like a real
// generator, a successful invocation leaves the output directory behind.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeInvoker struct {
	mu       sync.Mutex
	results  []worker.Result
	requests []worker.Request

	// OnInvoke, if set, runs before the result is returned. Tests use it
	// to inspect the filesystem at the moment the worker would start.
	OnInvoke func(req worker.Request)
}

// NewFakeInvoker creates an invoker returning results in order.
func NewFakeInvoker(results ...worker.Result) *FakeInvoker {
	return &FakeInvoker{results: results}
}

// Invoke implements orchestrator.Invoker.
func (f *FakeInvoker) Invoke(_ context.Context, req worker.Request) worker.Result {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var res worker.Result
	if len(f.results) > 0 {
		res = f.results[0]
		f.results = f.results[1:]
	}
	hook := f.OnInvoke
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if res.ErrorCount == 0 && res.Failure == nil && req.OutputDirectory != "" {
		_ = os.MkdirAll(req.OutputDirectory, 0o755)
	}
	return res
}

// Requests returns a copy of every request seen so far.
func (f *FakeInvoker) Requests() []worker.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]worker.Request(nil), f.requests...)
}

// Calls returns how many times Invoke ran.
func (f *FakeInvoker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
