// Package worker runs the grammar generator behind a process boundary.
//
// The parent side (Invoker) re-executes the grammargen binary as
// "grammargen worker", writes one JSON Request to its stdin and reads one
// JSON Result from its stdout. The child side (Serve) decodes the request,
// runs the generator tool and reports how many errors it printed.
//
// The split exists so that a generator which crashes, hangs on to memory
// or needs a different heap than the host cannot take the calling build
// down with it. Whatever happens in the child, Invoke returns a Result:
// when the child dies without writing one, Invoke synthesizes a Result
// with a negative ErrorCount describing the termination.
//
// Heap limits: a MaxHeapSize such as "1g" becomes GOMEMLIMIT for the
// worker process and -Xmx for a java generator. It is also exported as
// GRAMMARGEN_MAX_HEAP so wrapper scripts can honor it.
package worker
