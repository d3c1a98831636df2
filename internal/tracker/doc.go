// Package tracker reports which grammar sources changed since the last
// successful generation.
//
// The orchestrator treats change detection as an oracle: it receives a list
// of TrackedInput values and never looks at file contents itself. This
// package is the oracle grammargen ships with. It walks the configured
// source roots, digests every matching file and diffs the result against a
// snapshot persisted by the store. The snapshot is only replaced through
// Commit, which callers invoke after generation succeeded, so a failed run
// reports the same changes again next time.
package tracker
