// Package store provides SQLite-backed state for grammargen.
//
// Two tables live in the database:
//   - file_snapshots: path and content digest of every source file as of
//     the last successful generation. The change tracker diffs the
//     current tree against it.
//   - runs: one row per orchestrated generation, ordered by seq.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Ordering never uses wall-clock time; runs are ordered by their
// autoincrement seq.
package store
