package tracker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/grammargen/internal/canon"
	"github.com/roach88/grammargen/internal/config"
)

// SnapshotStore persists the path -> digest map between runs.
// *store.Store satisfies it.
type SnapshotStore interface {
	Snapshot(ctx context.Context) (map[string]string, error)
	ReplaceSnapshot(ctx context.Context, snapshot map[string]string) error
}

// Tracker diffs source roots against the committed snapshot.
type Tracker struct {
	store   SnapshotStore
	roots   []string
	matcher config.Matcher
}

// New creates a Tracker over roots. Each root is a directory walked
// recursively or a single file. A nil matcher accepts every file.
func New(store SnapshotStore, roots []string, matcher config.Matcher) *Tracker {
	if matcher == nil {
		matcher = config.IncludeSet(nil)
	}
	return &Tracker{
		store:   store,
		roots:   append([]string(nil), roots...),
		matcher: matcher,
	}
}

// Scan is the result of one comparison.
type Scan struct {
	// Changes holds one entry per current or previously committed file,
	// sorted by path.
	Changes []TrackedInput

	// Sources is every file currently matching the source set, sorted.
	Sources []string

	digests map[string]string
}

// HasChanges reports whether any entry was added, modified or removed.
func (s *Scan) HasChanges() bool {
	for _, c := range s.Changes {
		switch c.Change {
		case Added, Modified, Removed:
			return true
		}
	}
	return false
}

// MarkAllModified reclassifies every unchanged file as modified, which
// forces a full regeneration without a clean rebuild.
func (s *Scan) MarkAllModified() {
	for i := range s.Changes {
		if s.Changes[i].Change == Unchanged {
			s.Changes[i].Change = Modified
		}
	}
}

// Count returns how many entries have the given classification.
func (s *Scan) Count(c ChangeType) int {
	n := 0
	for _, in := range s.Changes {
		if in.Change == c {
			n++
		}
	}
	return n
}

// Scan walks the roots and classifies every file.
func (t *Tracker) Scan(ctx context.Context) (*Scan, error) {
	previous, err := t.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	current := make(map[string]string)
	for _, root := range t.roots {
		if err := t.walkRoot(ctx, root, current); err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	scan := &Scan{digests: current}
	for path, digest := range current {
		scan.Sources = append(scan.Sources, path)

		change := Unchanged
		if old, ok := previous[path]; !ok {
			change = Added
		} else if old != digest {
			change = Modified
		}
		scan.Changes = append(scan.Changes, TrackedInput{Path: path, Change: change})
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			scan.Changes = append(scan.Changes, TrackedInput{Path: path, Change: Removed})
		}
	}

	sort.Strings(scan.Sources)
	sort.Slice(scan.Changes, func(i, j int) bool {
		return scan.Changes[i].Path < scan.Changes[j].Path
	})

	slog.Debug("sources scanned",
		"files", len(scan.Sources),
		"added", scan.Count(Added),
		"modified", scan.Count(Modified),
		"removed", scan.Count(Removed),
	)
	return scan, nil
}

// Commit makes the scanned state the new baseline.
func (t *Tracker) Commit(ctx context.Context, scan *Scan) error {
	if err := t.store.ReplaceSnapshot(ctx, scan.digests); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (t *Tracker) walkRoot(ctx context.Context, root string, out map[string]string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("source root does not exist", "root", root)
		return nil
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return t.add(root, filepath.Base(root), out)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return t.add(path, filepath.ToSlash(rel), out)
	})
}

func (t *Tracker) add(path, rel string, out map[string]string) error {
	if !t.matcher.Matches(rel) {
		return nil
	}
	digest, err := canon.FileDigest(path)
	if err != nil {
		return err
	}
	out[path] = digest
	return nil
}
