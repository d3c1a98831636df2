// Package orchestrator drives one incremental generation: it decides
// between an incremental and a clean rebuild, builds the request, runs
// the worker and evaluates its result.
//
// No locking is done here. Two Run calls against the same output
// directory must be serialized by the caller.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/grammargen/internal/config"
	"github.com/roach88/grammargen/internal/evaluate"
	"github.com/roach88/grammargen/internal/request"
	"github.com/roach88/grammargen/internal/store"
	"github.com/roach88/grammargen/internal/tracker"
	"github.com/roach88/grammargen/internal/worker"
)

// Invoker runs a request in an isolated worker. *worker.Invoker
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req worker.Request) worker.Result
}

// Recorder persists run history. *store.Store satisfies it.
type Recorder interface {
	WriteRun(ctx context.Context, run store.Run) (int64, error)
}

// Options configures an Orchestrator.
type Options struct {
	// ProjectDir anchors relative output directories and is the
	// generator's working directory.
	ProjectDir string

	// Recorder is optional; when nil, runs are not recorded.
	Recorder Recorder

	// IDs defaults to UUIDv7Generator.
	IDs RunIDGenerator
}

// Orchestrator ties the request builder, worker and evaluator together.
type Orchestrator struct {
	invoker    Invoker
	projectDir string
	recorder   Recorder
	ids        RunIDGenerator
}

// New creates an Orchestrator.
func New(invoker Invoker, opts Options) *Orchestrator {
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Orchestrator{
		invoker:    invoker,
		projectDir: opts.ProjectDir,
		recorder:   opts.Recorder,
		ids:        ids,
	}
}

// Invocation is the input to one Run.
type Invocation struct {
	// Inputs are the change tracker's classifications.
	Inputs []tracker.TrackedInput

	// KnownSources is every file in the source set. A clean rebuild
	// regenerates all of them.
	KnownSources []string

	// DeclaredSources are the raw source entries as configured. Entries
	// that are not paths are dropped by the request builder. Nil means
	// KnownSources.
	DeclaredSources []any
}

// Outcome describes what a Run did.
type Outcome struct {
	RunID        string
	CleanRebuild bool
	Request      request.GenerationRequest
	Result       worker.Result
}

// Run performs one generation. It returns the evaluator's verdict: nil on
// success, a *evaluate.GenerationError when the generator failed.
func (o *Orchestrator) Run(ctx context.Context, inv Invocation, cfg config.Config) (Outcome, error) {
	out := Outcome{RunID: o.ids.Generate()}
	log := slog.With("run_id", out.RunID)

	grammarFiles, cleanRebuild := WorkingSet(inv.Inputs)
	out.CleanRebuild = cleanRebuild

	if cleanRebuild {
		outputDir := cfg.OutputDirectory
		if !filepath.IsAbs(outputDir) {
			outputDir = filepath.Join(o.projectDir, outputDir)
		}
		log.Info("removal detected, cleaning output", "output_dir", outputDir)
		CleanOutput(outputDir)
		grammarFiles = append([]string(nil), inv.KnownSources...)
	}

	declared := inv.DeclaredSources
	if declared == nil {
		declared = make([]any, len(inv.KnownSources))
		for i, s := range inv.KnownSources {
			declared[i] = s
		}
	}

	out.Request = request.Build(cfg, grammarFiles, declared, o.projectDir)
	log.Debug("generation request built",
		"arguments", out.Request.Arguments,
		"output_dir", out.Request.OutputDirectory,
	)

	log.Info("generating",
		"files", len(out.Request.GrammarFiles),
		"clean_rebuild", cleanRebuild,
	)
	out.Result = o.invoker.Invoke(ctx, worker.NewRequest(out.Request, cfg.Tool, cfg.ErrorPattern, o.projectDir))
	log.Debug("generation result obtained", "result", out.Result.String())

	verdict := evaluate.Evaluate(out.Result)
	o.record(ctx, out, verdict)

	if verdict != nil {
		log.Error("generation failed", "error_count", out.Result.ErrorCount, "error", verdict)
		return out, verdict
	}
	log.Info("generation succeeded", "files", len(out.Request.GrammarFiles))
	return out, nil
}

// WorkingSet partitions tracker inputs. It returns the added and modified
// paths, sorted, and whether any input was removed. Unchanged and
// directory entries contribute nothing.
func WorkingSet(inputs []tracker.TrackedInput) (files []string, cleanRebuild bool) {
	seen := make(map[string]bool)
	for _, in := range inputs {
		switch in.Change {
		case tracker.Removed:
			cleanRebuild = true
		case tracker.Added, tracker.Modified:
			if !seen[in.Path] {
				seen[in.Path] = true
				files = append(files, in.Path)
			}
		}
	}
	sort.Strings(files)
	return files, cleanRebuild
}

// CleanOutput deletes dir and everything below it, deepest entries first.
// Entries that cannot be removed are logged and skipped; a missing dir is
// not an error.
func CleanOutput(dir string) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipAll
			}
			slog.Warn("cannot walk output entry", "path", path, "error", err)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		slog.Warn("cleaning output directory", "dir", dir, "error", err)
	}

	// Reverse lexical order visits children before their parents.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cannot delete output entry", "path", p, "error", err)
		}
	}
}

func (o *Orchestrator) record(ctx context.Context, out Outcome, verdict error) {
	if o.recorder == nil {
		return
	}

	fingerprint, err := out.Request.Fingerprint()
	if err != nil {
		slog.Warn("cannot fingerprint request", "run_id", out.RunID, "error", err)
	}

	run := store.Run{
		ID:           out.RunID,
		CleanRebuild: out.CleanRebuild,
		Files:        len(out.Request.GrammarFiles),
		Fingerprint:  fingerprint,
		ErrorCount:   out.Result.ErrorCount,
	}
	var ge *evaluate.GenerationError
	if errors.As(verdict, &ge) {
		run.Message = ge.Message
	}

	if _, err := o.recorder.WriteRun(ctx, run); err != nil {
		slog.Warn("cannot record run", "run_id", out.RunID, "error", fmt.Errorf("record: %w", err))
	}
}
