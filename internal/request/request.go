// Package request turns configuration plus a working file set into the
// immutable GenerationRequest handed to the worker.
package request

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/grammargen/internal/canon"
	"github.com/roach88/grammargen/internal/config"
)

// Generator flags the builder knows how to derive.
const (
	FlagPackage         = "-package"
	FlagTrace           = "-trace"
	FlagTraceLexer      = "-traceLexer"
	FlagTraceParser     = "-traceParser"
	FlagTraceTreeWalker = "-traceTreeWalker"
)

// GenerationRequest is everything the generator needs for one run.
// Build never aliases caller slices; treat a request as read-only.
type GenerationRequest struct {
	// Arguments is the final generator argument vector: extra arguments
	// followed by derived flags, with no derived flag repeated.
	Arguments []string

	// GrammarFiles is the working file set, sorted and de-duplicated.
	GrammarFiles []string

	// SourceFiles is every known source file, sorted, for context.
	SourceFiles []string

	// OutputDirectory is absolute; it includes the package path when
	// the package was derived from configuration.
	OutputDirectory string

	// MaxHeapSize is the heap hint for the worker, e.g. "1g". Empty means unset.
	MaxHeapSize string
}

// Build derives a GenerationRequest. It is a pure function of its inputs.
//
// allSources may hold non-path entries (for example provider objects that
// resolve elsewhere); only non-empty strings are kept. A relative output
// directory is resolved against projectDir.
func Build(cfg config.Config, grammarFiles []string, allSources []any, projectDir string) GenerationRequest {
	args := slices.Clone(cfg.Arguments)
	if args == nil {
		args = []string{}
	}

	outputDir := cfg.OutputDirectory
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(projectDir, outputDir)
	}

	if cfg.PackageName != "" && !slices.Contains(args, FlagPackage) {
		args = append(args, FlagPackage, cfg.PackageName)
		outputDir = filepath.Join(outputDir, PackageDir(cfg.PackageName))
	}

	for _, f := range []struct {
		enabled bool
		flag    string
	}{
		{cfg.Trace, FlagTrace},
		{cfg.TraceLexer, FlagTraceLexer},
		{cfg.TraceParser, FlagTraceParser},
		{cfg.TraceTreeWalker, FlagTraceTreeWalker},
	} {
		if f.enabled && !slices.Contains(args, f.flag) {
			args = append(args, f.flag)
		}
	}

	var sources []string
	for _, s := range allSources {
		if p, ok := s.(string); ok && p != "" {
			sources = append(sources, p)
		}
	}

	return GenerationRequest{
		Arguments:       args,
		GrammarFiles:    sortedSet(grammarFiles),
		SourceFiles:     sortedSet(sources),
		OutputDirectory: filepath.Clean(outputDir),
		MaxHeapSize:     cfg.MaxHeapSize,
	}
}

// PackageDir converts a dotted package name to a relative directory.
func PackageDir(packageName string) string {
	return strings.ReplaceAll(packageName, ".", string(filepath.Separator))
}

// Fingerprint identifies the work a request asks for. Two requests with
// the same arguments, files, output directory and heap hint share it.
func (r GenerationRequest) Fingerprint() (string, error) {
	return canon.Fingerprint(canon.DomainRequest, map[string]any{
		"arguments":       r.Arguments,
		"grammarFiles":    r.GrammarFiles,
		"sourceFiles":     r.SourceFiles,
		"outputDirectory": r.OutputDirectory,
		"maxHeapSize":     r.MaxHeapSize,
	})
}

// OutputFingerprint identifies the settings that shape generated output,
// independent of which grammar files a run covers. A change means every
// existing output may be stale.
func (r GenerationRequest) OutputFingerprint(tool []string) (string, error) {
	if tool == nil {
		tool = []string{}
	}
	return canon.Fingerprint(canon.DomainRequest, map[string]any{
		"arguments":       r.Arguments,
		"outputDirectory": r.OutputDirectory,
		"tool":            tool,
	})
}

func sortedSet(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		return []string{}
	}
	sort.Strings(out)
	return slices.Compact(out)
}
