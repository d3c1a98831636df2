package config

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// DefaultErrorPattern identifies an error line in ANTLR tool output,
// e.g. "error(50): T.g4:3:0: syntax error".
const DefaultErrorPattern = `^error\(\d+\)`

// DefaultStateFile is the tracker database path relative to the project directory.
const DefaultStateFile = ".grammargen/state.db"

// Config is the immutable set of options recognized by grammargen.
//
// The first eight fields are the generation options handed to the request
// builder. The rest describe where sources live, which generator to run
// and where change-tracking state is kept.
type Config struct {
	Trace           bool     `json:"trace" yaml:"trace"`
	TraceLexer      bool     `json:"traceLexer" yaml:"traceLexer"`
	TraceParser     bool     `json:"traceParser" yaml:"traceParser"`
	TraceTreeWalker bool     `json:"traceTreeWalker" yaml:"traceTreeWalker"`
	PackageName     string   `json:"packageName,omitempty" yaml:"packageName,omitempty"`
	OutputDirectory string   `json:"outputDirectory" yaml:"outputDirectory"`
	Arguments       []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	MaxHeapSize     string   `json:"maxHeapSize,omitempty" yaml:"maxHeapSize,omitempty"`

	Source       []string `json:"source,omitempty" yaml:"source,omitempty"`
	Include      []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Tool         []string `json:"tool,omitempty" yaml:"tool,omitempty"`
	ErrorPattern string   `json:"errorPattern,omitempty" yaml:"errorPattern,omitempty"`
	State        string   `json:"state,omitempty" yaml:"state,omitempty"`
}

// Validate checks the invariants the CUE schema cannot express.
func (c Config) Validate() error {
	if c.OutputDirectory == "" {
		return &LoadError{Code: ErrCodeInvalid, Message: "outputDirectory is required"}
	}
	if c.MaxHeapSize != "" {
		if _, err := ParseHeapSize(c.MaxHeapSize); err != nil {
			return &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("maxHeapSize: %v", err)}
		}
	}
	if c.ErrorPattern != "" {
		if _, err := regexp.Compile(c.ErrorPattern); err != nil {
			return &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("errorPattern: %v", err)}
		}
	}
	return nil
}

// Matcher returns the include/exclude filter for source files.
func (c Config) Matcher() Matcher {
	return PatternSet{Include: IncludeSet(c.Include), Exclude: ExcludeSet(c.Exclude)}
}

// Resolve returns a copy of c with every relative path made absolute
// against projectDir and defaults applied. Slices are copied so the
// result shares no state with c.
func (c Config) Resolve(projectDir string) Config {
	out := c
	out.Arguments = append([]string(nil), c.Arguments...)
	out.Include = append([]string(nil), c.Include...)
	out.Exclude = append([]string(nil), c.Exclude...)
	out.Tool = append([]string(nil), c.Tool...)

	out.OutputDirectory = absPath(projectDir, c.OutputDirectory)

	out.Source = make([]string, len(c.Source))
	for i, s := range c.Source {
		out.Source[i] = absPath(projectDir, s)
	}

	if out.ErrorPattern == "" {
		out.ErrorPattern = DefaultErrorPattern
	}
	if out.State == "" {
		out.State = DefaultStateFile
	}
	out.State = absPath(projectDir, out.State)
	return out
}

func absPath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
