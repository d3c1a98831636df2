package worker

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/grammargen/internal/request"
)

// Request is the wire form of a generation request.
type Request struct {
	Arguments       []string `json:"arguments"`
	GrammarFiles    []string `json:"grammarFiles"`
	SourceFiles     []string `json:"sourceFiles"`
	OutputDirectory string   `json:"outputDirectory"`
	MaxHeapSize     string   `json:"maxHeapSize,omitempty"`

	// Tool is the generator argv prefix, e.g. ["java", "-jar", "antlr.jar"].
	Tool []string `json:"tool"`

	// ErrorPattern identifies error lines in generator output.
	ErrorPattern string `json:"errorPattern,omitempty"`

	// WorkDir is the generator's working directory; empty inherits.
	WorkDir string `json:"workDir,omitempty"`
}

// NewRequest wraps a GenerationRequest with the generator settings.
func NewRequest(gr request.GenerationRequest, tool []string, errorPattern, workDir string) Request {
	return Request{
		Arguments:       gr.Arguments,
		GrammarFiles:    gr.GrammarFiles,
		SourceFiles:     gr.SourceFiles,
		OutputDirectory: gr.OutputDirectory,
		MaxHeapSize:     gr.MaxHeapSize,
		Tool:            append([]string(nil), tool...),
		ErrorPattern:    errorPattern,
		WorkDir:         workDir,
	}
}

// Result is the outcome of one worker invocation.
type Result struct {
	// ErrorCount is the number of errors the generator reported.
	// Negative means the generator could not run to a countable end.
	ErrorCount int `json:"errorCount"`

	// Failure describes what went wrong, if anything.
	Failure *Failure `json:"failure,omitempty"`
}

// Failure is a captured failure that crossed the process boundary.
type Failure struct {
	Message string `json:"message"`

	// Detail holds trailing generator or worker output for diagnostics.
	Detail string `json:"detail,omitempty"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Fatal builds a Result for a failure that has no error count.
func Fatal(format string, args ...any) Result {
	return Result{
		ErrorCount: -1,
		Failure:    &Failure{Message: fmt.Sprintf(format, args...)},
	}
}

// withDetail attaches diagnostic output to r's failure, if it has one.
func (r Result) withDetail(detail string) Result {
	if r.Failure != nil && detail != "" {
		f := *r.Failure
		f.Detail = detail
		r.Failure = &f
	}
	return r
}

// wireResult distinguishes "errorCount": 0 from a missing field.
type wireResult struct {
	ErrorCount *int     `json:"errorCount"`
	Failure    *Failure `json:"failure"`
}

// decodeResult parses a worker's stdout. ok is false when no complete
// result was written.
func decodeResult(data []byte) (Result, bool) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil || w.ErrorCount == nil {
		return Result{}, false
	}
	return Result{ErrorCount: *w.ErrorCount, Failure: w.Failure}, true
}

// WriteRequest encodes req as a single JSON document.
func WriteRequest(w io.Writer, req Request) error {
	if err := json.NewEncoder(w).Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return nil
}

// ReadRequest decodes a single JSON request.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// WriteResult encodes res as a single JSON document.
func WriteResult(w io.Writer, res Result) error {
	if err := json.NewEncoder(w).Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
