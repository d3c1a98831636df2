// Package evaluate turns a worker's GenerationResult into success or a
// GenerationError.
//
// The three failure messages are matched by callers and must not change:
//
//	errorCount < 0   "There were errors during grammar generation"
//	errorCount == 1  "There was 1 error during grammar generation"
//	errorCount > 1   "There were N errors during grammar generation"
package evaluate

import (
	"errors"
	"fmt"

	"github.com/roach88/grammargen/internal/worker"
)

// GenerationError reports a failed generation.
type GenerationError struct {
	// Message is one of the fixed templates above.
	Message string

	// ErrorCount is the count reported by the worker; negative means the
	// generator failed in a way that could not be counted.
	ErrorCount int

	// Cause is the failure captured by the worker, if any.
	Cause error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// IsGenerationError returns true if err is or wraps a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// Evaluate returns nil when the result has no errors, otherwise a
// *GenerationError carrying the captured failure as its cause.
func Evaluate(result worker.Result) error {
	var msg string
	switch n := result.ErrorCount; {
	case n == 0:
		return nil
	case n < 0:
		msg = "There were errors during grammar generation"
	case n == 1:
		msg = "There was 1 error during grammar generation"
	default:
		msg = fmt.Sprintf("There were %d errors during grammar generation", n)
	}

	var cause error
	if result.Failure != nil {
		cause = result.Failure
	}
	return &GenerationError{Message: msg, ErrorCount: result.ErrorCount, Cause: cause}
}
