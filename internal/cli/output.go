package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/grammargen/internal/config"
	"github.com/roach88/grammargen/internal/evaluate"
	"github.com/roach88/grammargen/internal/worker"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Generation succeeded or nothing to do
	ExitFailure      = 1 // The generator reported errors or the worker failed
	ExitCommandError = 2 // Bad configuration, unreadable state, bad flags
)

// Error codes reported in CLIError.Code.
const (
	CodeConfig     = "E_CONFIG"
	CodeState      = "E_STATE"
	CodeGeneration = "E_GENERATION"
	CodeInternal   = "E_INTERNAL"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
	Kind    string // Error code; derived from Err when empty
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written through an
	// OutputFormatter, so the entry point does not print it twice.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// stateError reports a state database failure.
func stateError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Kind: CodeState, Message: message, Err: err}
}

// ErrorCode classifies err for CLIError.Code. An explicit ExitError kind
// wins; otherwise configuration and generation errors are recognized
// anywhere in the chain.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Kind != "" {
		return exitErr.Kind
	}
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		return CodeConfig
	}
	var genErr *evaluate.GenerationError
	if errors.As(err, &genErr) {
		return CodeGeneration
	}
	return CodeInternal
}

// errorDetails returns the generator output captured with a worker
// failure, or nil.
func errorDetails(err error) any {
	var failure *worker.Failure
	if errors.As(err, &failure) && failure.Detail != "" {
		return failure.Detail
	}
	return nil
}

// GetExitCode extracts the exit code from an error.
// nil maps to ExitSuccess and a configuration LoadError to
// ExitCommandError. Anything else that is not an ExitError, including a
// GenerationError, is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		return ExitCommandError
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // see ErrorCode
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs err in the configured format. The code comes from
// ErrorCode; generator output captured by the worker becomes the details,
// shown in text mode only when verbose.
func (f *OutputFormatter) Error(err error) error {
	code, message, details := ErrorCode(err), err.Error(), errorDetails(err)

	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details:\n%v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// In JSON mode set ErrWriter so logs do not corrupt the response.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// Report writes err through the formatter and marks it reported.
func (f *OutputFormatter) Report(err *ExitError) error {
	if writeErr := f.Error(err); writeErr != nil {
		slog.Warn("cannot write error response", "error", writeErr)
	}
	err.Reported = true
	return err
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
