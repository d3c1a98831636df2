package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grammargen/internal/config"
	"github.com/roach88/grammargen/internal/evaluate"
	"github.com/roach88/grammargen/internal/worker"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"status": "generated"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	genErr := evaluate.Evaluate(worker.Result{
		ErrorCount: 1,
		Failure:    &worker.Failure{Message: "generator reported 1 error(s)", Detail: "error(50): T.g4:1:0: syntax error"},
	})
	require.NoError(t, formatter.Error(WrapExitError(ExitFailure, "generation failed", genErr)))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeGeneration, resp.Error.Code)
	assert.Equal(t, "generation failed: There was 1 error during grammar generation: generator reported 1 error(s)", resp.Error.Message)
	assert.Equal(t, "error(50): T.g4:1:0: syntax error", resp.Error.Details)
}

func TestOutputFormatter_TextSuccessUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(GenerateResult{
		Status:          StatusGenerated,
		Files:           []string{"/p/A.g4", "/p/B.g4"},
		OutputDirectory: "/p/gen",
		CleanRebuild:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Generated 2 grammar(s) into /p/gen (clean rebuild)\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	genErr := evaluate.Evaluate(worker.Result{
		ErrorCount: -1,
		Failure:    &worker.Failure{Message: "worker process terminated abnormally: exit status 3", Detail: "fatal error: out of memory"},
	})

	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error(genErr))
			assert.Contains(t, buf.String(), "Error [E_GENERATION]: There were errors during grammar generation")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:\nfatal error: out of memory\n")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	loadErr := &config.LoadError{Code: config.ErrCodeSchema, Message: "bad key"}
	genErr := &evaluate.GenerationError{Message: "There were errors during grammar generation", ErrorCount: -1}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"load error", loadErr, CodeConfig},
		{"wrapped load error", WrapExitError(ExitCommandError, "failed to load config", loadErr), CodeConfig},
		{"generation error", WrapExitError(ExitFailure, "generation failed", genErr), CodeGeneration},
		{"state error", stateError("failed to open state database", errors.New("locked")), CodeState},
		{"explicit kind wins", &ExitError{Code: ExitCommandError, Kind: CodeGeneration, Message: "cannot start worker", Err: loadErr}, CodeGeneration},
		{"plain error", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("scanning %s", "grammars")

	assert.Empty(t, out.String())
	assert.Equal(t, "scanning grammars\n", diag.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.NotContains(t, diag.String(), "dropped")
}

func TestOutputFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	exitErr := WrapExitError(ExitCommandError, "failed to load config",
		&config.LoadError{Code: config.ErrCodeNotFound, Message: "reading config: no such file"})
	err := formatter.Report(exitErr)

	require.Same(t, exitErr, err)
	assert.True(t, exitErr.Reported)
	assert.Contains(t, buf.String(), "Error [E_CONFIG]: failed to load config: C001: reading config: no such file")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "gen")), ExitFailure},
		{"load error", &config.LoadError{Code: config.ErrCodeSchema, Message: "bad key"}, ExitCommandError},
		{"generation error", &evaluate.GenerationError{Message: "There were errors during grammar generation", ErrorCount: -1}, ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to save source snapshot", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save source snapshot: disk full", err.Error())
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}
