package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grammargen/internal/worker"
)

func TestWorkerCommand_ServesOneRequest(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, worker.WriteRequest(in, worker.Request{
		GrammarFiles:    []string{"/p/A.g4"},
		OutputDirectory: filepath.Join(t.TempDir(), "gen"),
	}))

	out := &bytes.Buffer{}
	cmd := NewWorkerCommand(&RootOptions{Format: "text"})
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var res worker.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, -1, res.ErrorCount)
	require.NotNil(t, res.Failure)
	assert.Equal(t, "no generator tool configured", res.Failure.Message)
}

// TestGenerate_EndToEnd runs generate with a real worker process and a
// stand-in generator, both provided by this test binary.
func TestGenerate_EndToEnd(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(envCLIMain, "1")

	p := newTestProject(t, fmt.Sprintf(`outputDirectory: gen
source: [grammars]
tool: ['%s', '%s']
maxHeapSize: 512m
`, exe, fakeANTLR))
	writeFile(t, p.grammar("A.g4"), "grammar A;")
	writeFile(t, p.grammar("B.g4"), "grammar B;")

	run := func() (string, error) {
		buf := &bytes.Buffer{}
		cmd := NewRootCommand()
		cmd.SetOut(buf)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"generate", "--config", p.path("grammargen.yaml")})
		err := cmd.Execute()
		return buf.String(), err
	}

	out, err := run()
	require.NoError(t, err, out)
	assert.FileExists(t, p.path("gen/AParser.go"))
	assert.FileExists(t, p.path("gen/BParser.go"))

	writeFile(t, p.grammar("B.g4"), "grammar B; ERROR")
	out, err = run()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "There was 1 error during grammar generation")

	writeFile(t, p.grammar("B.g4"), "grammar B; r : 'b';")
	require.NoError(t, os.Remove(p.grammar("A.g4")))
	out, err = run()
	require.NoError(t, err, out)
	assert.Contains(t, out, "(clean rebuild)")
	assert.NoFileExists(t, p.path("gen/AParser.go"))
	assert.FileExists(t, p.path("gen/BParser.go"))
}
