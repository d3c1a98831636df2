package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grammargen/internal/store"
)

// seedRuns writes two runs, one clean and one failed.
func seedRuns(t *testing.T, path string) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.WriteRun(ctx, store.Run{
		ID:          "run-a",
		Files:       2,
		Fingerprint: "f1",
	})
	require.NoError(t, err)
	_, err = st.WriteRun(ctx, store.Run{
		ID:           "run-b",
		CleanRebuild: true,
		Files:        3,
		Fingerprint:  "f2",
		ErrorCount:   1,
		Message:      "There was 1 error during grammar generation",
	})
	require.NoError(t, err)
}

func runHistoryCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestHistory_TextGolden(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	seedRuns(t, dbPath)

	out, err := runHistoryCmd(t, "text", "--state", dbPath)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "history_text", []byte(out))
}

func TestHistory_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	seedRuns(t, dbPath)

	out, err := runHistoryCmd(t, "json", "--state", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, "run-b", resp.Data.Runs[0].ID)
	assert.True(t, resp.Data.Runs[0].CleanRebuild)
	assert.Equal(t, "run-a", resp.Data.Runs[1].ID)
}

func TestHistory_Limit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	seedRuns(t, dbPath)

	out, err := runHistoryCmd(t, "text", "--state", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run History: 1 run(s)")
	assert.Contains(t, out, "run-b")
	assert.NotContains(t, out, "run-a")
}

func TestHistory_VerboseShowsFingerprint(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	seedRuns(t, dbPath)

	out, err := runHistoryCmd(t, "text", "--state", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "Fingerprint:")

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text", Verbose: true})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--state", dbPath, "--limit", "1"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Fingerprint: f2")
}

func TestHistory_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runHistoryCmd(t, "text", "--state", path)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestHistory_MissingStateFlagIsAnError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "typo")
	path := filepath.Join(dir, "state.db")

	out, err := runHistoryCmd(t, "text", "--state", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_STATE]")
	assert.NoDirExists(t, dir, "history must not create state")
}

func TestHistory_ProjectWithoutStateHasNoRuns(t *testing.T) {
	p := newTestProject(t, baseConfig)

	out, err := runHistoryCmd(t, "text", "--config", p.path("grammargen.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
	assert.NoDirExists(t, p.path(".grammargen"))
}

func TestHistory_StateFromConfig(t *testing.T) {
	p := newTestProject(t, baseConfig+"state: var/runs.db\n")
	seedRuns(t, p.path("var/runs.db"))

	out, err := runHistoryCmd(t, "text", "--config", p.path("grammargen.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Run History: 2 run(s)")
}

func TestHistory_MissingConfig(t *testing.T) {
	out, err := runHistoryCmd(t, "text", "--config", filepath.Join(t.TempDir(), "grammargen.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_CONFIG]")
}
