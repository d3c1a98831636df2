package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "grammargen.yaml", `
trace: true
traceParser: true
packageName: com.foo
outputDirectory: build/generated
arguments: ["-visitor", "-Dlanguage=Go"]
maxHeapSize: 512m
source: [src/main/antlr]
tool: [java, -jar, antlr.jar]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Trace)
	assert.False(t, cfg.TraceLexer)
	assert.True(t, cfg.TraceParser)
	assert.False(t, cfg.TraceTreeWalker)
	assert.Equal(t, "com.foo", cfg.PackageName)
	assert.Equal(t, "build/generated", cfg.OutputDirectory)
	assert.Equal(t, []string{"-visitor", "-Dlanguage=Go"}, cfg.Arguments)
	assert.Equal(t, "512m", cfg.MaxHeapSize)
	assert.Equal(t, []string{"src/main/antlr"}, cfg.Source)
	assert.Equal(t, []string{"java", "-jar", "antlr.jar"}, cfg.Tool)
}

func TestLoadAppliesSchemaDefaults(t *testing.T) {
	path := writeConfig(t, "grammargen.yml", "outputDirectory: out\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Trace)
	assert.Empty(t, cfg.PackageName)
	assert.Empty(t, cfg.Arguments)
	assert.Empty(t, cfg.MaxHeapSize)
	assert.Equal(t, []string{"**/*.g4"}, cfg.Include)
	assert.Equal(t, DefaultErrorPattern, cfg.ErrorPattern)
}

func TestLoadCUE(t *testing.T) {
	path := writeConfig(t, "grammargen.cue", `
outputDirectory: "gen"
packageName:     "org.example.parser"
traceLexer:      true
exclude: ["**/Legacy*.g4"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gen", cfg.OutputDirectory)
	assert.Equal(t, "org.example.parser", cfg.PackageName)
	assert.True(t, cfg.TraceLexer)
	assert.Equal(t, []string{"**/Legacy*.g4"}, cfg.Exclude)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"missing output directory", "c.yaml", "trace: true\n", ErrCodeSchema},
		{"empty output directory", "c.yaml", "outputDirectory: \"\"\n", ErrCodeSchema},
		{"unknown key", "c.yaml", "outputDirectory: out\nfrobnicate: true\n", ErrCodeSchema},
		{"wrong type", "c.yaml", "outputDirectory: out\ntrace: yes please\n", ErrCodeSchema},
		{"bad heap size", "c.yaml", "outputDirectory: out\nmaxHeapSize: lots\n", ErrCodeSchema},
		{"zero heap size", "c.yaml", "outputDirectory: out\nmaxHeapSize: \"0\"\n", ErrCodeSchema},
		{"bad package name", "c.yaml", "outputDirectory: out\npackageName: 1com.foo\n", ErrCodeSchema},
		{"bad error pattern", "c.yaml", "outputDirectory: out\nerrorPattern: \"(\"\n", ErrCodeInvalid},
		{"yaml syntax", "c.yaml", "outputDirectory: [\n", ErrCodeParse},
		{"cue syntax", "c.cue", "outputDirectory: {\n", ErrCodeParse},
		{"unsupported format", "c.toml", "outputDirectory = 'out'\n", ErrCodeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "expected *LoadError, got %T", err)
			assert.Equal(t, tt.code, le.Code, "error: %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadCUEErrorHasPosition(t *testing.T) {
	path := writeConfig(t, "bad.cue", "outputDirectory: \"out\"\ntrace: \"nope\"\n")

	_, err := Load(path)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Pos.IsValid(), "expected a position in %v", err)
}
