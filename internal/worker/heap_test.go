package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapEnv(t *testing.T) {
	env, err := heapEnv("")
	require.NoError(t, err)
	assert.Empty(t, env)

	env, err = heapEnv("1g")
	require.NoError(t, err)
	assert.Equal(t, []string{"GOMEMLIMIT=1073741824", "GRAMMARGEN_MAX_HEAP=1g"}, env)

	_, err = heapEnv("huge")
	assert.Error(t, err)
}

func TestIsJava(t *testing.T) {
	assert.True(t, isJava("java"))
	assert.True(t, isJava("/usr/lib/jvm/bin/java"))
	assert.True(t, isJava("JAVA.EXE"))
	assert.False(t, isJava("antlr4"))
	assert.False(t, isJava("javac"))
}
