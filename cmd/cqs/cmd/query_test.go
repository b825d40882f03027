package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCmd_HasExpectedFlags(t *testing.T) {
	cmd := NewRootCmd()
	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)

	for _, name := range []string{"limit", "language", "path", "bm25-only", "note-boost", "tokens"} {
		assert.NotNilf(t, queryCmd.Flags().Lookup(name), "expected --%s flag", name)
	}
}

func TestQueryCmd_RejectsZeroTokens(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "query", "greeting", "--tokens", "0")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}

func TestQueryCmd_NoIndex_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--dir", tmpDir, "query", "hello world"})

	err := cmd.Execute()

	assert.Error(t, err)
}

func TestLanguageList(t *testing.T) {
	assert.Nil(t, languageList(""))
	assert.Equal(t, []string{"go"}, languageList("go"))
}
