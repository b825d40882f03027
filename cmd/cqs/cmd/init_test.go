package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_SkipIndex_WritesProjectConfigOnly(t *testing.T) {
	tmpDir := t.TempDir()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--dir", tmpDir, "init", "--skip-index"})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(tmpDir, ".cqs.toml"))
	_, statErr := os.Stat(filepath.Join(tmpDir, ".cqs", "index.db"))
	assert.True(t, os.IsNotExist(statErr), "skip-index should not create an index database")
}

func TestInitCmd_Idempotent_LeavesExistingConfigInPlace(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, ".cqs.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version = 1\n"), 0o600))
	before, err := os.ReadFile(cfgPath)
	require.NoError(t, err)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--dir", tmpDir, "init", "--skip-index"})
	require.NoError(t, cmd.Execute())

	after, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInitCmd_CreatesDataDir(t *testing.T) {
	tmpDir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--dir", tmpDir, "init", "--skip-index"})
	require.NoError(t, cmd.Execute())

	info, err := os.Stat(filepath.Join(tmpDir, ".cqs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
