package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefAdd_ThenList(t *testing.T) {
	tmpDir := t.TempDir()

	addCmd := NewRootCmd()
	addCmd.SetOut(new(bytes.Buffer))
	addCmd.SetErr(new(bytes.Buffer))
	addCmd.SetArgs([]string{"--dir", tmpDir, "ref", "add", "mylib", "/opt/mylib"})
	require.NoError(t, addCmd.Execute())

	listBuf := new(bytes.Buffer)
	listCmd := NewRootCmd()
	listCmd.SetOut(listBuf)
	listCmd.SetErr(new(bytes.Buffer))
	listCmd.SetArgs([]string{"--dir", tmpDir, "ref", "list"})
	require.NoError(t, listCmd.Execute())

	assert.Contains(t, listBuf.String(), "mylib")
	assert.Contains(t, listBuf.String(), "/opt/mylib")
}

func TestRefAdd_RejectsInvalidName(t *testing.T) {
	tmpDir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--dir", tmpDir, "ref", "add", "../escape", "/opt/x"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.True(t, isUsageError(err))
}

func TestRefAdd_Duplicate_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	first := NewRootCmd()
	first.SetOut(new(bytes.Buffer))
	first.SetErr(new(bytes.Buffer))
	first.SetArgs([]string{"--dir", tmpDir, "ref", "add", "mylib", "/opt/mylib"})
	require.NoError(t, first.Execute())

	second := NewRootCmd()
	second.SetOut(new(bytes.Buffer))
	second.SetErr(new(bytes.Buffer))
	second.SetArgs([]string{"--dir", tmpDir, "ref", "add", "mylib", "/opt/other"})

	assert.Error(t, second.Execute())
}

func TestRefRemove_DropsEntry(t *testing.T) {
	tmpDir := t.TempDir()

	add := NewRootCmd()
	add.SetOut(new(bytes.Buffer))
	add.SetErr(new(bytes.Buffer))
	add.SetArgs([]string{"--dir", tmpDir, "ref", "add", "mylib", "/opt/mylib"})
	require.NoError(t, add.Execute())

	remove := NewRootCmd()
	remove.SetOut(new(bytes.Buffer))
	remove.SetErr(new(bytes.Buffer))
	remove.SetArgs([]string{"--dir", tmpDir, "ref", "remove", "mylib"})
	require.NoError(t, remove.Execute())

	listBuf := new(bytes.Buffer)
	list := NewRootCmd()
	list.SetOut(listBuf)
	list.SetErr(new(bytes.Buffer))
	list.SetArgs([]string{"--dir", tmpDir, "ref", "list"})
	require.NoError(t, list.Execute())

	assert.Contains(t, listBuf.String(), "no references")
}
