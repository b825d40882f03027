package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_ReportsIndexAndLockChecks(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "index")
	assert.Contains(t, out, "lock")
	assert.Contains(t, out, "vector_index")
	assert.Contains(t, out, "disk_space")
	assert.Contains(t, out, "write_permissions")
}

func TestDoctorCmd_NoIndexFile_Errors(t *testing.T) {
	dir := t.TempDir()

	initCmd := NewRootCmd()
	initCmd.SetArgs([]string{"--dir", dir, "init", "--skip-index"})
	require.NoError(t, initCmd.Execute())

	_, err := runCQS(t, dir, "doctor")
	assert.Error(t, err, "doctor opens the store read-only, which requires index.db to already exist")
}
