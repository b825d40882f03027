package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withIsolatedUserConfig points XDG_CONFIG_HOME at a fresh temp dir so
// project/ref registry tests never touch the real operator's config.
func withIsolatedUserConfig(t *testing.T) {
	t.Helper()
	old, hadOld := os.LookupEnv("XDG_CONFIG_HOME")
	t.Cleanup(func() {
		if hadOld {
			_ = os.Setenv("XDG_CONFIG_HOME", old)
		} else {
			_ = os.Unsetenv("XDG_CONFIG_HOME")
		}
	})
	require.NoError(t, os.Setenv("XDG_CONFIG_HOME", t.TempDir()))
}

func TestProjectRegister_ThenList(t *testing.T) {
	withIsolatedUserConfig(t)
	projectDir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"project", "register", "demo", projectDir})
	require.NoError(t, cmd.Execute())

	listBuf := new(bytes.Buffer)
	listCmd := NewRootCmd()
	listCmd.SetOut(listBuf)
	listCmd.SetErr(new(bytes.Buffer))
	listCmd.SetArgs([]string{"project", "list"})
	require.NoError(t, listCmd.Execute())

	assert.Contains(t, listBuf.String(), "demo")
	assert.Contains(t, listBuf.String(), projectDir)
}

func TestProjectRegister_NonExistentPath_Errors(t *testing.T) {
	withIsolatedUserConfig(t)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"project", "register", "demo", "/no/such/path/anywhere"})

	assert.Error(t, cmd.Execute())
}

func TestProjectRemove_UnknownID_IsNoOp(t *testing.T) {
	withIsolatedUserConfig(t)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"project", "remove", "proj:does-not-exist"})

	assert.NoError(t, cmd.Execute())
}
