package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig_NoConfigYet_ReturnsEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfig_CopiesCurrentConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "cqs"), 0o700))
	writeFile(t, GetUserConfigPath(), "version = 1\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "version = 1\n", string(data))
}

func TestBackupUserConfig_KeepsOnlyMaxBackups(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "cqs"), 0o700))
	writeFile(t, GetUserConfigPath(), "version = 1\n")

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
		time.Sleep(time.Millisecond) // ensure distinct timestamps
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestListUserConfigBackups_NoConfigDir_ReturnsEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "does-not-exist"))
	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestListUserConfigBackups_NewestFirst(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "cqs"), 0o700))
	writeFile(t, GetUserConfigPath(), "version = 1\n")

	first, err := BackupUserConfig()
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	writeFile(t, GetUserConfigPath(), "version = 2\n")
	second, err := BackupUserConfig()
	require.NoError(t, err)

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0])
	assert.Equal(t, first, backups[1])
}

func TestRestoreUserConfig_ReplacesCurrentConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "cqs"), 0o700))
	writeFile(t, GetUserConfigPath(), "version = 1\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)

	writeFile(t, GetUserConfigPath(), "version = 2\n")
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "version = 1\n", string(data))
}

func TestRestoreUserConfig_MissingBackup_ReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	err := RestoreUserConfig("/does/not/exist.bak")
	assert.Error(t, err)
}

func TestMergeWith_SearchWeightsZeroValuesDoNotOverride(t *testing.T) {
	base := NewConfig()
	other := &Config{}
	base.mergeWith(other)
	assert.Equal(t, NewConfig().Search.BM25Weight, base.Search.BM25Weight)
}

func TestMergeWith_ReferencesAreAppended(t *testing.T) {
	base := NewConfig()
	base.References = []Reference{{Name: "one", Path: "/refs/one"}}
	other := &Config{References: []Reference{{Name: "two", Path: "/refs/two"}}}
	base.mergeWith(other)
	require.Len(t, base.References, 2)
	assert.Equal(t, "one", base.References[0].Name)
	assert.Equal(t, "two", base.References[1].Name)
}
