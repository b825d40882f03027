package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectRoot_DeepNesting_FindsGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "a", "b", "c", "d", "e")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	found, err := FindProjectRoot(deep)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_RelativePath_ResolvesToAbsolute(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	require.NoError(t, os.Chdir(root))

	found, err := FindProjectRoot(".")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(found))
}

func TestLoad_MergeExcludePaths_AppendsRatherThanReplaces(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cqs.toml"), `
[paths]
exclude = ["vendor/**"]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Contains(t, cfg.Paths.Exclude, "vendor/**")
}

func TestLoad_ZeroValuesNotMerged(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cqs.toml"), `
[search]
max_results = 30
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Search.MaxResults)
	// rrf_constant was not set in the project file, so the default survives
	assert.Equal(t, 60, cfg.Search.RRFConstant)
}

func TestLoad_NegativeIndexWorkers_RejectedByValidate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cqs.toml"), `
[performance]
index_workers = -1
`)

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_WeightsOutOfRange_RejectedByValidate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cqs.toml"), `
[search]
bm25_weight = 2.5
`)

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_UnreadableConfigFile_ReturnsError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits behave differently on windows")
	}
	if os.Getuid() == 0 {
		t.Skip("running as root bypasses permission checks")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, ".cqs.toml")
	writeFile(t, path, "version = 1\n")
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o600) })

	_, err := Load(dir)
	require.Error(t, err)
}

func TestWrite_AtomicWriteProducesLoadableTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := NewConfig()
	cfg.Search.MaxResults = 99
	require.NoError(t, Write(path, cfg))

	loaded := NewConfig()
	require.NoError(t, loaded.loadTOML(path))
	assert.Equal(t, 99, loaded.Search.MaxResults)
}

func TestWrite_LeavesNoTempFileBehindOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Write(path, NewConfig()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestWrite_FilePermissionsAre0600(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Write(path, NewConfig()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
