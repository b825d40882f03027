package projectreg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.toml")
	r, err := OpenAt(path)
	require.NoError(t, err)
	return r
}

func TestOpenAt_MissingFile_StartsEmpty(t *testing.T) {
	r := newTestRegistry(t)
	assert.Empty(t, r.List())
}

func TestRegister_AddsProject(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()

	p, err := r.Register("myproj", dir)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "myproj", p.Name)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
}

func TestRegister_Idempotent(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()

	first, err := r.Register("myproj", dir)
	require.NoError(t, err)
	second, err := r.Register("myproj-renamed", dir)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, r.List(), 1)
}

func TestRegister_NonExistentPath_ReturnsError(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Register("ghost", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestRegister_FileNotDirectory_ReturnsError(t *testing.T) {
	r := newTestRegistry(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := r.Register("file", file)
	require.Error(t, err)
}

func TestRemove_DropsProject(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	p, err := r.Register("myproj", dir)
	require.NoError(t, err)

	require.NoError(t, r.Remove(p.ID))
	assert.Empty(t, r.List())
}

func TestRemove_UnknownID_IsNoOp(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	_, err := r.Register("myproj", dir)
	require.NoError(t, err)

	require.NoError(t, r.Remove("proj:does-not-exist"))
	assert.Len(t, r.List(), 1)
}

func TestFindByPath_ReturnsRegisteredProject(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	p, err := r.Register("myproj", dir)
	require.NoError(t, err)

	found, ok := r.FindByPath(dir)
	require.True(t, ok)
	assert.Equal(t, p.ID, found.ID)
}

func TestFindByPath_Unregistered_ReturnsFalse(t *testing.T) {
	r := newTestRegistry(t)
	_, ok := r.FindByPath(t.TempDir())
	assert.False(t, ok)
}

func TestList_OrderedByRegistrationTime(t *testing.T) {
	r := newTestRegistry(t)
	dirA := t.TempDir()
	dirB := t.TempDir()

	a, err := r.Register("a", dirA)
	require.NoError(t, err)
	b, err := r.Register("b", dirB)
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestPersistence_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	r, err := OpenAt(path)
	require.NoError(t, err)

	dir := t.TempDir()
	p, err := r.Register("myproj", dir)
	require.NoError(t, err)

	reopened, err := OpenAt(path)
	require.NoError(t, err)
	found, ok := reopened.FindByPath(dir)
	require.True(t, ok)
	assert.Equal(t, p.ID, found.ID)
}

func TestPersistence_FilePermissions0600(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	r, err := OpenAt(path)
	require.NoError(t, err)

	_, err = r.Register("myproj", t.TempDir())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
