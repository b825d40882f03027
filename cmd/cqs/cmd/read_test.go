package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCmd_WholeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("line1\nline2\nline3\n"), 0o644))

	out, err := runCQS(t, dir, "read", "a.go")
	require.NoError(t, err)
	assert.Contains(t, out, "line1")
	assert.Contains(t, out, "line3")
}

func TestReadCmd_LineRange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("line1\nline2\nline3\n"), 0o644))

	out, err := runCQS(t, dir, "read", "a.go:2-2")
	require.NoError(t, err)
	assert.Contains(t, out, "line2")
	assert.NotContains(t, out, "line1")
	assert.NotContains(t, out, "line3")
}

func TestReadCmd_InvertedRange_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("line1\nline2\n"), 0o644))

	_, err := runCQS(t, dir, "read", "a.go:2-1")
	assert.Error(t, err)
}

func TestParseReadSpec(t *testing.T) {
	path, start, end, err := parseReadSpec("foo/bar.go:3-9")
	require.NoError(t, err)
	assert.Equal(t, "foo/bar.go", path)
	assert.Equal(t, 3, start)
	assert.Equal(t, 9, end)

	path, start, end, err = parseReadSpec("foo/bar.go")
	require.NoError(t, err)
	assert.Equal(t, "foo/bar.go", path)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
