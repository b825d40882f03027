package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleCmd_CleanIndexReportsUpToDate(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "stale")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestStaleCmd_ModifiedFileIsReported(t *testing.T) {
	dir := indexedFixture(t)

	path := filepath.Join(dir, "sample.go")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, []byte("\n// touched\n")...), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	out, err := runCQS(t, dir, "stale")
	require.NoError(t, err)
	assert.Contains(t, out, "sample.go")
}
