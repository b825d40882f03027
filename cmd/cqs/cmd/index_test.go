package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_WritesChunksAndVectorIndex(t *testing.T) {
	dir := indexedFixture(t)

	assert.FileExists(t, filepath.Join(dir, ".cqs", "index.db"))

	out, err := runCQS(t, dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "chunks")
}

func TestIndexCmd_SecondRunSucceeds(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "index")
	require.NoError(t, err)
}
