package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCCmd_RebuildsVectorIndex(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "gc")
	require.NoError(t, err)
	assert.Contains(t, out, "rebuilt vector index")

	statsOut, err := runCQS(t, dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, statsOut, "vector")
}
