package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadCmd_FindsUncalledFunction(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "dead")
	require.NoError(t, err)
	assert.Contains(t, out, "unused")
}

func TestDeadCmd_RejectsZeroTokens(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "dead", "--tokens", "0")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}
