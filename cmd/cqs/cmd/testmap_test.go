package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestMapCmd_FindsReachableTest(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "test-map", "formatGreeting")
	require.NoError(t, err)
	assert.Contains(t, out, "TestGreet")
}

func TestTestMapCmd_HasMaxTestDepthFlag(t *testing.T) {
	cmd := NewRootCmd()
	tm, _, err := cmd.Find([]string{"test-map"})
	require.NoError(t, err)
	assert.NotNil(t, tm.Flags().Lookup("max-test-depth"))
	assert.NotNil(t, tm.Flags().Lookup("tokens"))
}

func TestTestMapCmd_RejectsZeroTokens(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "test-map", "formatGreeting", "--tokens", "0")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}
