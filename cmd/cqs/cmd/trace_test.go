package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCmd_FindsCallerHop(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "trace", "formatGreeting")
	require.NoError(t, err)
	assert.Contains(t, out, "Greet")
}

func TestTraceCmd_UnresolvableTarget_Errors(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "trace", "NoSuchFunction")
	assert.Error(t, err)
}

func TestTraceCmd_RejectsZeroTokens(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "trace", "formatGreeting", "--tokens", "0")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}
