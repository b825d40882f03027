package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpactCmd_ReportsCallerAndTest(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "impact", "formatGreeting")
	require.NoError(t, err)

	assert.Contains(t, out, "Greet")
	assert.Contains(t, out, "TestGreet")
}

func TestImpactCmd_UnknownTarget_Errors(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "impact", "NoSuchFunction")
	assert.Error(t, err)
}

func TestImpactCmd_NoIndex_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := runCQS(t, dir, "impact", "Greet")
	assert.Error(t, err)
}

func TestImpactCmd_RejectsZeroTokens(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "impact", "formatGreeting", "--tokens", "0")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}
