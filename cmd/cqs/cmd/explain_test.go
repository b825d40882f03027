package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainCmd_PrintsSignatureAndDoc(t *testing.T) {
	dir := indexedFixture(t)

	out, err := runCQS(t, dir, "explain", "Greet")
	require.NoError(t, err)
	assert.Contains(t, out, "Greet")
	assert.Contains(t, out, "friendly greeting")
}

func TestExplainCmd_UnknownTarget_Errors(t *testing.T) {
	dir := indexedFixture(t)

	_, err := runCQS(t, dir, "explain", "NoSuchFunction")
	assert.Error(t, err)
}
