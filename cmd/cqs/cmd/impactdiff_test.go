package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleDiff touches formatGreeting's body (lines 8-10 of the sample.go
// written by indexedFixture), so AnalyzeDiffImpact maps it back to
// formatGreeting and from there finds Greet as a caller and TestGreet as
// a reachable test.
func sampleDiff() string {
	var b strings.Builder
	fmt.Fprint(&b, "diff --git a/sample.go b/sample.go\n")
	fmt.Fprint(&b, "--- a/sample.go\n")
	fmt.Fprint(&b, "+++ b/sample.go\n")
	fmt.Fprint(&b, "@@ -8,3 +8,3 @@\n")
	fmt.Fprint(&b, " func formatGreeting(name string) string {\n")
	fmt.Fprint(&b, "-\treturn \"Hello, \" + name\n")
	fmt.Fprint(&b, "+\treturn \"Hello there, \" + name\n")
	fmt.Fprint(&b, " }\n")
	return b.String()
}

func TestImpactDiffCmd_ReadsFromStdin(t *testing.T) {
	dir := indexedFixture(t)

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(sampleDiff()))
	cmd.SetArgs([]string{"--dir", dir, "impact-diff"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "formatGreeting")
}

func TestImpactDiffCmd_ReadsFromFile(t *testing.T) {
	dir := indexedFixture(t)
	diffPath := dir + "/change.diff"
	require.NoError(t, os.WriteFile(diffPath, []byte(sampleDiff()), 0o644))

	out, err := runCQS(t, dir, "impact-diff", "--file", diffPath)
	require.NoError(t, err)
	assert.Contains(t, out, "formatGreeting")
}

func TestImpactDiffCmd_RejectsZeroTokens(t *testing.T) {
	dir := indexedFixture(t)
	diffPath := dir + "/change.diff"
	require.NoError(t, os.WriteFile(diffPath, []byte(sampleDiff()), 0o644))

	_, err := runCQS(t, dir, "impact-diff", "--file", diffPath, "--tokens", "0")
	require.Error(t, err)
	assert.True(t, isUsageError(err))
}
