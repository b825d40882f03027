package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// indexedFixture writes a tiny Go source tree to a temp dir and runs
// `cqs index` against it through the real CLI, exercising the scanner,
// parser, embedder, and vector index the way an operator would.
// Greet calls formatGreeting; TestGreet exercises Greet — enough shape
// for impact/related/trace/test-map/dead/review to have something to
// report.
func indexedFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	src := `package sample

// Greet returns a friendly greeting for name.
func Greet(name string) string {
	return formatGreeting(name)
}

func formatGreeting(name string) string {
	return "Hello, " + name
}

func unused() string {
	return "nobody calls me"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(src), 0o644))

	testSrc := `package sample

import "testing"

func TestGreet(t *testing.T) {
	if Greet("world") != "Hello, world" {
		t.Fatal("bad greeting")
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample_test.go"), []byte(testSrc), 0o644))

	indexCmd := NewRootCmd()
	indexCmd.SetOut(new(bytes.Buffer))
	indexCmd.SetErr(new(bytes.Buffer))
	indexCmd.SetArgs([]string{"--dir", dir, "index"})
	require.NoError(t, indexCmd.Execute())

	return dir
}

func runCQS(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	full := append([]string{"--dir", dir}, args...)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return buf.String(), err
}
