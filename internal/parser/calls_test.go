package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/langregistry"
)

func TestExtractCalls_Go_BareAndQualified(t *testing.T) {
	source := []byte(`package main

func helper() {
	println("hi")
}

func main() {
	helper()
	fmt.Println("done")
}
`)

	p := New(langregistry.Default())
	defer p.Close()

	result, err := p.Parse(context.Background(), "main.go", "go", source)
	require.NoError(t, err)

	var callees []string
	for _, c := range result.Calls {
		if c.CallerName == "main" {
			callees = append(callees, c.CalleeName)
		}
	}
	assert.Contains(t, callees, "helper")
	assert.Contains(t, callees, "Println")
}

func TestExtractCalls_SetsCallerFile(t *testing.T) {
	source := []byte(`package main

func a() {
	b()
}
`)

	p := New(langregistry.Default())
	defer p.Close()

	result, err := p.Parse(context.Background(), "a.go", "go", source)
	require.NoError(t, err)
	require.NotEmpty(t, result.Calls)
	for _, c := range result.Calls {
		assert.Equal(t, "a.go", c.CallerFile)
		assert.Greater(t, c.CallerLine, 0)
	}
}

func TestExtractCalls_Python_MethodCall(t *testing.T) {
	source := []byte(`def run():
    obj.process()
    helper()
`)

	p := New(langregistry.Default())
	defer p.Close()

	result, err := p.Parse(context.Background(), "run.py", "python", source)
	require.NoError(t, err)

	var callees []string
	for _, c := range result.Calls {
		callees = append(callees, c.CalleeName)
	}
	assert.Contains(t, callees, "process")
	assert.Contains(t, callees, "helper")
}
