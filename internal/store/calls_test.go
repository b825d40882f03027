package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCallGraph_BuildsForwardAndReverse(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	chunks := []Chunk{sampleChunk("a.go", "Foo", 1), sampleChunk("a.go", "Bar", 5), sampleChunk("a.go", "Baz", 9)}
	calls := []CallEdge{
		{CallerName: "Foo", CalleeName: "Bar", CallerFile: "a.go", CallerLine: 2},
		{CallerName: "Foo", CalleeName: "Baz", CallerFile: "a.go", CallerLine: 3},
		{CallerName: "Bar", CalleeName: "Baz", CallerFile: "a.go", CallerLine: 6},
	}
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "a.go", 1000, chunks, calls))

	graph, err := s.GetCallGraph(ctx)
	require.NoError(t, err)

	assert.Len(t, graph.Forward["Foo"], 2)
	assert.Contains(t, graph.Forward["Foo"], "Bar")
	assert.Contains(t, graph.Forward["Foo"], "Baz")
	assert.Len(t, graph.Reverse["Baz"], 2)
	assert.Contains(t, graph.Reverse["Baz"], "Foo")
	assert.Contains(t, graph.Reverse["Baz"], "Bar")
}

func TestGetCallGraph_EmptyStore_ReturnsEmptyGraph(t *testing.T) {
	s := openMemStore(t)
	graph, err := s.GetCallGraph(context.Background())
	require.NoError(t, err)
	assert.Empty(t, graph.Forward)
	assert.Empty(t, graph.Reverse)
}
