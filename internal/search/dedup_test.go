package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/store"
)

func TestDedupResults_KeepsHighestScoringWindowPerParent(t *testing.T) {
	results := []Result{
		{Chunk: store.Chunk{ID: "f.go:Foo#w0", ParentID: "f.go:Foo"}, Score: 0.4},
		{Chunk: store.Chunk{ID: "f.go:Foo#w1", ParentID: "f.go:Foo"}, Score: 0.9},
		{Chunk: store.Chunk{ID: "f.go:Bar", ParentID: ""}, Score: 0.5},
	}

	deduped := dedupResults(results)
	require.Len(t, deduped, 2)
	assert.Equal(t, "f.go:Foo#w1", deduped[0].Chunk.ID)
	assert.Equal(t, "f.go:Bar", deduped[1].Chunk.ID)
}

func TestDedupResults_NonWindowedChunksNeverCollapseTogether(t *testing.T) {
	results := []Result{
		{Chunk: store.Chunk{ID: "a"}, Score: 0.1},
		{Chunk: store.Chunk{ID: "b"}, Score: 0.2},
	}
	assert.Len(t, dedupResults(results), 2)
}

func TestDedupResults_TieBreaksByChunkID(t *testing.T) {
	results := []Result{
		{Chunk: store.Chunk{ID: "f.go:Foo#w1", ParentID: "p"}, Score: 0.5},
		{Chunk: store.Chunk{ID: "f.go:Foo#w0", ParentID: "p"}, Score: 0.5},
	}
	deduped := dedupResults(results)
	require.Len(t, deduped, 1)
	assert.Equal(t, "f.go:Foo#w0", deduped[0].Chunk.ID)
}
