package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/langregistry"
)

func TestFindTestChunkNames_MatchesGoTestConventions(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	chunks := []Chunk{sampleChunk("pkg/a.go", "DoWork", 1), sampleChunk("pkg/a_test.go", "TestDoWork", 1)}
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a.go", 1000, chunks[:1], nil))
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a_test.go", 1000, chunks[1:], nil))

	refs, err := s.FindTestChunkNames(ctx, langregistry.Default())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "TestDoWork", refs[0].Name)
}

func TestFindTestChunks_FullContent_ReturnsContentAndDoc(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	c := sampleChunk("pkg/a_test.go", "TestDoWork", 1)
	c.Doc = "verifies DoWork handles empty input"
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a_test.go", 1000, []Chunk{c}, nil))

	full, err := s.FindTestChunks(ctx, langregistry.Default(), true)
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.Equal(t, c.Content, full[0].Content)
	assert.Equal(t, c.Doc, full[0].Doc)
}

func TestFindTestChunks_NotFullContent_OmitsContent(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	c := sampleChunk("pkg/a_test.go", "TestDoWork", 1)
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a_test.go", 1000, []Chunk{c}, nil))

	light, err := s.FindTestChunks(ctx, langregistry.Default(), false)
	require.NoError(t, err)
	require.Len(t, light, 1)
	assert.Empty(t, light[0].Content)
}
