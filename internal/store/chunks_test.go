package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/langregistry"
)

func sampleChunk(origin, name string, line int) Chunk {
	return Chunk{
		ID:          origin + ":" + name,
		Origin:      origin,
		Name:        name,
		Signature:   "func " + name + "()",
		Content:     "func " + name + "() { return }",
		Doc:         "",
		ChunkKind:   langregistry.KindFunction,
		Language:    "go",
		LineStart:   line,
		LineEnd:     line + 2,
		ContentHash: "hash-" + name,
		Embedding:   []float32{0.1, 0.2, 0.3},
	}
}

func TestReplaceFileChunksAndCalls_InsertsAndReplaces(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	chunks := []Chunk{sampleChunk("pkg/a.go", "Foo", 1), sampleChunk("pkg/a.go", "Bar", 10)}
	calls := []CallEdge{{CallerName: "Foo", CalleeName: "Bar", CallerFile: "pkg/a.go", CallerLine: 2}}

	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a.go", 1000, chunks, calls))

	got, err := s.GetChunksByOrigin(ctx, "pkg/a.go")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Foo", got[0].Name)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got[0].Embedding)

	graph, err := s.GetCallGraph(ctx)
	require.NoError(t, err)
	assert.Contains(t, graph.Forward["Foo"], "Bar")

	// Replacing again drops the old chunk/call rows entirely.
	replacement := []Chunk{sampleChunk("pkg/a.go", "Baz", 1)}
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a.go", 2000, replacement, nil))

	got, err = s.GetChunksByOrigin(ctx, "pkg/a.go")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Baz", got[0].Name)

	graph, err = s.GetCallGraph(ctx)
	require.NoError(t, err)
	assert.Empty(t, graph.Forward["Foo"])
}

func TestReplaceFileChunksAndCalls_NormalizesOrigin(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	chunks := []Chunk{sampleChunk(`pkg\a.go`, "Foo", 1)}
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, `pkg\a.go`, 1000, chunks, nil))

	got, err := s.GetChunksByOrigin(ctx, "pkg/a.go")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestGetByContentHash_ReturnsEmbedding(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	chunk := sampleChunk("pkg/a.go", "Foo", 1)
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a.go", 1000, []Chunk{chunk}, nil))

	emb, ok, err := s.GetByContentHash(ctx, "hash-Foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb)
}

func TestGetByContentHash_Missing_ReturnsNotOK(t *testing.T) {
	s := openMemStore(t)
	_, ok, err := s.GetByContentHash(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetChunksByIDs_DropsMissingIDs(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()
	chunk := sampleChunk("pkg/a.go", "Foo", 1)
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a.go", 1000, []Chunk{chunk}, nil))

	got, err := s.GetChunksByIDs(ctx, []string{chunk.ID, "nonexistent:id"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Foo", got[0].Name)
}

func TestGetChunksByIDs_EmptyInput_ReturnsEmpty(t *testing.T) {
	s := openMemStore(t)
	got, err := s.GetChunksByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetChunksByNamesBatch_DemultiplexesByName(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()
	chunks := []Chunk{sampleChunk("pkg/a.go", "Foo", 1), sampleChunk("pkg/b.go", "Foo", 1)}
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/a.go", 1000, chunks[:1], nil))
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "pkg/b.go", 1000, chunks[1:], nil))

	result, err := s.GetChunksByNamesBatch(ctx, []string{"Foo", "Missing"})
	require.NoError(t, err)
	assert.Len(t, result["Foo"], 2)
	assert.Empty(t, result["Missing"])
}

func TestGetChunksByNamesBatch_EmptyInput_ReturnsEmptyMap(t *testing.T) {
	s := openMemStore(t)
	result, err := s.GetChunksByNamesBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}
