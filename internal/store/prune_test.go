package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune_RemovesChunksNotInExistingFiles(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "keep.go", 1000, []Chunk{sampleChunk("keep.go", "Keep", 1)}, nil))
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "gone.go", 1000, []Chunk{sampleChunk("gone.go", "Gone", 1)}, nil))

	require.NoError(t, s.Prune(ctx, map[string]struct{}{"keep.go": {}}))

	kept, err := s.GetChunksByOrigin(ctx, "keep.go")
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	gone, err := s.GetChunksByOrigin(ctx, "gone.go")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestPrune_RemovesOrphanedNotes(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertNote(ctx, sampleNote("n1", "gone.toml", nil)))
	require.NoError(t, s.Prune(ctx, map[string]struct{}{}))

	notes, err := s.GetNotesBySourceFile(ctx, "gone.toml")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestPrune_EmptyStore_NoOp(t *testing.T) {
	s := openMemStore(t)
	require.NoError(t, s.Prune(context.Background(), map[string]struct{}{"anything.go": {}}))
}

func TestPrune_KeepsNameSearchConsistent(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "gone.go", 1000, []Chunk{sampleChunk("gone.go", "GoneFn", 1)}, nil))

	require.NoError(t, s.Prune(ctx, map[string]struct{}{}))

	results, err := s.SearchByName(ctx, "GoneFn", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
