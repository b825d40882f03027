package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOriginsStale_MissingFileIsStale(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "gone.go", 1000, []Chunk{sampleChunk("gone.go", "Foo", 1)}, nil))

	root := t.TempDir()
	stale, err := s.CheckOriginsStale(ctx, []string{"gone.go"}, root)
	require.NoError(t, err)
	assert.True(t, stale["gone.go"])
}

func TestCheckOriginsStale_MatchingMtimeIsFresh(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	chunk := sampleChunk("a.go", "Foo", 1)
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "a.go", info.ModTime().UnixMilli(), []Chunk{chunk}, nil))

	stale, err := s.CheckOriginsStale(ctx, []string{"a.go"}, root)
	require.NoError(t, err)
	assert.False(t, stale["a.go"])
}

func TestCheckOriginsStale_ChangedMtimeIsStale(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()

	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	chunk := sampleChunk("a.go", "Foo", 1)
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "a.go", 1, []Chunk{chunk}, nil))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	stale, err := s.CheckOriginsStale(ctx, []string{"a.go"}, root)
	require.NoError(t, err)
	assert.True(t, stale["a.go"])
}

func TestBatchCallerCount_CountsDistinctCallers(t *testing.T) {
	s := openMemStore(t)
	ctx := context.Background()
	chunks := []Chunk{sampleChunk("a.go", "Foo", 1), sampleChunk("a.go", "Bar", 5), sampleChunk("a.go", "Baz", 9)}
	calls := []CallEdge{
		{CallerName: "Foo", CalleeName: "Baz", CallerFile: "a.go", CallerLine: 2},
		{CallerName: "Bar", CalleeName: "Baz", CallerFile: "a.go", CallerLine: 6},
	}
	require.NoError(t, s.ReplaceFileChunksAndCalls(ctx, "a.go", 1000, chunks, calls))

	counts, err := s.BatchCallerCount(ctx, []string{"Baz", "Foo"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts["Baz"])
	assert.Equal(t, 0, counts["Foo"])
}

func TestBatchCallerCount_EmptyInput_ReturnsEmptyMap(t *testing.T) {
	s := openMemStore(t)
	counts, err := s.BatchCallerCount(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
