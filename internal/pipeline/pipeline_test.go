package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/embedder"
	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store, *vectorindex.Index) {
	t.Helper()

	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := vectorindex.New(vectorindex.DefaultConfig(embedder.Dimensions))
	require.NoError(t, err)

	enc := embedder.NewStaticEmbedder()
	registry := langregistry.New()

	p, err := New(s, idx, enc, registry)
	require.NoError(t, err)

	return p, s, idx
}

func writeProjectFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

const sampleGoSource = `package sample

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`

func TestRun_IndexesProjectAndPopulatesStoreAndIndex(t *testing.T) {
	p, s, idx := newTestPipeline(t)
	root := t.TempDir()
	writeProjectFile(t, root, "sample.go", sampleGoSource)

	opts := DefaultOptions(root)
	opts.WalkerBatchSize = 2
	opts.EmbedBatchSize = 2

	ctx := context.Background()
	res, err := p.Run(ctx, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, res.FilesWalked)
	assert.Equal(t, 1, res.FilesParsed)
	assert.Zero(t, res.ParseErrors)
	assert.Equal(t, 2, res.ChunksWritten)
	assert.False(t, res.Cancelled)

	chunks, err := s.GetChunksByOrigin(ctx, "sample.go")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	names := map[string]bool{}
	for _, c := range chunks {
		names[c.Name] = true
		assert.NotEmpty(t, c.Embedding)
		assert.True(t, idx.Contains(vectorindex.ChunkIDPrefix+c.ID))
	}
	assert.True(t, names["Add"])
	assert.True(t, names["Sub"])
}

func TestRun_PrunesChunksForDeletedFiles(t *testing.T) {
	p, s, idx := newTestPipeline(t)
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package sample\n\nfunc A() {}\n")
	writeProjectFile(t, root, "b.go", "package sample\n\nfunc B() {}\n")

	ctx := context.Background()
	opts := DefaultOptions(root)
	_, err := p.Run(ctx, opts)
	require.NoError(t, err)

	before, err := s.GetChunksByOrigin(ctx, "b.go")
	require.NoError(t, err)
	require.NotEmpty(t, before)

	require.NoError(t, os.Remove(filepath.Join(root, "b.go")))

	_, err = p.Run(ctx, opts)
	require.NoError(t, err)

	after, err := s.GetChunksByOrigin(ctx, "b.go")
	require.NoError(t, err)
	assert.Empty(t, after)

	aChunks, err := s.GetChunksByOrigin(ctx, "a.go")
	require.NoError(t, err)
	assert.NotEmpty(t, aChunks)
	_ = idx
}

func TestRun_ReusesCachedEmbeddingOnSecondRun(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	root := t.TempDir()
	writeProjectFile(t, root, "sample.go", sampleGoSource)

	ctx := context.Background()
	opts := DefaultOptions(root)

	res1, err := p.Run(ctx, opts)
	require.NoError(t, err)
	assert.Zero(t, res1.CacheHits)
	assert.Equal(t, 2, res1.CacheMisses)

	res2, err := p.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res2.CacheHits)
	assert.Zero(t, res2.CacheMisses)

	_ = s
}

func TestRunFiles_ReindexesSingleFileWithoutPruning(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package sample\n\nfunc A() {}\n")
	writeProjectFile(t, root, "b.go", "package sample\n\nfunc B() {}\n")

	ctx := context.Background()
	opts := DefaultOptions(root)
	_, err := p.Run(ctx, opts)
	require.NoError(t, err)

	writeProjectFile(t, root, "a.go", "package sample\n\nfunc A() {}\n\nfunc APrime() {}\n")

	res, err := p.RunFiles(ctx, []string{"a.go"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesWalked)

	aChunks, err := s.GetChunksByOrigin(ctx, "a.go")
	require.NoError(t, err)
	assert.Len(t, aChunks, 2)

	bChunks, err := s.GetChunksByOrigin(ctx, "b.go")
	require.NoError(t, err)
	assert.NotEmpty(t, bChunks, "RunFiles must not prune files outside its own list")
}

func TestRun_CancelledContextSkipsPruneAndSavesCheckpoint(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package sample\n\nfunc A() {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx, DefaultOptions(root))
	require.NoError(t, err)
	assert.True(t, res.Cancelled)

	cp, ok, err := s.LoadCheckpoint(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "indexing", cp.Stage)
}

func TestCancelFlag_SetIsObserved(t *testing.T) {
	var cf cancelFlag
	assert.False(t, cf.isSet())
	cf.set()
	assert.True(t, cf.isSet())
}
