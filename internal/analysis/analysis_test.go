package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/search"
	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

func chunkFixture(origin, name, signature string, lineStart, lineEnd int) store.Chunk {
	return store.Chunk{
		ID:          origin + ":" + name,
		Origin:      origin,
		Name:        name,
		Signature:   signature,
		Content:     "func " + name + "() {}",
		ChunkKind:   langregistry.KindFunction,
		Language:    "go",
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		ContentHash: "hash-" + name,
	}
}

func newTestAnalyzer(t *testing.T) (*Analyzer, *store.Store) {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := vectorindex.New(vectorindex.DefaultConfig(3))
	require.NoError(t, err)
	engine := search.NewEngine(s, vectorindex.NewCell(idx))
	registry := langregistry.New()

	return New(s, engine, registry), s
}

func putChunks(t *testing.T, s *store.Store, origin string, chunks []store.Chunk, calls []store.CallEdge) {
	t.Helper()
	require.NoError(t, s.ReplaceFileChunksAndCalls(context.Background(), origin, 1000, chunks, calls))
}

// newTestAnalyzerWithIndex is newTestAnalyzer plus access to the
// underlying vectorindex.Index, for operations (gather, scout,
// suggest_placement) whose first step is a semantic search over indexed
// embeddings rather than a plain store lookup.
func newTestAnalyzerWithIndex(t *testing.T) (*Analyzer, *store.Store, *vectorindex.Index) {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := vectorindex.New(vectorindex.DefaultConfig(3))
	require.NoError(t, err)
	engine := search.NewEngine(s, vectorindex.NewCell(idx))
	registry := langregistry.New()

	return New(s, engine, registry), s, idx
}
