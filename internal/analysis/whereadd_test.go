package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

func TestSuggestPlacement_AggregatesPatternsPerFile(t *testing.T) {
	a, s, idx := newTestAnalyzerWithIndex(t)
	ctx := context.Background()

	full := "package handlers\n\nimport (\n\t\"fmt\"\n)\n\nfunc Handle() error {\n\tif err != nil {\n\t\treturn err\n\t}\n\treturn nil\n}\n"
	exported := chunkFixture("handlers.go", "Handle", "func Handle() error", 7, 11)
	exported.Content = "func Handle() error {\n\tif err != nil {\n\t\treturn err\n\t}\n\treturn nil\n}"
	fileChunk := chunkFixture("handlers.go", "handlers.go", "", 1, 12)
	fileChunk.Content = full
	putChunks(t, s, "handlers.go", []store.Chunk{exported, fileChunk}, nil)
	require.NoError(t, idx.Add(ctx, []vectorindex.Point{
		{ID: vectorindex.ChunkIDPrefix + "handlers.go:Handle", Embedding: []float32{1, 0, 0}},
	}))

	results, err := a.SuggestPlacement(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	fp := results[0]
	assert.Equal(t, "handlers.go", fp.File)
	assert.True(t, fp.MajorityExported)
	assert.Contains(t, fp.ErrorMarkers, "if err != nil")
}

func TestIsExportedName(t *testing.T) {
	assert.True(t, isExportedName("Handle"))
	assert.False(t, isExportedName("handle"))
	assert.False(t, isExportedName(""))
}

func TestMajorityNamingStyle(t *testing.T) {
	chunks := []store.Chunk{
		{Name: "do_thing"},
		{Name: "do_other"},
		{Name: "DoExported"},
	}
	assert.Equal(t, "snake_case", majorityNamingStyle(chunks))
}
