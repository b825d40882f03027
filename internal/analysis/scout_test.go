package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

func TestScout_ClassifiesHitsAndGroupsByFile(t *testing.T) {
	a, s, idx := newTestAnalyzerWithIndex(t)
	ctx := context.Background()

	target := chunkFixture("a.go", "Target", "func Target()", 1, 5)
	testFn := chunkFixture("a_test.go", "TestTarget", "func TestTarget(t *testing.T)", 1, 5)
	putChunks(t, s, "a.go", []store.Chunk{target}, nil)
	putChunks(t, s, "a_test.go", []store.Chunk{testFn}, nil)

	require.NoError(t, idx.Add(ctx, []vectorindex.Point{
		{ID: vectorindex.ChunkIDPrefix + "a.go:Target", Embedding: []float32{1, 0, 0}},
		{ID: vectorindex.ChunkIDPrefix + "a_test.go:TestTarget", Embedding: []float32{0.9, 0.1, 0}},
	}))

	groups, err := a.Scout(ctx, []float32{1, 0, 0}, 10, 0.5, "/proj")
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	var sawModify, sawTest bool
	for _, g := range groups {
		for _, h := range g.Hits {
			switch h.Classification {
			case ScoutModifyTarget:
				sawModify = true
			case ScoutTestToUpdate:
				sawTest = true
			}
		}
	}
	assert.True(t, sawModify)
	assert.True(t, sawTest)
}
