package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return DefaultConfig(3)
}

func TestAdd_Search_RanksByCosineSimilarity(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, []Point{
		{ID: "close", Embedding: []float32{1, 0, 0}},
		{ID: "far", Embedding: []float32{0, 1, 0}},
	}))

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "close", results[0].ID)
}

func TestAdd_DimensionMismatch_Errors(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	err = idx.Add(context.Background(), []Point{{ID: "a", Embedding: []float32{1, 0}}})
	assert.Error(t, err)
}

func TestSearch_EmptyIndex_ReturnsNoResultsNoError(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAdd_ReAddingID_OrphansOldNodeAndUpdatesResult(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, []Point{{ID: "a", Embedding: []float32{1, 0, 0}}}))
	require.NoError(t, idx.Add(ctx, []Point{{ID: "a", Embedding: []float32{0, 1, 0}}}))

	assert.Equal(t, 1, idx.Len())
	stats := idx.Stats()
	assert.Equal(t, 1, stats.ValidIDs)
	assert.Equal(t, 2, stats.GraphNodes)
	assert.Equal(t, 1, stats.Orphans)

	results, err := idx.Search(ctx, []float32{0, 1, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestDelete_TombstonesID_ExcludedFromSearchAndContains(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, []Point{{ID: "a", Embedding: []float32{1, 0, 0}}}))
	require.NoError(t, idx.Delete(ctx, []string{"a"}))

	assert.False(t, idx.Contains("a"))
	assert.Equal(t, 0, idx.Len())

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchAdaptive_WidensEfUntilEnoughResultsOrCap(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, []Point{
		{ID: "a", Embedding: []float32{1, 0, 0}},
		{ID: "b", Embedding: []float32{0.9, 0.1, 0}},
	}))

	results, err := idx.SearchAdaptive(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestClose_IsIdempotentAndRejectsFurtherUse(t *testing.T) {
	idx, err := New(testConfig())
	require.NoError(t, err)

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	err = idx.Add(context.Background(), []Point{{ID: "a", Embedding: []float32{1, 0, 0}}})
	assert.Error(t, err)
}
