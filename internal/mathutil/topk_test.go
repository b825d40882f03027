package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopKHeap_KeepsHighestScores(t *testing.T) {
	h := NewTopKHeap[string](2)
	h.Push(ScoredItem[string]{Value: "a", Score: 0.1, Order: 1})
	h.Push(ScoredItem[string]{Value: "b", Score: 0.9, Order: 2})
	h.Push(ScoredItem[string]{Value: "c", Score: 0.5, Order: 3})

	items := h.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Value)
	assert.Equal(t, "c", items[1].Value)
}

func TestTopKHeap_TieBreaksOnLowerOrder(t *testing.T) {
	h := NewTopKHeap[string](1)
	h.Push(ScoredItem[string]{Value: "first", Score: 0.5, Order: 5})
	h.Push(ScoredItem[string]{Value: "second", Score: 0.5, Order: 2})

	items := h.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "second", items[0].Value, "lower Order should win a score tie")
}

func TestTopKHeap_FewerItemsThanK(t *testing.T) {
	h := NewTopKHeap[int](10)
	h.Push(ScoredItem[int]{Value: 1, Score: 0.3})
	assert.Equal(t, 1, h.Len())
}

func TestTopKHeap_ZeroK(t *testing.T) {
	h := NewTopKHeap[int](0)
	h.Push(ScoredItem[int]{Value: 1, Score: 1})
	assert.Equal(t, 0, h.Len())
}
