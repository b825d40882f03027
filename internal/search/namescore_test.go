package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cqs-dev/cqs/internal/store"
)

func TestNameScores_FloorsAtZeroNotHalf(t *testing.T) {
	candidates := []store.ScoringFields{{ID: "a", Name: "Foo"}}
	scores := nameScores(map[string]float32{"a": -3}, "", candidates)
	assert.Equal(t, float32(0), scores["a"])
}

func TestNameScores_ExactMatchOutscoresPrefixMatch(t *testing.T) {
	candidates := []store.ScoringFields{
		{ID: "exact", Name: "Foo"},
		{ID: "prefix", Name: "FooBar"},
	}
	raw := map[string]float32{"exact": 0, "prefix": 0}
	scores := nameScores(raw, "foo", candidates)
	assert.Greater(t, scores["exact"], scores["prefix"])
	assert.Equal(t, float32(1), scores["exact"], "top score normalises to 1")
}

func TestNameScores_EmptyQueryTextSkipsBoost(t *testing.T) {
	candidates := []store.ScoringFields{{ID: "a", Name: "Foo"}}
	scores := nameScores(map[string]float32{"a": 2}, "", candidates)
	assert.Equal(t, float32(1), scores["a"])
}
