package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cqs-dev/cqs/internal/store"
)

func TestApplyNoteBoost_BoostsChunkMentionedByOrigin(t *testing.T) {
	results := []Result{
		{Chunk: store.Chunk{ID: "a", Origin: "pkg/a.go"}, Score: 0.1},
		{Chunk: store.Chunk{ID: "b", Origin: "pkg/b.go"}, Score: 0.1},
	}
	mentioned := mentionSet([]store.Note{{Mentions: []string{"pkg/a.go"}}})
	applyNoteBoost(results, mentioned, 0.5)

	assert.InDelta(t, 0.6, results[0].Score, 1e-6)
	assert.InDelta(t, 0.1, results[1].Score, 1e-6)
}

func TestApplyNoteBoost_ZeroBoostIsNoOp(t *testing.T) {
	results := []Result{{Chunk: store.Chunk{ID: "a", Origin: "pkg/a.go"}, Score: 0.1}}
	mentioned := mentionSet([]store.Note{{Mentions: []string{"pkg/a.go"}}})
	applyNoteBoost(results, mentioned, 0)
	assert.InDelta(t, 0.1, results[0].Score, 1e-6)
}

func TestMentionSet_UnionsAcrossNotes(t *testing.T) {
	set := mentionSet([]store.Note{
		{Mentions: []string{"a.go", "b.go"}},
		{Mentions: []string{"c.go"}},
	})
	assert.Len(t, set, 3)
}

func TestApplyNoteBoost_MatchesAcrossSeparatorStyles(t *testing.T) {
	results := []Result{
		{Chunk: store.Chunk{ID: "a", Origin: "src/foo.rs"}, Score: 0.1},
	}
	mentioned := mentionSet([]store.Note{{Mentions: []string{`src\foo.rs`}}})
	applyNoteBoost(results, mentioned, 0.5)

	assert.InDelta(t, 0.6, results[0].Score, 1e-6)
}
