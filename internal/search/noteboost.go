package search

import (
	"github.com/cqs-dev/cqs/internal/pathutil"
	"github.com/cqs-dev/cqs/internal/store"
)

// mentionSet unions the mentions lists of every relevant note (the notes
// surfaced as HNSW candidates for this query) into a lookup set, for
// note_boost's "chunks whose file or name appears in a relevant note's
// mentions set" rule (spec §4.5 step 3). Mentions are normalized so a
// Windows-style path mention matches a forward-slash-normalized chunk
// origin.
func mentionSet(notes []store.Note) map[string]struct{} {
	set := make(map[string]struct{})
	for _, n := range notes {
		for _, m := range n.Mentions {
			set[pathutil.Normalize(m)] = struct{}{}
		}
	}
	return set
}

// applyNoteBoost adds boost to every result whose chunk origin or name
// is mentioned by a relevant note.
func applyNoteBoost(results []Result, mentioned map[string]struct{}, boost float32) {
	if boost <= 0 || len(mentioned) == 0 {
		return
	}
	for i := range results {
		_, byOrigin := mentioned[pathutil.Normalize(results[i].Chunk.Origin)]
		_, byName := mentioned[pathutil.Normalize(results[i].Chunk.Name)]
		if byOrigin || byName {
			results[i].Score += boost
		}
	}
}
