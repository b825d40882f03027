package search

import (
	"context"
	"sort"
	"strings"

	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

// noteHit pairs a hydrated note with its HNSW candidate score.
type noteHit struct {
	note  store.Note
	score float32
}

// SearchUnifiedWithIndex is search_unified_with_index (spec §4.5):
// guarantees min_code_slots = ceil(limit × 3 / 5) (at least 1) of the
// results are code chunks, fills the rest from whichever of the
// remaining code candidates or notes score highest, then re-sorts the
// combined set by weighted score and truncates to limit.
func (e *Engine) SearchUnifiedWithIndex(ctx context.Context, queryEmb []float32, filter Filter) ([]UnifiedResult, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	minCode := ceilDiv(limit*minCodeSlotNumerator, minCodeSlotDenominator)
	if minCode < 1 {
		minCode = 1
	}

	codeFilter := filter
	codeFilter.Limit = limit
	codeResults, err := e.SearchFilteredWithIndex(ctx, queryEmb, codeFilter)
	if err != nil {
		return nil, err
	}

	guaranteed := codeResults
	if len(guaranteed) > minCode {
		guaranteed = guaranteed[:minCode]
	}
	leftoverCode := codeResults[len(guaranteed):]

	notes, err := e.searchNotesWithIndex(ctx, queryEmb, limit-len(guaranteed))
	if err != nil {
		return nil, err
	}

	combined := make([]UnifiedResult, 0, limit)
	for _, r := range guaranteed {
		combined = append(combined, UnifiedResult{Kind: HitKindChunk, Chunk: r.Chunk, Score: r.Score})
	}

	rest := make([]UnifiedResult, 0, len(leftoverCode)+len(notes))
	for _, r := range leftoverCode {
		rest = append(rest, UnifiedResult{Kind: HitKindChunk, Chunk: r.Chunk, Score: r.Score})
	}
	for _, n := range notes {
		rest = append(rest, UnifiedResult{Kind: HitKindNote, Note: n.note, Score: n.score})
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Score > rest[j].Score })
	for _, r := range rest {
		if len(combined) >= limit {
			break
		}
		combined = append(combined, r)
	}

	sort.Slice(combined, func(i, j int) bool { return combined[i].Score > combined[j].Score })
	return combined, nil
}

// searchNotesWithIndex is SearchFilteredWithIndex's note-only sibling:
// same candidate-retrieval shape, restricted to note: prefixed ids.
func (e *Engine) searchNotesWithIndex(ctx context.Context, queryEmb []float32, limit int) ([]noteHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	idx := e.index.Get()
	if idx == nil || idx.Len() == 0 {
		return nil, nil
	}

	raw, err := idx.SearchAdaptive(ctx, queryEmb, candidateLimit(limit))
	if err != nil {
		return nil, err
	}

	var noteIDs []string
	scoreByID := make(map[string]float32, len(raw))
	for _, r := range raw {
		if id, ok := strings.CutPrefix(r.ID, vectorindex.NoteIDPrefix); ok {
			noteIDs = append(noteIDs, id)
			scoreByID[id] = r.Score
		}
	}
	if len(noteIDs) == 0 {
		return nil, nil
	}

	notes, err := e.store.GetNotesByIDs(ctx, noteIDs)
	if err != nil {
		return nil, err
	}
	out := make([]noteHit, len(notes))
	for i, n := range notes {
		out[i] = noteHit{note: n, score: scoreByID[n.ID]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
