package analysis

import (
	"context"
	"sort"

	"github.com/cqs-dev/cqs/internal/search"
	"github.com/cqs-dev/cqs/internal/store"
)

// ScoutClassification is one of the three buckets scout sorts a hit
// into (spec §4.6).
type ScoutClassification string

const (
	ScoutModifyTarget ScoutClassification = "modify_target"
	ScoutDependency    ScoutClassification = "dependency"
	ScoutTestToUpdate  ScoutClassification = "test_to_update"
)

// ScoutHit is one classified result, chunk or note.
type ScoutHit struct {
	Chunk          store.Chunk
	Note           *store.Note
	Score          float32
	Classification ScoutClassification
	CallerCount    int
}

// ScoutFileGroup groups scout hits by the file they belong to, annotated
// with that file's staleness.
type ScoutFileGroup struct {
	File  string
	Stale bool
	Hits  []ScoutHit
}

// Scout implements scout(task, limit): unified code+notes semantic
// search, classified by a score threshold and the shared is_test_chunk
// predicate, grouped by file with a batched caller count and staleness
// check (spec §4.6).
func (a *Analyzer) Scout(ctx context.Context, taskEmb []float32, limit int, scoreThreshold float32, projectRoot string) ([]ScoutFileGroup, error) {
	results, err := a.engine.SearchUnifiedWithIndex(ctx, taskEmb, search.Filter{Limit: limit})
	if err != nil {
		return nil, err
	}

	hits := make([]ScoutHit, 0, len(results))
	var names []string
	fileSet := make(map[string]struct{})
	for _, r := range results {
		switch r.Kind {
		case search.HitKindChunk:
			h := ScoutHit{Chunk: r.Chunk, Score: r.Score}
			switch {
			case a.isTestChunk(r.Chunk):
				h.Classification = ScoutTestToUpdate
			case r.Score >= scoreThreshold:
				h.Classification = ScoutModifyTarget
			default:
				h.Classification = ScoutDependency
			}
			hits = append(hits, h)
			names = append(names, r.Chunk.Name)
			fileSet[r.Chunk.Origin] = struct{}{}
		case search.HitKindNote:
			note := r.Note
			hits = append(hits, ScoutHit{Note: &note, Score: r.Score, Classification: ScoutDependency})
			if note.SourceFile != "" {
				fileSet[note.SourceFile] = struct{}{}
			}
		}
	}

	callerCounts, err := a.store.BatchCallerCount(ctx, names)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		if hits[i].Note == nil {
			hits[i].CallerCount = callerCounts[hits[i].Chunk.Name]
		}
	}

	files := make([]string, 0, len(fileSet))
	for f := range fileSet {
		files = append(files, f)
	}
	stale, err := a.store.CheckOriginsStale(ctx, files, projectRoot)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*ScoutFileGroup)
	var order []string
	for _, h := range hits {
		file := h.Chunk.Origin
		if h.Note != nil {
			file = h.Note.SourceFile
		}
		g, ok := groups[file]
		if !ok {
			g = &ScoutFileGroup{File: file, Stale: stale[file]}
			groups[file] = g
			order = append(order, file)
		}
		g.Hits = append(g.Hits, h)
	}
	sort.Strings(order)

	out := make([]ScoutFileGroup, 0, len(order))
	for _, f := range order {
		out = append(out, *groups[f])
	}
	return out, nil
}
