package search

import (
	"context"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/pathutil"
	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

// nameCacheSize bounds the engine's memoised per-query name-score maps
// (spec §4.5's DOMAIN STACK wiring calls for an LRU here, same library
// and same shape as the embedder's query cache).
const nameCacheSize = 256

// minCandidates and candidateMultiplier implement spec §4.5 step 1:
// "HNSW returns up to max(limit × 5, 100) candidate ids".
const (
	minCandidates       = 100
	candidateMultiplier = 5
)

// minCodeSlotNumerator/Denominator implement search_unified_with_index's
// slot split: "min_code_slots = ceil(limit × 3 / 5), at least 1".
const (
	minCodeSlotNumerator   = 3
	minCodeSlotDenominator = 5
)

// Engine is the hybrid search orchestrator: candidate retrieval from a
// vectorindex.Cell, scoring against the store's chunk/note tables, and
// the fusion/dedup/truncation pipeline spec §4.5 describes. Grounded on
// the teacher's search.Engine, generalised from its fixed (bm25Index,
// vectorStore) dependency pair to (store.Store, vectorindex.Cell) since
// CQS's BM25 and vector paths both live inside internal/store /
// internal/vectorindex rather than as separate interfaces.
type Engine struct {
	store     *store.Store
	index     *vectorindex.Cell
	nameCache *lru.Cache[string, map[string]float32]
}

// NewEngine builds an Engine over s and idx. idx may have its Cell
// contents swapped out from under the Engine by a concurrent rebuild
// (internal/pipeline); Engine never assumes a fixed *vectorindex.Index.
func NewEngine(s *store.Store, idx *vectorindex.Cell) *Engine {
	cache, _ := lru.New[string, map[string]float32](nameCacheSize)
	return &Engine{store: s, index: idx, nameCache: cache}
}

func candidateLimit(limit int) int {
	k := limit * candidateMultiplier
	if k < minCandidates {
		k = minCandidates
	}
	return k
}

// splitCandidates partitions raw HNSW hits by their internal/vectorindex
// id prefix, stripping the prefix and preserving rank order within each
// group.
func splitCandidates(raw []vectorindex.Result) (chunkIDs, noteIDs []string) {
	for _, r := range raw {
		switch {
		case strings.HasPrefix(r.ID, vectorindex.ChunkIDPrefix):
			chunkIDs = append(chunkIDs, strings.TrimPrefix(r.ID, vectorindex.ChunkIDPrefix))
		case strings.HasPrefix(r.ID, vectorindex.NoteIDPrefix):
			noteIDs = append(noteIDs, strings.TrimPrefix(r.ID, vectorindex.NoteIDPrefix))
		}
	}
	return chunkIDs, noteIDs
}

// SearchFilteredWithIndex is search_filtered_with_index (spec §4.5): HNSW
// candidate retrieval, scoring, optional RRF fusion, note_boost,
// parent-dedup, truncation to filter.Limit.
func (e *Engine) SearchFilteredWithIndex(ctx context.Context, queryEmb []float32, filter Filter) ([]Result, error) {
	idx := e.index.Get()
	if idx == nil || idx.Len() == 0 {
		return nil, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	k := candidateLimit(limit)

	raw, err := idx.SearchAdaptive(ctx, queryEmb, k)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	chunkIDs, noteIDs := splitCandidates(raw)
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	var pathMatcher glob.Glob
	if filter.PathGlob != "" {
		g, gerr := glob.Compile(filter.PathGlob, '/')
		if gerr != nil {
			return nil, cqserrors.Wrap(cqserrors.KindValidation, "compile path glob", gerr)
		}
		pathMatcher = g
	}

	fields, err := e.store.GetChunkScoringFieldsByIDs(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}
	fields = filterScoringFields(fields, filter.Languages, pathMatcher)
	if len(fields) == 0 {
		return nil, nil
	}

	semanticRank := make(map[string]int, len(raw))
	semanticScore := make(map[string]float32, len(raw))
	for i, r := range raw {
		id := strings.TrimPrefix(r.ID, vectorindex.ChunkIDPrefix)
		if _, ok := semanticRank[id]; !ok {
			semanticRank[id] = i + 1
			semanticScore[id] = r.Score
		}
	}

	var nameRaw map[string]float32
	if filter.QueryText != "" {
		nameRaw, err = e.scoreNamesCached(ctx, filter.QueryText, chunkIDs)
		if err != nil {
			return nil, err
		}
	}
	nameScored := nameScores(nameRaw, filter.QueryText, fields)

	results := e.scoreCandidates(fields, semanticRank, semanticScore, nameScored, filter)

	if filter.NoteBoost > 0 && len(noteIDs) > 0 {
		notes, nerr := e.store.GetNotesByIDs(ctx, noteIDs)
		if nerr != nil {
			return nil, nerr
		}
		applyNoteBoost(results, mentionSet(notes), filter.NoteBoost)
	}

	deduped := dedupResults(results)
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return e.hydrateFullChunks(ctx, deduped)
}

// filterScoringFields drops candidates outside pathMatcher or languages
// before the scoring pass, mirroring store.matchesFilter.
func filterScoringFields(fields []store.ScoringFields, languages []string, pathMatcher glob.Glob) []store.ScoringFields {
	if len(languages) == 0 && pathMatcher == nil {
		return fields
	}
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[strings.ToLower(l)] = struct{}{}
	}

	out := fields[:0]
	for _, f := range fields {
		if len(langSet) > 0 {
			if _, ok := langSet[strings.ToLower(f.Language)]; !ok {
				continue
			}
		}
		if pathMatcher != nil && !pathMatcher.Match(pathutil.Normalize(f.Origin)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// scoreCandidates computes semantic + name scores for every hydrated
// candidate, fusing them per filter.EnableRRF.
func (e *Engine) scoreCandidates(
	fields []store.ScoringFields,
	semanticRank map[string]int,
	semanticScore map[string]float32,
	nameScore map[string]float32,
	filter Filter,
) []Result {
	weights := filter.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}

	if filter.EnableRRF && filter.QueryText != "" {
		semantic := make([]rankedHit, 0, len(fields))
		name := make([]rankedHit, 0, len(fields))
		byID := make(map[string]store.ScoringFields, len(fields))
		for _, f := range fields {
			byID[f.ID] = f
			if s, ok := semanticScore[f.ID]; ok {
				semantic = append(semantic, rankedHit{id: f.ID, score: s})
			}
		}
		sort.Slice(semantic, func(i, j int) bool { return semanticRank[semantic[i].id] < semanticRank[semantic[j].id] })
		for id, s := range nameScore {
			name = append(name, rankedHit{id: id, score: s})
		}
		sort.Slice(name, func(i, j int) bool { return name[i].score > name[j].score })

		fused := rrfFuse(semantic, name, weights, DefaultRRFConstant)
		out := make([]Result, 0, len(fused))
		for _, f := range fused {
			field, ok := byID[f.id]
			if !ok {
				continue
			}
			out = append(out, Result{
				Chunk:        store.Chunk{ID: field.ID, Origin: field.Origin, Name: field.Name, ParentID: field.ParentID},
				Score:        float32(f.rrf),
				SemanticRank: semanticRank[f.id],
				NameRank:     rankOf(name, f.id),
				InBothLists:  f.inBoth,
			})
		}
		return out
	}

	out := make([]Result, 0, len(fields))
	for _, f := range fields {
		sem := semanticScore[f.ID]
		name := nameScore[f.ID]
		score := float32(weights.Semantic)*sem + float32(weights.Name)*name
		out = append(out, Result{
			Chunk:        store.Chunk{ID: f.ID, Origin: f.Origin, Name: f.Name, ParentID: f.ParentID},
			Score:        score,
			SemanticRank: semanticRank[f.ID],
		})
	}
	return out
}

func rankOf(ranked []rankedHit, id string) int {
	for i, h := range ranked {
		if h.id == id {
			return i + 1
		}
	}
	return 0
}

// scoreNamesCached memoises ScoreNamesByID per (query, candidate-set)
// pair for the lifetime of the process cache, since the same query
// often re-scores an overlapping candidate set across paginated calls.
func (e *Engine) scoreNamesCached(ctx context.Context, query string, ids []string) (map[string]float32, error) {
	key := cacheKey(query, ids)
	if v, ok := e.nameCache.Get(key); ok {
		return v, nil
	}
	scores, err := e.store.ScoreNamesByID(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	e.nameCache.Add(key, scores)
	return scores, nil
}

func cacheKey(query string, ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return query + "\x00" + strings.Join(sorted, ",")
}

// hydrateFullChunks fetches full chunk rows (content included) only for
// the final, post-dedup result set (spec §4.5 step 2).
func (e *Engine) hydrateFullChunks(ctx context.Context, results []Result) ([]Result, error) {
	if len(results) == 0 {
		return results, nil
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Chunk.ID
	}
	full, err := e.store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.Chunk, len(full))
	for _, c := range full {
		byID[c.ID] = c
	}
	out := results[:0]
	for _, r := range results {
		c, ok := byID[r.Chunk.ID]
		if !ok {
			continue // chunk deleted between candidate retrieval and hydration
		}
		r.Chunk = c
		out = append(out, r)
	}
	return out, nil
}

// SearchFiltered is the brute-force fallback path (spec §4.5: "must
// cursor-stream embeddings in page-sized batches... same bounded top-K
// heap"), used when no vector index is available. It delegates directly
// to the store, which already implements the cursor-streamed scan.
func (e *Engine) SearchFiltered(ctx context.Context, queryEmb []float32, filter Filter) ([]Result, error) {
	sr, err := e.store.SearchFiltered(ctx, queryEmb, store.Filter{
		Languages: filter.Languages,
		PathGlob:  filter.PathGlob,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(sr))
	for i, r := range sr {
		out[i] = Result{Chunk: r.Chunk, Score: r.Semantic}
	}
	return dedupResults(out), nil
}

// SearchByName delegates to the store's FTS5 path (spec §4.5:
// "search_by_name uses FTS5 MATCH on a sanitised query").
func (e *Engine) SearchByName(ctx context.Context, query string, limit int) ([]Result, error) {
	sr, err := e.store.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(sr))
	for i, r := range sr {
		out[i] = Result{Chunk: r.Chunk, Score: r.NameHit}
	}
	return out, nil
}
