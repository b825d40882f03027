package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gobwas/glob"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/mathutil"
	"github.com/cqs-dev/cqs/internal/pathutil"
)

// searchScanBatch bounds how many chunk rows SearchFiltered pulls into
// memory per page, per spec §4.5's "cursor-streamed in page-sized
// batches rather than one unbounded SELECT *".
const searchScanBatch = 500

// SearchFiltered performs the brute-force cosine scan spec §4.2/§4.5
// describe for the store's own (non-HNSW) filtered search path: stream
// chunk rows in bounded batches, score every row carrying an embedding
// against queryEmb, and keep only the top filter.Limit by a bounded
// min-heap so memory never grows with corpus size.
func (s *Store) SearchFiltered(ctx context.Context, queryEmb []float32, filter Filter) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	var pathMatcher glob.Glob
	if filter.PathGlob != "" {
		g, err := glob.Compile(filter.PathGlob, '/')
		if err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindValidation, "compile path glob", err)
		}
		pathMatcher = g
	}
	langSet := make(map[string]struct{}, len(filter.Languages))
	for _, l := range filter.Languages {
		langSet[strings.ToLower(l)] = struct{}{}
	}

	heap := mathutil.NewTopKHeap[Chunk](limit)

	var lastID string
	var order int64
	for {
		select {
		case <-ctx.Done():
			return nil, cqserrors.Cancelled("search_filtered")
		default:
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT `+chunkSelectCols+` FROM chunks WHERE embedding IS NOT NULL AND id > ? ORDER BY id LIMIT ?`,
			lastID, searchScanBatch)
		if err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan chunks", err)
		}

		batchCount := 0
		for rows.Next() {
			c, err := scanChunk(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			batchCount++
			lastID = c.ID

			if !matchesFilter(c, langSet, pathMatcher) {
				continue
			}
			if len(c.Embedding) != len(queryEmb) {
				continue
			}
			score := mathutil.CosineSimilarity(queryEmb, c.Embedding)
			heap.Push(mathutil.ScoredItem[Chunk]{Value: c, Score: score, Order: order})
			order++
		}
		closeErr := rows.Close()
		if closeErr != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "close scan cursor", closeErr)
		}
		if batchCount < searchScanBatch {
			break
		}
	}

	items := heap.Items()
	results := make([]SearchResult, len(items))
	for i, it := range items {
		results[i] = SearchResult{Chunk: it.Value, Semantic: it.Score}
	}
	return results, nil
}

func matchesFilter(c Chunk, langSet map[string]struct{}, pathMatcher glob.Glob) bool {
	if len(langSet) > 0 {
		if _, ok := langSet[strings.ToLower(c.Language)]; !ok {
			return false
		}
	}
	if pathMatcher != nil && !pathMatcher.Match(pathutil.Normalize(c.Origin)) {
		return false
	}
	return true
}

// SearchByName runs the FTS5 name/content search path (spec §4.2:
// "the query is sanitised... and quoted" before MATCH).
func (s *Store) SearchByName(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	sanitized := mathutil.SanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.origin, c.name, c.signature, c.content, c.doc, c.chunk_kind, c.language,
			c.line_start, c.line_end, c.content_hash, c.parent_id, c.source_mtime, c.embedding,
			bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.id
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, sanitized, limit)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "search by name", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var c Chunk
		var kind string
		var parentID sql.NullString
		var embedding []byte
		var rank float64
		if err := rows.Scan(&c.ID, &c.Origin, &c.Name, &c.Signature, &c.Content, &c.Doc, &kind, &c.Language,
			&c.LineStart, &c.LineEnd, &c.ContentHash, &parentID, &c.SourceMtime, &embedding, &rank); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan name-search row", err)
		}
		c.ChunkKind = langregistry.ChunkKind(kind)
		if parentID.Valid {
			c.ParentID = parentID.String
		}
		if len(embedding) > 0 {
			emb, derr := decodeEmbedding(embedding)
			if derr != nil {
				return nil, derr
			}
			c.Embedding = emb
		}
		out = append(out, SearchResult{Chunk: c, NameHit: float32(-rank)})
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate name-search rows", err)
	}
	return out, nil
}

// ScoreNamesByID computes a name-only BM25 score for candidate ids
// against a sanitised query, for the per-candidate "name_score"
// component of search_filtered_with_index (spec §4.5). The content
// column's bm25 weight is zeroed so the score reflects the name field
// alone, not the full chunk body. ids not matched by the query (or not
// present at all) are absent from the result map; callers treat a
// missing entry as score 0, the floor spec §4.5 requires.
func (s *Store) ScoreNamesByID(ctx context.Context, query string, ids []string) (map[string]float32, error) {
	out := make(map[string]float32)
	if len(ids) == 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	sanitized := mathutil.SanitizeFTSQuery(query)
	if sanitized == "" {
		return out, nil
	}

	placeholders, args := inClause(toAny(ids))
	args = append([]any{sanitized}, args...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunks_fts.id, bm25(chunks_fts, 1.0, 0.0) AS rank
		FROM chunks_fts
		WHERE chunks_fts MATCH ? AND chunks_fts.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "score names by id", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan name-score row", err)
		}
		out[id] = float32(-rank) // bm25() is lower-is-better; negate so higher is better
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate name-score rows", err)
	}
	return out, nil
}
