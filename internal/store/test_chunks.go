package store

import (
	"context"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/langregistry"
)

// TestChunkRef is the light-weight shape find_test_chunk_names returns:
// just enough to point scout/impact's test-discovery hint paths at a
// location without paying for the row's content.
type TestChunkRef struct {
	Name   string
	Origin string
	Line   int
}

// FindTestChunkNames returns name/file/line for every chunk the language
// registry's test hints classify as a test (spec §4.2: "a light
// name+file+line one used by scout/impact hint paths").
func (s *Store) FindTestChunkNames(ctx context.Context, registry *langregistry.Registry) ([]TestChunkRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, origin, line_start, language FROM chunks`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "scan chunks for test names", err)
	}
	defer rows.Close()

	var out []TestChunkRef
	for rows.Next() {
		var name, origin, language string
		var line int
		if err := rows.Scan(&name, &origin, &line, &language); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan test-name row", err)
		}
		if isTestChunk(registry, language, name, origin) {
			out = append(out, TestChunkRef{Name: name, Origin: origin, Line: line})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate test-name rows", err)
	}
	return out, nil
}

// FindTestChunks returns full Chunk rows for every chunk classified as a
// test. fullContent selects between a lightweight projection (doc/content
// omitted, for callers that only need identity) and the complete row
// used by dead-code's test-suggestion path.
func (s *Store) FindTestChunks(ctx context.Context, registry *langregistry.Registry, fullContent bool) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	cols := chunkSelectCols
	if !fullContent {
		cols = `id, origin, name, signature, '', '', chunk_kind, language,
			line_start, line_end, content_hash, parent_id, source_mtime, NULL`
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+cols+` FROM chunks`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "scan chunks for test chunks", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		if isTestChunk(registry, c.Language, c.Name, c.Origin) {
			out = append(out, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate test-chunk rows", err)
	}
	return out, nil
}

func isTestChunk(registry *langregistry.Registry, language, name, origin string) bool {
	def, ok := registry.ByName(language)
	if !ok {
		return false
	}
	return def.IsTestName(name) || def.IsTestPath(origin)
}
