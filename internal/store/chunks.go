package store

import (
	"context"
	"database/sql"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/pathutil"
)

// chunkColumns is the binding arity of one chunks row, used to derive
// the batch size for ReplaceFileChunksAndCalls from spec §4.2's
// "≤ 300 rows per batched INSERT for a 3-column row; chunk size
// computed from binding arity" rule.
const chunkColumns = 14

func maxChunkBatchRows() int {
	rows := (MaxBatchRows * 3) / chunkColumns
	if rows < 1 {
		return 1
	}
	return rows
}

// ReplaceFileChunksAndCalls atomically replaces every chunks/chunks_fts/
// function_calls row belonging to origin (spec §4.2). The whole
// operation — delete, batched insert, FTS mirror update, call-edge
// replace, metadata.updated_at bump — runs inside one transaction.
func (s *Store) ReplaceFileChunksAndCalls(ctx context.Context, origin string, mtime int64, chunks []Chunk, calls []CallEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	origin = pathutil.Normalize(origin)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "begin replace transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE origin = ?`, origin); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "delete stale chunks", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks_fts WHERE id IN (SELECT id FROM chunks_fts WHERE id LIKE ? || ':%')`, origin); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "delete stale fts rows", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM function_calls WHERE caller_file = ?`, origin); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "delete stale call edges", err)
	}

	if err := insertChunksBatched(ctx, tx, chunks, mtime); err != nil {
		return err
	}
	if err := insertCallsBatched(ctx, tx, calls); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		MetaUpdatedAt, formatMillis(nowMillis())); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "update metadata.updated_at", err)
	}

	if err := tx.Commit(); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "commit replace transaction", err)
	}
	return nil
}

func insertChunksBatched(ctx context.Context, tx *sql.Tx, chunks []Chunk, mtime int64) error {
	batchSize := maxChunkBatchRows()
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := insertChunkRows(ctx, tx, chunks[start:end], mtime); err != nil {
			return err
		}
	}
	return nil
}

func insertChunkRows(ctx context.Context, tx *sql.Tx, rows []Chunk, mtime int64) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks(id, origin, name, signature, content, doc, chunk_kind,
			language, line_start, line_end, content_hash, parent_id, source_mtime, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prepare chunk insert", err)
	}
	defer stmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks_fts(id, name, content) VALUES (?, ?, ?)`)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prepare fts insert", err)
	}
	defer ftsStmt.Close()

	for _, c := range rows {
		origin := pathutil.Normalize(c.Origin)
		var parentID any
		if c.ParentID != "" {
			parentID = c.ParentID
		}
		var embedding any
		if len(c.Embedding) > 0 {
			embedding = encodeEmbedding(c.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, origin, c.Name, c.Signature, c.Content, c.Doc,
			string(c.ChunkKind), c.Language, c.LineStart, c.LineEnd, c.ContentHash, parentID, mtime, embedding); err != nil {
			return cqserrors.Wrap(cqserrors.KindStore, "insert chunk row", err).WithDetail("id", c.ID)
		}
		if _, err := ftsStmt.ExecContext(ctx, c.ID, c.Name, c.Content); err != nil {
			return cqserrors.Wrap(cqserrors.KindStore, "insert fts row", err).WithDetail("id", c.ID)
		}
	}
	return nil
}

func insertCallsBatched(ctx context.Context, tx *sql.Tx, calls []CallEdge) error {
	if len(calls) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO function_calls(caller_name, callee_name, caller_file, caller_line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prepare call insert", err)
	}
	defer stmt.Close()

	for _, c := range calls {
		if _, err := stmt.ExecContext(ctx, c.CallerName, c.CalleeName, pathutil.Normalize(c.CallerFile), c.CallerLine); err != nil {
			return cqserrors.Wrap(cqserrors.KindStore, "insert call edge", err)
		}
	}
	return nil
}

// GetByContentHash implements the indexing reuse-path from spec §4.2:
// returns the stored embedding for hash, or ok=false if no chunk with
// that content hash has one yet. A genuine DB error is always returned
// as an error, never silently folded into ok=false.
func (s *Store) GetByContentHash(ctx context.Context, hash string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding FROM chunks WHERE content_hash = ? AND embedding IS NOT NULL LIMIT 1`, hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, cqserrors.Wrap(cqserrors.KindStore, "query content hash", err)
	}
	emb, err := decodeEmbedding(blob)
	if err != nil {
		return nil, false, err
	}
	return emb, true, nil
}

// GetChunksByOrigin returns every chunk whose origin matches (normalised
// before binding, per spec §4.2).
func (s *Store) GetChunksByOrigin(ctx context.Context, origin string) ([]Chunk, error) {
	return s.queryChunks(ctx, `SELECT `+chunkSelectCols+` FROM chunks WHERE origin = ? ORDER BY line_start`,
		pathutil.Normalize(origin))
}

// GetChunksByIDs returns chunks matching any of ids, in no particular
// order; missing ids are simply absent from the result (spec §5: hydration
// must tolerate and drop missing ids).
func (s *Store) GetChunksByIDs(ctx context.Context, ids []string) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(toAny(ids))
	return s.queryChunks(ctx, `SELECT `+chunkSelectCols+` FROM chunks WHERE id IN (`+placeholders+`)`, args...)
}

// ScoringFields is the minimal per-chunk projection internal/search
// hydrates candidates into before scoring (spec §4.5 step 2: "hydrate
// only embeddings + minimal metadata for scoring; full content is
// fetched only for the final top-limit results").
type ScoringFields struct {
	ID        string
	Origin    string
	Name      string
	Language  string
	ParentID  string
	Embedding []float32
}

// GetChunkScoringFieldsByIDs is GetChunksByIDs without the Content/Doc/
// Signature columns, for the candidate-scoring phase of a hybrid search
// where those columns would otherwise be fetched and discarded for
// every non-finalist candidate.
func (s *Store) GetChunkScoringFieldsByIDs(ctx context.Context, ids []string) ([]ScoringFields, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	placeholders, args := inClause(toAny(ids))
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, origin, name, language, parent_id, embedding FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "query chunk scoring fields", err)
	}
	defer rows.Close()

	var out []ScoringFields
	for rows.Next() {
		var f ScoringFields
		var parentID sql.NullString
		var embedding []byte
		if err := rows.Scan(&f.ID, &f.Origin, &f.Name, &f.Language, &parentID, &embedding); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan chunk scoring fields row", err)
		}
		if parentID.Valid {
			f.ParentID = parentID.String
		}
		if len(embedding) > 0 {
			emb, derr := decodeEmbedding(embedding)
			if derr != nil {
				return nil, derr
			}
			f.Embedding = emb
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate chunk scoring fields rows", err)
	}
	return out, nil
}

// GetChunksByNamesBatch returns a name → chunks map in one query (spec
// §4.2: "one SQL statement with name IN (…), result demultiplexed to a
// map; an empty name input returns an empty map").
func (s *Store) GetChunksByNamesBatch(ctx context.Context, names []string) (map[string][]Chunk, error) {
	result := make(map[string][]Chunk)
	if len(names) == 0 {
		return result, nil
	}
	placeholders, args := inClause(toAny(names))
	rows, err := s.queryChunks(ctx, `SELECT `+chunkSelectCols+` FROM chunks WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, c := range rows {
		result[c.Name] = append(result[c.Name], c)
	}
	return result, nil
}

const chunkSelectCols = `id, origin, name, signature, content, doc, chunk_kind, language,
	line_start, line_end, content_hash, parent_id, source_mtime, embedding`

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "query chunks", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate chunk rows", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(r rowScanner) (Chunk, error) {
	var c Chunk
	var kind string
	var parentID sql.NullString
	var embedding []byte
	if err := r.Scan(&c.ID, &c.Origin, &c.Name, &c.Signature, &c.Content, &c.Doc, &kind, &c.Language,
		&c.LineStart, &c.LineEnd, &c.ContentHash, &parentID, &c.SourceMtime, &embedding); err != nil {
		return Chunk{}, cqserrors.Wrap(cqserrors.KindStore, "scan chunk row", err)
	}
	c.ChunkKind = langregistry.ChunkKind(kind)
	if parentID.Valid {
		c.ParentID = parentID.String
	}
	if len(embedding) > 0 {
		emb, err := decodeEmbedding(embedding)
		if err != nil {
			return Chunk{}, err
		}
		c.Embedding = emb
	}
	return c, nil
}
