package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/mathutil"
	"github.com/cqs-dev/cqs/internal/pathutil"
)

// UpsertNote writes or replaces a note (spec §4.2: notes mirror a TOML
// sidecar file one-for-one; the store side is a plain upsert keyed by
// the sidecar-assigned id).
func (s *Store) UpsertNote(ctx context.Context, n Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	mentions, err := json.Marshal(n.Mentions)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindInternal, "marshal note mentions", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "begin note upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	var embedding any
	if len(n.Embedding) > 0 {
		embedding = encodeEmbedding(n.Embedding)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notes(id, text, sentiment, mentions, source_file, mtime, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text, sentiment = excluded.sentiment, mentions = excluded.mentions,
			source_file = excluded.source_file, mtime = excluded.mtime, embedding = excluded.embedding`,
		n.ID, n.Text, n.Sentiment, string(mentions), pathutil.Normalize(n.SourceFile), n.Mtime, embedding); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "upsert note", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE id = ?`, n.ID); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "clear note fts row", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO notes_fts(id, text) VALUES (?, ?)`, n.ID, n.Text); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "insert note fts row", err)
	}

	if err := tx.Commit(); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "commit note upsert", err)
	}
	return nil
}

// GetNotesBySourceFile returns every note whose sidecar originated from
// sourceFile, used to reconcile a sidecar rewrite (spec §4.2/notes
// reconciliation: delete-then-reinsert by source file).
func (s *Store) GetNotesBySourceFile(ctx context.Context, sourceFile string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, sentiment, mentions, source_file, mtime, embedding FROM notes WHERE source_file = ?`,
		pathutil.Normalize(sourceFile))
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "query notes by source file", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var out []Note
	for rows.Next() {
		var n Note
		var mentions string
		var embedding []byte
		if err := rows.Scan(&n.ID, &n.Text, &n.Sentiment, &mentions, &n.SourceFile, &n.Mtime, &embedding); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan note row", err)
		}
		if err := json.Unmarshal([]byte(mentions), &n.Mentions); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindInternal, "unmarshal note mentions", err)
		}
		if len(embedding) > 0 {
			emb, err := decodeEmbedding(embedding)
			if err != nil {
				return nil, err
			}
			n.Embedding = emb
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate note rows", err)
	}
	return out, nil
}

// DeleteNotesBySourceFile removes every note tied to sourceFile, both
// the row and its FTS mirror.
func (s *Store) DeleteNotesBySourceFile(ctx context.Context, sourceFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	sourceFile = pathutil.Normalize(sourceFile)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "begin note delete", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM notes WHERE source_file = ?`, sourceFile)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "list notes to delete", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return cqserrors.Wrap(cqserrors.KindStore, "scan note id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE source_file = ?`, sourceFile); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "delete notes", err)
	}
	if len(ids) > 0 {
		placeholders, args := inClause(toAny(ids))
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE id IN (`+placeholders+`)`, args...); err != nil {
			return cqserrors.Wrap(cqserrors.KindStore, "delete note fts rows", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "commit note delete", err)
	}
	return nil
}

// ListNoteIDs returns every note id currently in the store, used by
// internal/notes to diff a TOML sidecar's current entries against
// previously-synced store rows.
func (s *Store) ListNoteIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM notes`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "list note ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan note id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate note ids", err)
	}
	return ids, nil
}

// DeleteNotesByIDs removes the given notes and their FTS mirror rows in
// one transaction.
func (s *Store) DeleteNotesByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "begin notes delete by id", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders, args := inClause(toAny(ids))
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "delete notes by id", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "delete note fts rows by id", err)
	}
	if err := tx.Commit(); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "commit notes delete by id", err)
	}
	return nil
}

// SearchNotesSemantic brute-force-scores notes carrying an embedding
// against queryEmb, mirroring SearchFiltered's approach but over the
// much smaller notes table (no batching needed).
func (s *Store) SearchNotesSemantic(ctx context.Context, queryEmb []float32, limit int) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, sentiment, mentions, source_file, mtime, embedding FROM notes WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "scan notes", err)
	}
	notes, err := scanNotes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	heap := mathutil.NewTopKHeap[Note](limit)
	for i, n := range notes {
		if len(n.Embedding) != len(queryEmb) {
			continue
		}
		score := mathutil.CosineSimilarity(queryEmb, n.Embedding)
		heap.Push(mathutil.ScoredItem[Note]{Value: n, Score: score, Order: int64(i)})
	}
	items := heap.Items()
	out := make([]Note, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out, nil
}

// SearchNotesByText runs the notes_fts MATCH path, same sanitisation
// rule as SearchByName.
func (s *Store) SearchNotesByText(ctx context.Context, query string, limit int) ([]Note, error) {
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
		SELECT n.id, n.text, n.sentiment, n.mentions, n.source_file, n.mtime, n.embedding
		FROM notes_fts
		JOIN notes n ON n.id = notes_fts.id
		WHERE notes_fts MATCH ?
		ORDER BY bm25(notes_fts)
		LIMIT ?`, sanitized, limit)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "search notes by text", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// GetNotesByIDs returns notes matching any of ids, in no particular
// order; missing ids are simply absent (mirrors GetChunksByIDs).
func (s *Store) GetNotesByIDs(ctx context.Context, ids []string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(toAny(ids))
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, sentiment, mentions, source_file, mtime, embedding FROM notes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "query notes by id", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// mentionsContain reports whether mentions contains target under
// separator-insensitive path comparison.
func mentionsContain(mentions []string, target string) bool {
	target = pathutil.Normalize(target)
	for _, m := range mentions {
		if pathutil.Normalize(m) == target {
			return true
		}
	}
	return false
}

// GetNotesMentioning scans every note and returns those whose mentions
// list includes origin, separator-insensitively (spec's related/gather
// analyses cross-reference notes by mentioned file path). The notes
// table is expected to stay small relative to chunks, so a full scan
// here mirrors SearchNotesSemantic rather than adding a mentions index.
func (s *Store) GetNotesMentioning(ctx context.Context, origin string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, sentiment, mentions, source_file, mtime, embedding FROM notes`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "scan notes for mentions", err)
	}
	all, err := scanNotes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	var out []Note
	for _, n := range all {
		if mentionsContain(n.Mentions, origin) {
			out = append(out, n)
		}
	}
	return out, nil
}
