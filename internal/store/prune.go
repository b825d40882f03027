package store

import (
	"context"
	"database/sql"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/pathutil"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// pruneBatchSize caps how many origins go into one DELETE ... IN (...)
// batch, so Prune's single outer transaction never builds one
// arbitrarily large statement (spec §4.2: "Operates in batches within a
// single outer transaction").
const pruneBatchSize = 200

// Prune deletes every chunks/chunks_fts/function_calls/notes/notes_fts
// row whose origin is not present in existingFiles. The whole operation
// is one transaction: a crash leaves either all-pruned or none-pruned.
func (s *Store) Prune(ctx context.Context, existingFiles map[string]struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(existingFiles))
	for f := range existingFiles {
		keep[pathutil.Normalize(f)] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "begin prune", err)
	}
	defer func() { _ = tx.Rollback() }()

	stale, err := distinctOrigins(ctx, tx, `SELECT DISTINCT origin FROM chunks`)
	if err != nil {
		return err
	}
	noteOrigins, err := distinctOrigins(ctx, tx, `SELECT DISTINCT source_file FROM notes`)
	if err != nil {
		return err
	}

	var toDelete, noteDelete []string
	for _, o := range stale {
		if _, ok := keep[o]; !ok {
			toDelete = append(toDelete, o)
		}
	}
	for _, o := range noteOrigins {
		if _, ok := keep[o]; !ok {
			noteDelete = append(noteDelete, o)
		}
	}

	for start := 0; start < len(toDelete); start += pruneBatchSize {
		end := start + pruneBatchSize
		if end > len(toDelete) {
			end = len(toDelete)
		}
		if err := pruneChunkBatch(ctx, tx, toDelete[start:end]); err != nil {
			return err
		}
	}
	for start := 0; start < len(noteDelete); start += pruneBatchSize {
		end := start + pruneBatchSize
		if end > len(noteDelete) {
			end = len(noteDelete)
		}
		if err := pruneNoteBatch(ctx, tx, noteDelete[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "commit prune", err)
	}
	return nil
}

// ListOrigins returns every distinct chunk origin currently in the
// store, used by the `stale` and `gc` CLI commands to know what to
// check/prune without duplicating Prune's own origin discovery.
func (s *Store) ListOrigins(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return distinctOrigins(ctx, s.db, `SELECT DISTINCT origin FROM chunks`)
}

// Stats is the row-count summary the `stats`/`doctor` CLI commands
// report, a cheap aggregate query rather than a full scan.
type Stats struct {
	Files  int
	Chunks int
	Notes  int
	Calls  int
}

// Stats returns current row counts across the store's main tables.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT origin) FROM chunks`)
	if err := row.Scan(&st.Files); err != nil {
		return Stats{}, cqserrors.Wrap(cqserrors.KindStore, "count files", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`)
	if err := row.Scan(&st.Chunks); err != nil {
		return Stats{}, cqserrors.Wrap(cqserrors.KindStore, "count chunks", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`)
	if err := row.Scan(&st.Notes); err != nil {
		return Stats{}, cqserrors.Wrap(cqserrors.KindStore, "count notes", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM function_calls`)
	if err := row.Scan(&st.Calls); err != nil {
		return Stats{}, cqserrors.Wrap(cqserrors.KindStore, "count function calls", err)
	}
	return st, nil
}

func distinctOrigins(ctx context.Context, tx queryer, query string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "list distinct origins", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan origin", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate origins", err)
	}
	return out, nil
}

func pruneChunkBatch(ctx context.Context, tx execer, origins []string) error {
	placeholders, args := inClause(toAny(origins))
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks_fts WHERE id IN (SELECT id FROM chunks WHERE origin IN (`+placeholders+`))`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prune fts rows", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM function_calls WHERE caller_file IN (`+placeholders+`)`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prune call edges", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE origin IN (`+placeholders+`)`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prune chunks", err)
	}
	return nil
}

func pruneNoteBatch(ctx context.Context, tx execer, origins []string) error {
	placeholders, args := inClause(toAny(origins))
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM notes_fts WHERE id IN (SELECT id FROM notes WHERE source_file IN (`+placeholders+`))`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prune note fts rows", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE source_file IN (`+placeholders+`)`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "prune notes", err)
	}
	return nil
}
