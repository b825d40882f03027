package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/pathutil"
)

// CheckOriginsStale implements spec §4.2's check_origins_stale: compares
// each origin's stored source_mtime against the filesystem mtime of
// projectRoot/origin. A missing file is definitely stale; a transient
// stat error is reported, not silently treated as fresh or stale.
func (s *Store) CheckOriginsStale(ctx context.Context, origins []string, projectRoot string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	stale := make(map[string]bool, len(origins))
	stmt, err := s.db.PrepareContext(ctx, `SELECT MAX(source_mtime) FROM chunks WHERE origin = ?`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "prepare staleness query", err)
	}
	defer stmt.Close()

	for _, origin := range origins {
		select {
		case <-ctx.Done():
			return nil, cqserrors.Cancelled("check_origins_stale")
		default:
		}

		normalized := pathutil.Normalize(origin)
		var storedMtime *int64
		if err := stmt.QueryRowContext(ctx, normalized).Scan(&storedMtime); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "query stored mtime", err).WithDetail("origin", origin)
		}

		info, statErr := os.Stat(filepath.Join(projectRoot, filepath.FromSlash(normalized)))
		switch {
		case os.IsNotExist(statErr):
			stale[origin] = true
		case statErr != nil:
			return nil, cqserrors.Wrap(cqserrors.KindIO, "stat origin file", statErr).WithDetail("origin", origin)
		case storedMtime == nil:
			stale[origin] = true
		default:
			stale[origin] = info.ModTime().UnixMilli() != *storedMtime
		}
	}
	return stale, nil
}

// BatchCallerCount returns, for each name, the number of distinct
// caller_name rows pointing at it as a callee — a single query rather
// than one round trip per chunk (spec §4.2's scout batch_count step).
func (s *Store) BatchCallerCount(ctx context.Context, names []string) (map[string]int, error) {
	result := make(map[string]int, len(names))
	for _, n := range names {
		result[n] = 0
	}
	if len(names) == 0 {
		return result, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	placeholders, args := inClause(toAny(names))
	rows, err := s.db.QueryContext(ctx,
		`SELECT callee_name, COUNT(DISTINCT caller_name) FROM function_calls
		 WHERE callee_name IN (`+placeholders+`) GROUP BY callee_name`, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "batch caller count", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan caller count row", err)
		}
		result[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate caller count rows", err)
	}
	return result, nil
}
