package store

import (
	"context"
	"strings"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/langregistry"
)

// FindAllFunctionNames returns every chunk of kind function or method —
// the universe find_dead_code's phase 1 (spec §4.6) filters down from.
func (s *Store) FindAllFunctionNames(ctx context.Context) ([]Chunk, error) {
	return s.queryChunks(ctx, `SELECT `+chunkSelectCols+` FROM chunks WHERE chunk_kind IN (?, ?)`,
		string(langregistry.KindFunction), string(langregistry.KindMethod))
}

// FindIdentifierOccurrences returns, for each name, every line of chunk
// content containing that identifier as a whole word — the raw material
// find_dead_code's phase 3 (spec §4.6) classifies into call sites versus
// value references (struct field initializers, interface
// implementations, reflection registration). One query scans the corpus
// once regardless of len(names), trading a broader in-memory match for
// avoiding N content scans.
func (s *Store) FindIdentifierOccurrences(ctx context.Context, names []string) (map[string][]string, error) {
	out := make(map[string][]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	nameSet := make(map[string]struct{}, len(names))
	for _, n := range names {
		nameSet[n] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT content FROM chunks WHERE content != ''`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "scan chunk content for identifier occurrences", err)
	}
	defer rows.Close()

	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan content row", err)
		}
		for _, line := range strings.Split(content, "\n") {
			for name := range nameSet {
				if containsWord(line, name) {
					out[name] = append(out[name], line)
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate chunk content rows", err)
	}
	return out, nil
}

func containsWord(line, word string) bool {
	idx := strings.Index(line, word)
	for idx >= 0 {
		before := idx == 0 || !isIdentByte(line[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(line) || !isIdentByte(line[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(line[idx+1:], word)
		if next < 0 {
			break
		}
		idx = idx + 1 + next
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
