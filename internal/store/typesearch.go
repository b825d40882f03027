package store

import (
	"context"
	"strings"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// SearchChunksBySignatureTypes finds chunks whose signature contains any
// of typeNames as a substring, via one combined LIKE query with every
// name OR-ed together (spec §4.6's find_related: "shared-type overlap
// via a single combined signature LIKE query with all extracted type
// names OR-ed together"). LIKE wildcard characters in typeNames are
// escaped so a literal "%"/"_" in a type name can't widen the match.
// This is a coarse substring prefilter; callers apply the precise
// token-boundary check spec §4.6 requires (LIKE alone would let "Node"
// match "NodeId").
func (s *Store) SearchChunksBySignatureTypes(ctx context.Context, typeNames []string) ([]Chunk, error) {
	if len(typeNames) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(typeNames))
	args := make([]any, 0, len(typeNames))
	for _, t := range typeNames {
		clauses = append(clauses, "signature LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(t)+"%")
	}

	query := `SELECT ` + chunkSelectCols + ` FROM chunks WHERE ` + strings.Join(clauses, " OR ")
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "search chunks by signature type", err)
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
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate signature-type rows", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
