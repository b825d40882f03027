package store

import (
	"context"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// EmbeddingRow is one id/vector pair surfaced to a vector-index builder.
// ID is the bare chunk or note primary key; callers that merge both
// streams into one index are responsible for id-prefixing (spec §4.3:
// "Notes are included; consumers filter by id-prefix").
type EmbeddingRow struct {
	ID        string
	Embedding []float32
}

// StreamChunkEmbeddings cursor-streams every chunk that carries a
// non-empty embedding, in batches of batchSize, calling fn once per
// batch. Mirrors the batching discipline of SearchFiltered's brute-force
// scan (search.go) so a full-index build never materialises more than
// one batch of decoded vectors at a time.
func (s *Store) StreamChunkEmbeddings(ctx context.Context, batchSize int, fn func([]EmbeddingRow) error) error {
	return s.streamEmbeddings(ctx, `SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL`, batchSize, fn)
}

// StreamNoteEmbeddings is StreamChunkEmbeddings for the notes table.
func (s *Store) StreamNoteEmbeddings(ctx context.Context, batchSize int, fn func([]EmbeddingRow) error) error {
	return s.streamEmbeddings(ctx, `SELECT id, embedding FROM notes WHERE embedding IS NOT NULL`, batchSize, fn)
}

func (s *Store) streamEmbeddings(ctx context.Context, query string, batchSize int, fn func([]EmbeddingRow) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = 10_000
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "stream embeddings", err)
	}
	defer rows.Close()

	batch := make([]EmbeddingRow, 0, batchSize)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return cqserrors.Cancelled("stream embeddings")
		}

		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return cqserrors.Wrap(cqserrors.KindStore, "scan embedding row", err)
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			return cqserrors.Wrap(cqserrors.KindStore, "decode embedding for "+id, err)
		}
		batch = append(batch, EmbeddingRow{ID: id, Embedding: vec})

		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "stream embeddings", err)
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
