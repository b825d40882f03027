package vectorindex

import (
	"context"

	"github.com/cqs-dev/cqs/internal/store"
)

// BuildBatchSize is the streaming batch size Build pulls from the store,
// per spec §4.3: "Streaming from the store in fixed batches of 10 000;
// data never fully materialised in memory twice."
const BuildBatchSize = 10_000

// ChunkIDPrefix and NoteIDPrefix tag ids by origin table so a hydration
// step downstream can tell chunk hits from note hits without a second
// store round trip (spec §4.3: "Notes are included; consumers filter by
// id-prefix").
const (
	ChunkIDPrefix = "chunk:"
	NoteIDPrefix  = "note:"
)

// Build streams every embedded chunk and note out of s in fixed-size
// batches and adds them to a freshly constructed index, never holding
// more than one batch of decoded vectors in memory at a time.
func Build(ctx context.Context, s *store.Store, cfg Config) (*Index, error) {
	idx, err := New(cfg)
	if err != nil {
		return nil, err
	}

	addBatch := func(prefix string) func([]store.EmbeddingRow) error {
		return func(rows []store.EmbeddingRow) error {
			points := make([]Point, len(rows))
			for i, r := range rows {
				points[i] = Point{ID: prefix + r.ID, Embedding: r.Embedding}
			}
			return idx.Add(ctx, points)
		}
	}

	if err := s.StreamChunkEmbeddings(ctx, BuildBatchSize, addBatch(ChunkIDPrefix)); err != nil {
		return nil, err
	}
	if err := s.StreamNoteEmbeddings(ctx, BuildBatchSize, addBatch(NoteIDPrefix)); err != nil {
		return nil, err
	}
	return idx, nil
}
