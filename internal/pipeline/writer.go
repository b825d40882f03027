package pipeline

import (
	"context"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

// runWriter is the single writer goroutine (spec §4.4: "Writer commits
// via replace_file_chunks_and_calls, interleaving chunks and calls in
// the same transaction"). After each commit it performs the incremental
// HNSW update spec §4.4's watch-mode section describes ("add new
// points, remove deleted ones") for every run, not only watch mode,
// since a full index is just the degenerate case where every origin is
// new and nothing needs deleting.
func runWriter(ctx context.Context, s *store.Store, idx *vectorindex.Index, cancelled *cancelFlag, in <-chan writeBatch) (batches, chunksWritten int, err error) {
	for wb := range in {
		if cancelled.isSet() {
			continue
		}
		if ctx.Err() != nil {
			return batches, chunksWritten, cqserrors.Cancelled("write")
		}

		before, err := s.GetChunksByOrigin(ctx, wb.origin)
		if err != nil {
			return batches, chunksWritten, cqserrors.Wrap(cqserrors.KindStore, "read existing chunks before write", err)
		}
		beforeIDs := make(map[string]struct{}, len(before))
		for _, c := range before {
			beforeIDs[c.ID] = struct{}{}
		}

		if err := s.ReplaceFileChunksAndCalls(ctx, wb.origin, wb.mtime, wb.chunks, wb.calls); err != nil {
			return batches, chunksWritten, cqserrors.Wrap(cqserrors.KindStore, "replace file chunks and calls", err)
		}

		afterIDs := make(map[string]struct{}, len(wb.chunks))
		points := make([]vectorindex.Point, 0, len(wb.chunks))
		for _, c := range wb.chunks {
			afterIDs[c.ID] = struct{}{}
			if len(c.Embedding) > 0 {
				points = append(points, vectorindex.Point{ID: vectorindex.ChunkIDPrefix + c.ID, Embedding: c.Embedding})
			}
		}

		var stale []string
		for id := range beforeIDs {
			if _, ok := afterIDs[id]; !ok {
				stale = append(stale, vectorindex.ChunkIDPrefix+id)
			}
		}

		if idx != nil {
			if len(points) > 0 {
				if err := idx.Add(ctx, points); err != nil {
					return batches, chunksWritten, cqserrors.Wrap(cqserrors.KindVectorIndex, "incremental index add", err)
				}
			}
			if len(stale) > 0 {
				if err := idx.Delete(ctx, stale); err != nil {
					return batches, chunksWritten, cqserrors.Wrap(cqserrors.KindVectorIndex, "incremental index delete", err)
				}
			}
		}

		batches++
		chunksWritten += len(wb.chunks)

		select {
		case <-ctx.Done():
			return batches, chunksWritten, cqserrors.Cancelled("write")
		default:
		}
	}
	return batches, chunksWritten, nil
}
