package pipeline

import (
	"context"

	"github.com/cqs-dev/cqs/internal/embedder"
	"github.com/cqs-dev/cqs/internal/store"
)

// runEmbedStage prefixes every chunk with a content-hash cache probe
// against the store (spec §4.4: "prefixes the batch with a content-hash
// probe against the store; cached embeddings bypass the model"),
// batches the remaining chunks in groups of opts.EmbedBatchSize, and
// embeds them. The reference embedder (internal/embedder) is a
// deterministic hash-based encoder with no GPU/CPU split, so spec
// §4.4's "GPU failure reroutes that batch to the CPU embedder via a
// fail_channel" has no second provider to fail over to here; on an
// embedding error the file is dropped from the batch (no counter in the
// run's Result records it) rather than aborting the run, preserving the
// "a parse/embed failure on one file never aborts a batch" contract.
func runEmbedStage(ctx context.Context, s *store.Store, enc embedder.Embedder, opts Options, cancelled *cancelFlag, in <-chan parsedFile, out chan<- writeBatch) (hits, misses int) {
	defer close(out)

	for pf := range in {
		if cancelled.isSet() {
			continue
		}

		chunks := make([]store.Chunk, len(pf.result.Chunks))
		for i, c := range pf.result.Chunks {
			chunks[i] = store.Chunk{
				ID: c.ID, Origin: c.Origin, Name: c.Name, Signature: c.Signature,
				Content: c.Content, Doc: c.Doc, ChunkKind: c.ChunkKind, Language: c.Language,
				LineStart: c.LineStart, LineEnd: c.LineEnd, ContentHash: c.ContentHash,
				ParentID: c.ParentID, SourceMtime: pf.mtime,
			}
		}
		calls := make([]store.CallEdge, len(pf.result.Calls))
		for i, e := range pf.result.Calls {
			calls[i] = store.CallEdge(e)
		}
		pending := make([]int, 0, len(chunks))
		for i, c := range chunks {
			if emb, ok, err := s.GetByContentHash(ctx, c.ContentHash); err == nil && ok {
				chunks[i].Embedding = emb
				hits++
				continue
			}
			pending = append(pending, i)
		}

		failed := false
		for start := 0; start < len(pending); start += opts.EmbedBatchSize {
			end := start + opts.EmbedBatchSize
			if end > len(pending) {
				end = len(pending)
			}
			group := pending[start:end]

			texts := make([]string, len(group))
			for j, idx := range group {
				texts[j] = embedText(chunks[idx])
			}

			vecs, err := enc.EmbedBatch(ctx, texts)
			if err != nil {
				failed = true
				break
			}
			for j, idx := range group {
				chunks[idx].Embedding = vecs[j]
				misses++
			}
		}
		if failed {
			continue
		}

		select {
		case out <- writeBatch{origin: pf.origin, mtime: pf.mtime, chunks: chunks, calls: calls}:
		case <-ctx.Done():
			return hits, misses
		}
	}
	return hits, misses
}

// embedText is the text a chunk is embedded as: signature and doc give
// the encoder the identifier and intent, content gives it the body.
func embedText(c store.Chunk) string {
	if c.Doc == "" {
		return c.Signature + "\n" + c.Content
	}
	return c.Signature + "\n" + c.Doc + "\n" + c.Content
}
