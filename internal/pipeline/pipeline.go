package pipeline

import (
	"context"
	"time"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/embedder"
	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/scanner"
	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

// Pipeline wires together the walker, parser pool, embedder stage, and
// writer behind one Run call (spec §4.4). It holds no per-run state;
// a Pipeline value is safe to reuse across Run calls (each gets its own
// cancelFlag), but never for two concurrent Run calls against the same
// store — the writer is single-writer by design (spec §5).
type Pipeline struct {
	store    *store.Store
	index    *vectorindex.Index
	embedder embedder.Embedder
	registry *langregistry.Registry
	scanner  *scanner.Scanner

	cancelled cancelFlag
}

// New builds a Pipeline over the given store, vector index, embedder,
// and language registry. idx may be nil: a run then skips incremental
// HNSW maintenance (used by callers that rebuild the index separately,
// e.g. `cqs convert`).
func New(s *store.Store, idx *vectorindex.Index, enc embedder.Embedder, registry *langregistry.Registry) (*Pipeline, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindInternal, "create scanner", err)
	}
	return &Pipeline{store: s, index: idx, embedder: enc, registry: registry, scanner: sc}, nil
}

// Cancel sets the process-wide cancellation flag for the run in
// progress (spec §4.4). Safe to call from another goroutine.
func (p *Pipeline) Cancel() {
	p.cancelled.set()
}

// Run executes one full staged index of opts.ProjectRoot: walker feeds
// the parser pool, which feeds the embedder stage, which feeds the
// single writer. The cancellation flag is reset at the start of the
// run (spec §4.4: "reset at the start of each pipeline run") so a prior
// run's cancellation never poisons this one.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	opts = opts.withDefaults()
	p.cancelled = cancelFlag{}

	start := time.Now()

	walked := make(chan walkedFile, opts.ChannelDepth)
	parsed := make(chan parsedFile, opts.ChannelDepth)
	toWrite := make(chan writeBatch, opts.ChannelDepth)

	var (
		filesWalked             int
		walkedOrigins           map[string]struct{}
		walkErr                 error
		filesParsed, parseErrs  int
		cacheHits, cacheMisses  int
		batchesWritten, written int
		writeErr                error
	)

	done := make(chan struct{}, 4)

	go func() {
		filesWalked, walkedOrigins, walkErr = runWalker(ctx, p.scanner, opts, &p.cancelled, walked)
		done <- struct{}{}
	}()
	go func() {
		filesParsed, parseErrs = runParsePool(ctx, p.registry, opts, &p.cancelled, walked, parsed)
		done <- struct{}{}
	}()
	go func() {
		cacheHits, cacheMisses = runEmbedStage(ctx, p.store, p.embedder, opts, &p.cancelled, parsed, toWrite)
		done <- struct{}{}
	}()
	go func() {
		batchesWritten, written, writeErr = runWriter(ctx, p.store, p.index, &p.cancelled, toWrite)
		done <- struct{}{}
	}()

	for i := 0; i < 4; i++ {
		<-done
	}

	res := Result{
		FilesWalked:    filesWalked,
		FilesParsed:    filesParsed,
		ParseErrors:    parseErrs,
		ChunksWritten:  written,
		CacheHits:      cacheHits,
		CacheMisses:    cacheMisses,
		BatchesWritten: batchesWritten,
		Duration:       time.Since(start),
		Cancelled:      p.cancelled.isSet() || ctx.Err() != nil,
	}

	if writeErr != nil {
		if cqserrors.KindOf(writeErr) == cqserrors.KindCancelled {
			res.Cancelled = true
			return res, nil
		}
		return res, writeErr
	}
	if walkErr != nil && cqserrors.KindOf(walkErr) != cqserrors.KindCancelled {
		return res, walkErr
	}

	// Bookkeeping writes below must land even when ctx is the reason we
	// stopped early: a cancelled caller still wants its checkpoint
	// persisted, and context.WithoutCancel detaches the deadline/cancel
	// signal while keeping ctx's values.
	bg := context.WithoutCancel(ctx)

	if !res.Cancelled {
		if err := p.store.Prune(bg, walkedOrigins); err != nil {
			return res, cqserrors.Wrap(cqserrors.KindStore, "prune removed files", err)
		}
		if err := p.store.ClearCheckpoint(bg); err != nil {
			return res, cqserrors.Wrap(cqserrors.KindStore, "clear checkpoint", err)
		}
	} else {
		cp := store.Checkpoint{
			Stage:         "indexing",
			Total:         res.FilesWalked,
			Embedded:      res.CacheHits + res.CacheMisses,
			Timestamp:     time.Now(),
			EmbedderModel: p.embedder.ModelName(),
		}
		if err := p.store.SaveCheckpoint(bg, cp); err != nil {
			return res, cqserrors.Wrap(cqserrors.KindStore, "save checkpoint", err)
		}
	}

	return res, nil
}

// RunFiles re-indexes exactly the given project-relative origins through
// the same parser-pool/embedder/writer stages as Run, without walking
// the project or pruning (spec §4.4's watch-mode contract: "Same
// pipeline invoked with a file list derived from filesystem events").
// mtimes are captured from disk at call time; callers that need the
// enqueue-time mtime (spec §4.4(a)) must pass origins through promptly
// after the triggering event, before another write lands.
func (p *Pipeline) RunFiles(ctx context.Context, origins []string, opts Options) (Result, error) {
	opts = opts.withDefaults()

	start := time.Now()

	walked := make(chan walkedFile, opts.ChannelDepth)
	parsed := make(chan parsedFile, opts.ChannelDepth)
	toWrite := make(chan writeBatch, opts.ChannelDepth)

	var (
		filesWalked             int
		walkErr                 error
		filesParsed, parseErrs  int
		cacheHits, cacheMisses  int
		batchesWritten, written int
		writeErr                error
	)

	done := make(chan struct{}, 4)

	go func() {
		filesWalked, walkErr = runFileList(ctx, opts.ProjectRoot, origins, &p.cancelled, walked)
		done <- struct{}{}
	}()
	go func() {
		filesParsed, parseErrs = runParsePool(ctx, p.registry, opts, &p.cancelled, walked, parsed)
		done <- struct{}{}
	}()
	go func() {
		cacheHits, cacheMisses = runEmbedStage(ctx, p.store, p.embedder, opts, &p.cancelled, parsed, toWrite)
		done <- struct{}{}
	}()
	go func() {
		batchesWritten, written, writeErr = runWriter(ctx, p.store, p.index, &p.cancelled, toWrite)
		done <- struct{}{}
	}()

	for i := 0; i < 4; i++ {
		<-done
	}

	res := Result{
		FilesWalked:    filesWalked,
		FilesParsed:    filesParsed,
		ParseErrors:    parseErrs,
		ChunksWritten:  written,
		CacheHits:      cacheHits,
		CacheMisses:    cacheMisses,
		BatchesWritten: batchesWritten,
		Duration:       time.Since(start),
		Cancelled:      p.cancelled.isSet() || ctx.Err() != nil,
	}

	if writeErr != nil {
		if cqserrors.KindOf(writeErr) == cqserrors.KindCancelled {
			res.Cancelled = true
			return res, nil
		}
		return res, writeErr
	}
	if walkErr != nil && cqserrors.KindOf(walkErr) != cqserrors.KindCancelled {
		return res, walkErr
	}

	return res, nil
}
