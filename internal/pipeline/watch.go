package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/watcher"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	Pipeline Options
	Watcher  watcher.Options
	Logger   *slog.Logger
}

// Watch runs the indexing pipeline in watch mode (spec §4.4): a
// HybridWatcher emits debounced batches of file events, and each batch
// is re-indexed through the same parser-pool/embedder/writer stages as
// a full index, under the same advisory lock. It blocks until ctx is
// cancelled or the watcher closes its channels; watcher errors and failed
// re-index batches are logged and do not stop it.
func (p *Pipeline) Watch(ctx context.Context, opts WatchOptions) error {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	lock := NewIndexLock(filepath.Join(opts.Pipeline.ProjectRoot, ".cqs"))
	acquired, err := lock.TryAcquire()
	if err != nil {
		return err
	}
	if !acquired {
		return cqserrors.New(cqserrors.KindIO, "another index operation holds the lock").
			WithDetail("lock_path", lock.Path())
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("release index lock", "error", err)
		}
	}()

	w, err := watcher.NewHybridWatcher(opts.Watcher)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "create watcher", err)
	}
	if err := w.Start(ctx, opts.Pipeline.ProjectRoot); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "start watcher", err)
	}
	defer func() {
		if err := w.Stop(); err != nil {
			log.Warn("stop watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case errEvt, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", errEvt)

		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			origins := originsFromBatch(batch)
			if len(origins) == 0 {
				continue
			}

			res, err := p.RunFiles(ctx, origins, opts.Pipeline)
			if err != nil {
				log.Error("watch-mode reindex failed", "error", err, "files", len(origins))
				continue
			}
			log.Info("watch-mode reindex",
				"files", res.FilesWalked,
				"chunks", res.ChunksWritten,
				"cache_hits", res.CacheHits,
				"cache_misses", res.CacheMisses,
			)
		}
	}
}

// originsFromBatch extracts the distinct, still-relevant file paths
// from one debounced event batch. Deletes are skipped: the pipeline's
// parser-pool stage reads the file from disk and a deleted file can
// only be pruned by a subsequent full index, not re-embedded.
func originsFromBatch(events []watcher.FileEvent) []string {
	seen := make(map[string]struct{}, len(events))
	var origins []string
	for _, e := range events {
		if e.IsDir || e.Operation == watcher.OpDelete {
			continue
		}
		if _, ok := seen[e.Path]; ok {
			continue
		}
		seen[e.Path] = struct{}{}
		origins = append(origins, e.Path)
	}
	return origins
}
