package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/pipeline"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

func newGCCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "gc",
		Short: "Prune deleted files from the store and rebuild the vector index to clear tombstones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGC(cmd)
		},
	}
	return c
}

// runGC rebuilds the HNSW index from the store after pruning rather
// than compacting in place: vectorindex never reclaims a deleted node's
// slot (index.go's Delete only tombstones), so a full rebuild is the
// only way to shrink it back down, same as build.go's initial index
// construction during `index`.
func runGC(cmd *cobra.Command) error {
	a, cleanup, err := openApp(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	lock := pipeline.NewIndexLock(a.DataDir)
	acquired, err := lock.TryAcquire()
	if err != nil {
		return err
	}
	if !acquired {
		return errAnotherProcess(a.ProjectRoot)
	}
	defer lock.Release()

	ctx := cmd.Context()
	if err := pruneAndSaveIndex(cmd, a); err != nil {
		return err
	}

	idx, err := vectorindex.Build(ctx, a.Store, vectorindex.DefaultConfig(a.Embedder.Dimensions()))
	if err != nil {
		return err
	}
	old := a.IndexCell.Swap(idx)
	if old != nil {
		_ = old.Close()
	}
	if err := idx.Save(a.hnswPrefix()); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("rebuilt vector index: %d points", idx.Len())
	return nil
}
