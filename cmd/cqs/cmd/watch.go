package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/pipeline"
	"github.com/cqs-dev/cqs/internal/vectorindex"
	"github.com/cqs-dev/cqs/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "watch",
		Short: "Index once, then keep the index up to date as files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
	return c
}

func runWatch(cmd *cobra.Command) error {
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

	if a.IndexCell.Get() == nil {
		idx, err := vectorindex.New(vectorindex.DefaultConfig(a.Embedder.Dimensions()))
		if err != nil {
			return err
		}
		a.IndexCell.Swap(idx)
	}

	p, err := a.newPipeline()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexing %s\n", a.ProjectRoot)
	if _, err := p.Run(cmd.Context(), a.pipelineOptions()); err != nil {
		lock.Release()
		return err
	}
	if err := pruneAndSaveIndex(cmd, a); err != nil {
		lock.Release()
		return err
	}
	// p.Watch acquires this same lock itself for the watching phase, so
	// the outer lock must be released before calling it.
	if err := lock.Release(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (ctrl-c to stop)\n", a.ProjectRoot)

	watchOpts := watcher.DefaultOptions()
	watchOpts.IgnorePatterns = a.Config.Paths.Exclude

	err = p.Watch(cmd.Context(), pipeline.WatchOptions{
		Pipeline: a.pipelineOptions(),
		Watcher:  watchOpts,
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}
	return pruneAndSaveIndex(cmd, a)
}
