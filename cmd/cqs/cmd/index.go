package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/pipeline"
	"github.com/cqs-dev/cqs/internal/scanner"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

func newIndexCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "index",
		Short: "Run a full index of the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd)
		},
	}
	return c
}

func runIndex(cmd *cobra.Command) error {
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
	result, err := p.Run(cmd.Context(), a.pipelineOptions())
	if err != nil {
		return err
	}

	if err := pruneAndSaveIndex(cmd, a); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(result)
	}
	out.Successf("indexed %d files (%d parse errors), %d chunks written in %s",
		result.FilesParsed, result.ParseErrors, result.ChunksWritten, result.Duration)
	return nil
}

// pruneAndSaveIndex removes chunks/notes for files no longer on disk,
// then persists the HNSW index to its four files (spec §6). Run after
// every full index so a stale tree never lingers in search results.
func pruneAndSaveIndex(cmd *cobra.Command, a *app) error {
	sc, err := scanner.New()
	if err != nil {
		return err
	}
	results, err := sc.Scan(cmd.Context(), &scanner.ScanOptions{
		RootDir:          a.ProjectRoot,
		IncludePatterns:  a.Config.Paths.Include,
		ExcludePatterns:  a.Config.Paths.Exclude,
		RespectGitignore: true,
	})
	if err != nil {
		return err
	}
	existing := make(map[string]struct{})
	for r := range results {
		if r.Error != nil || r.File == nil {
			continue
		}
		existing[r.File.Path] = struct{}{}
	}
	if err := a.Store.Prune(cmd.Context(), existing); err != nil {
		return err
	}

	if idx := a.IndexCell.Get(); idx != nil {
		if err := idx.Save(a.hnswPrefix()); err != nil {
			return err
		}
	}
	return nil
}
