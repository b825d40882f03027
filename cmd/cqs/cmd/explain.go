package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/store"
)

func newExplainCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "explain <target>",
		Short: "Show a function or type's signature, doc comment, and source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, args[0])
		},
	}
	return c
}

// resolveNamedChunk finds the best chunk matching target by name,
// preferring a non-windowed chunk so line offsets stay accurate, the
// same rule internal/analysis's resolveTarget applies to impact/related.
func resolveNamedChunk(cmd *cobra.Command, a *app, target string) (store.Chunk, error) {
	ctx := cmd.Context()
	results, err := a.Engine.SearchByName(ctx, target, 20)
	if err != nil {
		return store.Chunk{}, err
	}
	if len(results) == 0 {
		return store.Chunk{}, cqserrors.New(cqserrors.KindValidation, "no chunk matches target name: "+target)
	}
	for _, r := range results {
		if r.Chunk.ParentID == "" {
			return r.Chunk, nil
		}
	}
	return results[0].Chunk, nil
}

func runExplain(cmd *cobra.Command, target string) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.requireIndex(cmd.Context()); err != nil {
		return err
	}

	chunk, err := resolveNamedChunk(cmd, a, target)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(chunk)
	}
	out.Statusf("", "%s  (%s)  %s:%d-%d", chunk.Name, chunk.ChunkKind, chunk.Origin, chunk.LineStart, chunk.LineEnd)
	if chunk.Signature != "" {
		out.Statusf("", "%s", chunk.Signature)
	}
	if chunk.Doc != "" {
		out.Statusf("", "%s", chunk.Doc)
	}
	out.Statusf("", "\n%s", chunk.Content)
	return nil
}
