package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newDeadCmd() *cobra.Command {
	var tokens int
	c := &cobra.Command{
		Use:   "dead",
		Short: "Find functions with no discoverable caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runDead(cmd, tokens)
		},
	}
	addTokensFlag(c, &tokens)
	return c
}

func runDead(cmd *cobra.Command, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	hits, err := a.Analyzer.FindDeadCode(ctx)
	if err != nil {
		return err
	}
	if tokens > 0 {
		hits = output.PackByTokens(hits, tokens, func(h analysis.DeadCodeHit) int {
			return output.TokenEstimate(h.Chunk.Content)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(hits)
	}
	if len(hits) == 0 {
		out.Status("", "no dead code found")
		return nil
	}
	for _, h := range hits {
		out.Statusf("", "%s  %s:%d-%d", h.Chunk.Name, h.Chunk.Origin, h.Chunk.LineStart, h.Chunk.LineEnd)
	}
	return nil
}
