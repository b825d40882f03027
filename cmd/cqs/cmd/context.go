package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newContextCmd() *cobra.Command {
	var (
		limit  int
		tokens int
	)
	c := &cobra.Command{
		Use:   "context <query>",
		Short: "Assemble a token-budgeted context window of relevant source for a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runContext(cmd, strings.Join(args, " "), limit, tokens)
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 30, "maximum number of chunks considered before packing")
	addTokensFlag(c, &tokens)
	return c
}

func runContext(cmd *cobra.Command, query string, limit, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	queryEmb, err := a.Embedder.Embed(ctx, query)
	if err != nil {
		return err
	}

	hits, err := a.Analyzer.Gather(ctx, queryEmb, analysis.GatherOptions{
		SeedLimit:        limit,
		ExpandDepth:      1,
		DecayFactor:      0.7,
		MaxExpandedNodes: limit * 4,
		Limit:            limit,
	})
	if err != nil {
		return err
	}

	if tokens > 0 {
		hits = output.PackByTokens(hits, tokens, func(h analysis.GatherHit) int {
			return output.TokenEstimate(h.Chunk.Content)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(hits)
	}
	for _, h := range hits {
		out.Statusf("", "%s  %s:%d-%d", h.Chunk.Name, h.Chunk.Origin, h.Chunk.LineStart, h.Chunk.LineEnd)
		out.Code(h.Chunk.Content)
	}
	return nil
}
