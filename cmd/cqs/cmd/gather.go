package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newGatherCmd() *cobra.Command {
	var (
		seedLimit int
		expand    int
		decay     float64
		maxNodes  int
		limit     int
		tokens    int
	)
	c := &cobra.Command{
		Use:   "gather <query>",
		Short: "Semantic seeds expanded across the call graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runGather(cmd, strings.Join(args, " "), analysis.GatherOptions{
				SeedLimit:        seedLimit,
				SeedThreshold:    0,
				ExpandDepth:      expand,
				DecayFactor:      decay,
				MaxExpandedNodes: maxNodes,
				Limit:            limit,
			}, tokens)
		},
	}
	c.Flags().IntVar(&seedLimit, "seed-limit", 10, "number of semantic seeds to expand from")
	c.Flags().IntVar(&expand, "expand-depth", 2, "call-graph hops to expand each seed")
	c.Flags().Float64Var(&decay, "decay", 0.7, "score multiplier applied per expansion hop")
	c.Flags().IntVar(&maxNodes, "max-nodes", 200, "cap on nodes visited during expansion")
	c.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	addTokensFlag(c, &tokens)
	return c
}

func runGather(cmd *cobra.Command, query string, opts analysis.GatherOptions, tokens int) error {
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

	hits, err := a.Analyzer.Gather(ctx, queryEmb, opts)
	if err != nil {
		return err
	}
	hits = output.PackByTokens(hits, tokens, func(h analysis.GatherHit) int {
		return output.TokenEstimate(h.Chunk.Content)
	})

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(hits)
	}
	if len(hits) == 0 {
		out.Status("", "no results")
		return nil
	}
	for i, h := range hits {
		out.Statusf("", "%2d. %-6.3f %s  %s:%d-%d", i+1, h.Score, h.Chunk.Name,
			h.Chunk.Origin, h.Chunk.LineStart, h.Chunk.LineEnd)
	}
	return nil
}
