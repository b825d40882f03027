package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
)

func newScoutCmd() *cobra.Command {
	var (
		limit     int
		threshold float64
		tokens    int
	)
	c := &cobra.Command{
		Use:   "scout <task>",
		Short: "Classify the files relevant to a task: modify target, dependency, or test to update",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runScout(cmd, strings.Join(args, " "), limit, float32(threshold), tokens)
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of hits before grouping by file")
	c.Flags().Float64Var(&threshold, "threshold", 0.6, "score above which a hit is classified modify_target")
	addTokensFlag(c, &tokens)
	return c
}

func runScout(cmd *cobra.Command, task string, limit int, threshold float32, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	taskEmb, err := a.Embedder.Embed(ctx, task)
	if err != nil {
		return err
	}

	groups, err := a.Analyzer.Scout(ctx, taskEmb, limit, threshold, a.ProjectRoot)
	if err != nil {
		return err
	}
	if tokens > 0 {
		budget := tokens
		nonEmpty := groups[:0]
		for gi := range groups {
			var kept int
			for _, h := range groups[gi].Hits {
				cost := output.TokenEstimate(h.Chunk.Content)
				if budget <= 0 || cost > budget {
					break
				}
				budget -= cost
				groups[gi].Hits[kept] = h
				kept++
			}
			groups[gi].Hits = groups[gi].Hits[:kept]
			if kept > 0 {
				nonEmpty = append(nonEmpty, groups[gi])
			}
		}
		groups = nonEmpty
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(groups)
	}
	if len(groups) == 0 {
		out.Status("", "no results")
		return nil
	}
	for _, g := range groups {
		stale := ""
		if g.Stale {
			stale = " (stale)"
		}
		out.Statusf("", "%s%s", g.File, stale)
		for _, h := range g.Hits {
			out.Statusf("", "  %-14s %-6.3f %s", h.Classification, h.Score, h.Chunk.Name)
		}
	}
	return nil
}
