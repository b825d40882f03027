package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newImpactCmd() *cobra.Command {
	var (
		depth        int
		maxTestDepth int
		tokens       int
	)
	c := &cobra.Command{
		Use:   "impact <target>",
		Short: "Callers, transitive callers, and reachable tests for a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runImpact(cmd, args[0], depth, maxTestDepth, tokens)
		},
	}
	c.Flags().IntVarP(&depth, "depth", "d", 2, "transitive-caller hops to report")
	c.Flags().IntVar(&maxTestDepth, "max-test-depth", 0, "hops to search for reachable tests (0 = config default)")
	addTokensFlag(c, &tokens)
	return c
}

func runImpact(cmd *cobra.Command, target string, depth, maxTestDepth, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}
	if maxTestDepth <= 0 {
		maxTestDepth = a.Config.Search.MaxTestSearchDepth
	}

	result, err := a.Analyzer.Impact(ctx, target, depth, maxTestDepth)
	if err != nil {
		return err
	}
	if tokens > 0 {
		result.Callers = output.PackByTokens(result.Callers, tokens, func(c analysis.CallerContext) int {
			return output.TokenEstimate(c.Snippet)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(result)
	}
	out.Statusf("", "%s", result.Summary)
	for _, c := range result.Callers {
		out.Statusf("", "  caller  %s  %s:%d  %s", c.Name, c.File, c.Line, c.Snippet)
	}
	for _, t := range result.TransitiveCallers {
		out.Statusf("", "  transitive[%d]  %s", t.Depth, t.Name)
	}
	for _, t := range result.Tests {
		out.Statusf("", "  test[%d]  %s  %s:%d", t.Depth, t.Name, t.Origin, t.Line)
	}
	return nil
}
