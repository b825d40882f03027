package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newTestMapCmd() *cobra.Command {
	var (
		maxTestDepth int
		tokens       int
	)
	c := &cobra.Command{
		Use:   "test-map <target>",
		Short: "List tests reachable from a target via the call graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runTestMap(cmd, args[0], maxTestDepth, tokens)
		},
	}
	c.Flags().IntVar(&maxTestDepth, "max-test-depth", 0, "hops to search for reachable tests (0 = config default)")
	addTokensFlag(c, &tokens)
	return c
}

// runTestMap is Impact's test-discovery slice surfaced on its own,
// since spec.md's CLI surface lists test-map as a distinct verb without
// impact's caller/transitive-caller noise.
func runTestMap(cmd *cobra.Command, target string, maxTestDepth, tokens int) error {
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

	result, err := a.Analyzer.Impact(ctx, target, 0, maxTestDepth)
	if err != nil {
		return err
	}
	if tokens > 0 {
		result.Tests = output.PackByTokens(result.Tests, tokens, func(t analysis.TestRef) int {
			return output.TokenEstimate(t.Name) + output.TokenEstimate(t.Origin)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(result.Tests)
	}
	if len(result.Tests) == 0 {
		out.Status("", "no reachable tests found")
		return nil
	}
	for _, t := range result.Tests {
		out.Statusf("", "[%d] %s  %s:%d  via=%s", t.Depth, t.Name, t.Origin, t.Line, t.Via)
	}
	return nil
}
