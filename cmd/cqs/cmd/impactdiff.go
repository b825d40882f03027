package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/diffparse"
	"github.com/cqs-dev/cqs/internal/output"
)

func newImpactDiffCmd() *cobra.Command {
	var (
		diffFile     string
		maxTestDepth int
		tokens       int
	)
	c := &cobra.Command{
		Use:   "impact-diff",
		Short: "Map a unified diff's hunks to the functions they touch, and their callers/tests",
		Long:  "Reads a unified diff from --file, or stdin if --file is omitted (e.g. `git diff | cqs impact-diff`).",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runImpactDiff(cmd, diffFile, maxTestDepth, tokens)
		},
	}
	c.Flags().StringVarP(&diffFile, "file", "f", "", "path to a unified diff file (defaults to stdin)")
	c.Flags().IntVar(&maxTestDepth, "max-test-depth", 0, "hops to search for reachable tests (0 = config default)")
	addTokensFlag(c, &tokens)
	return c
}

func runImpactDiff(cmd *cobra.Command, diffFile string, maxTestDepth, tokens int) error {
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

	r := cmd.InOrStdin()
	if diffFile != "" {
		f, err := os.Open(diffFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	files, err := diffparse.Parse(r)
	if err != nil {
		return err
	}

	result, err := a.Analyzer.AnalyzeDiffImpact(ctx, files, maxTestDepth)
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
	if len(result.ChangedFunctions) == 0 {
		out.Status("", "no function-level changes found in diff")
		return nil
	}
	out.Statusf("", "changed: %v", result.ChangedFunctions)
	for _, c := range result.Callers {
		out.Statusf("", "  caller  %s  %s:%d  %s", c.Name, c.File, c.Line, c.Snippet)
	}
	for _, t := range result.Tests {
		out.Statusf("", "  test[%d]  %s  %s:%d", t.Depth, t.Name, t.Origin, t.Line)
	}
	return nil
}
