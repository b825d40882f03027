package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newWhereCmd() *cobra.Command {
	var (
		limit  int
		tokens int
	)
	c := &cobra.Command{
		Use:   "where <description>",
		Short: "Suggest where new code matching a description should live",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runWhere(cmd, strings.Join(args, " "), limit, tokens)
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 5, "number of candidate files to report")
	addTokensFlag(c, &tokens)
	return c
}

func runWhere(cmd *cobra.Command, description string, limit, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	queryEmb, err := a.Embedder.Embed(ctx, description)
	if err != nil {
		return err
	}

	candidates, err := a.Analyzer.SuggestPlacement(ctx, queryEmb, limit)
	if err != nil {
		return err
	}
	if tokens > 0 {
		candidates = output.PackByTokens(candidates, tokens, func(c analysis.FilePatterns) int {
			return output.TokenEstimate(c.File) + len(c.ImportPrefixes) + len(c.ErrorMarkers)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(candidates)
	}
	if len(candidates) == 0 {
		out.Status("", "no candidates found")
		return nil
	}
	for i, c := range candidates {
		out.Statusf("", "%2d. %-6.3f %s  naming=%s exported=%v tests=%v",
			i+1, c.Score, c.File, c.NamingStyle, c.MajorityExported, c.HasInlineTests)
	}
	return nil
}
