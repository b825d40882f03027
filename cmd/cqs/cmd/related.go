package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newRelatedCmd() *cobra.Command {
	var tokens int
	c := &cobra.Command{
		Use:   "related <target>",
		Short: "Functions sharing a caller, callee, or signature type with a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runRelated(cmd, args[0], tokens)
		},
	}
	addTokensFlag(c, &tokens)
	return c
}

func runRelated(cmd *cobra.Command, target string, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	hits, err := a.Analyzer.FindRelated(ctx, target)
	if err != nil {
		return err
	}
	if tokens > 0 {
		hits = output.PackByTokens(hits, tokens, func(h analysis.RelatedHit) int {
			return output.TokenEstimate(h.Chunk.Content)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(hits)
	}
	if len(hits) == 0 {
		out.Status("", "no related functions found")
		return nil
	}
	for _, h := range hits {
		out.Statusf("", "%-30s shared_callers=%d shared_callees=%d shared_type=%v",
			h.Chunk.Name, h.SharedCallers, h.SharedCallees, h.SharedType)
	}
	return nil
}
