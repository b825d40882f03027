package cmd

import "github.com/spf13/cobra"

// addTokensFlag wires spec §6's `--tokens` flag, shared by every
// analysis command (query/search, gather, context, review, impact,
// impact-diff, scout, where, related, trace, test-map, dead): greedy
// token-budget packing of results, with `--tokens 0` rejected at parse
// time rather than silently producing zero results.
func addTokensFlag(c *cobra.Command, dest *int) {
	c.Flags().IntVar(dest, "tokens", 0, "cap output to this many estimated tokens, greedily packing results (omit for unlimited; 0 is rejected)")
}

// validateTokens rejects an explicit zero, which the user can't
// distinguish from "flag not set" any other way since both default to
// the zero value.
func validateTokens(cmd *cobra.Command) error {
	if cmd.Flags().Changed("tokens") {
		tokens, _ := cmd.Flags().GetInt("tokens")
		if tokens == 0 {
			return newUsageError("--tokens 0 is not allowed; omit the flag for unlimited")
		}
	}
	return nil
}
