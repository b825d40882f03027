package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/search"
)

type queryOptions struct {
	limit     int
	language  string
	pathGlob  string
	bm25Only  bool
	noteBoost float64
	tokens    int
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions
	c := &cobra.Command{
		Use:   "query <text>",
		Short: "Hybrid (BM25 + semantic) search over the indexed codebase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runQuery(cmd, strings.Join(args, " "), opts)
		},
	}
	addQueryFlags(c, &opts)
	return c
}

// newSearchAliasCmd gives `search` its own top-level entry (spec §6:
// "search (alias)") so `cqs search ...` and `cqs query ...` both work
// without cobra's alias-in-help ambiguity for the primary verb.
func newSearchAliasCmd() *cobra.Command {
	var opts queryOptions
	c := &cobra.Command{
		Use:   "search <text>",
		Short: "Alias for query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runQuery(cmd, strings.Join(args, " "), opts)
		},
	}
	addQueryFlags(c, &opts)
	return c
}

func addQueryFlags(c *cobra.Command, opts *queryOptions) {
	c.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	c.Flags().StringVarP(&opts.language, "language", "l", "", "filter by language")
	c.Flags().StringVarP(&opts.pathGlob, "path", "p", "", "filter by path glob")
	c.Flags().BoolVar(&opts.bm25Only, "bm25-only", false, "keyword search only, no semantic ranking")
	c.Flags().Float64Var(&opts.noteBoost, "note-boost", 0, "score boost for chunks mentioned in a relevant note")
	addTokensFlag(c, &opts.tokens)
}

func runQuery(cmd *cobra.Command, query string, opts queryOptions) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	filter := search.Filter{
		Languages: languageList(opts.language),
		PathGlob:  opts.pathGlob,
		Limit:     opts.limit,
		QueryText: query,
		EnableRRF: !opts.bm25Only,
		Weights:   search.DefaultWeights(),
		NoteBoost: float32(opts.noteBoost),
	}

	var queryEmb []float32
	if !opts.bm25Only {
		queryEmb, err = a.Embedder.Embed(ctx, query)
		if err != nil {
			return err
		}
	}

	results, err := a.Engine.SearchFilteredWithIndex(ctx, queryEmb, filter)
	if err != nil {
		return err
	}
	if opts.tokens > 0 {
		results = output.PackByTokens(results, opts.tokens, func(r search.Result) int {
			return output.TokenEstimate(r.Chunk.Content)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(results)
	}
	printResults(out, results)
	return nil
}

func languageList(l string) []string {
	if l == "" {
		return nil
	}
	return []string{l}
}

func printResults(out *output.Writer, results []search.Result) {
	if len(results) == 0 {
		out.Status("", "no results")
		return
	}
	for i, r := range results {
		loc := fmt.Sprintf("%s:%d-%d", r.Chunk.Origin, r.Chunk.LineStart, r.Chunk.LineEnd)
		out.Statusf("", "%2d. %-6.3f %s  %s", i+1, r.Score, r.Chunk.Name, loc)
	}
}
