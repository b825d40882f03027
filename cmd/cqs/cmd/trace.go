package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/output"
)

func newTraceCmd() *cobra.Command {
	var (
		depth  int
		tokens int
	)
	c := &cobra.Command{
		Use:   "trace <target>",
		Short: "Print the call-graph distance from every reachable caller to a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runTrace(cmd, args[0], depth, tokens)
		},
	}
	c.Flags().IntVarP(&depth, "depth", "d", 5, "maximum hops to trace")
	addTokensFlag(c, &tokens)
	return c
}

type traceHop struct {
	Name  string
	Depth int
}

// runTrace reuses the reverse-BFS that backs impact/related (spec §4.6's
// shared call-graph primitives), reporting every hop distance rather
// than impact's curated caller/test/transitive split.
func runTrace(cmd *cobra.Command, target string, depth, tokens int) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := a.requireIndex(ctx); err != nil {
		return err
	}

	chunk, err := resolveNamedChunk(cmd, a, target)
	if err != nil {
		return err
	}

	graph, err := a.Store.GetCallGraph(ctx)
	if err != nil {
		return err
	}
	depths := analysis.ReverseBFS(graph.Reverse, chunk.Name, depth)

	hops := make([]traceHop, 0, len(depths))
	for name, d := range depths {
		hops = append(hops, traceHop{Name: name, Depth: d})
	}
	sort.Slice(hops, func(i, j int) bool {
		if hops[i].Depth != hops[j].Depth {
			return hops[i].Depth < hops[j].Depth
		}
		return hops[i].Name < hops[j].Name
	})
	if tokens > 0 {
		hops = output.PackByTokens(hops, tokens, func(h traceHop) int {
			return output.TokenEstimate(h.Name)
		})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(hops)
	}
	if len(hops) == 0 {
		out.Status("", "no callers found")
		return nil
	}
	for _, h := range hops {
		out.Statusf("", "[%d] %s", h.Depth, h.Name)
	}
	return nil
}
