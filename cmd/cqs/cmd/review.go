package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/diffparse"
	"github.com/cqs-dev/cqs/internal/output"
)

func newReviewCmd() *cobra.Command {
	var (
		diffFile     string
		maxTestDepth int
		tokens       int
	)
	c := &cobra.Command{
		Use:   "review",
		Short: "Summarize a diff's impact plus related-function signals for a human reviewer",
		Long:  "Reads a unified diff from --file, or stdin if --file is omitted (e.g. `git diff | cqs review`).",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokens(cmd); err != nil {
				return err
			}
			return runReview(cmd, diffFile, maxTestDepth, tokens)
		},
	}
	c.Flags().StringVarP(&diffFile, "file", "f", "", "path to a unified diff file (defaults to stdin)")
	c.Flags().IntVar(&maxTestDepth, "max-test-depth", 0, "hops to search for reachable tests (0 = config default)")
	addTokensFlag(c, &tokens)
	return c
}

type reviewReport struct {
	ChangedFunctions []string                `json:"changed_functions"`
	Callers          []reviewCaller          `json:"callers"`
	Tests            []reviewTest            `json:"tests"`
	RelatedByFunc    map[string][]reviewItem `json:"related_by_function"`
}

type reviewCaller struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

type reviewTest struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
	Line   int    `json:"line"`
}

type reviewItem struct {
	Name          string `json:"name"`
	SharedCallers int    `json:"shared_callers"`
	SharedCallees int    `json:"shared_callees"`
}

func runReview(cmd *cobra.Command, diffFile string, maxTestDepth, tokens int) error {
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

	diffImpact, err := a.Analyzer.AnalyzeDiffImpact(ctx, files, maxTestDepth)
	if err != nil {
		return err
	}

	report := reviewReport{
		ChangedFunctions: diffImpact.ChangedFunctions,
		RelatedByFunc:    make(map[string][]reviewItem),
	}
	for _, c := range diffImpact.Callers {
		report.Callers = append(report.Callers, reviewCaller{c.Name, c.File, c.Line, c.Snippet})
	}
	for _, t := range diffImpact.Tests {
		report.Tests = append(report.Tests, reviewTest{t.Name, t.Origin, t.Line})
	}

	budget := tokens
	for _, fn := range diffImpact.ChangedFunctions {
		related, err := a.Analyzer.FindRelated(ctx, fn)
		if err != nil {
			continue
		}
		var items []reviewItem
		for _, rel := range related {
			cost := output.TokenEstimate(rel.Chunk.Name)
			if budget > 0 {
				if cost > budget {
					break
				}
				budget -= cost
			}
			items = append(items, reviewItem{rel.Chunk.Name, rel.SharedCallers, rel.SharedCallees})
		}
		if len(items) > 0 {
			report.RelatedByFunc[fn] = items
		}
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(report)
	}
	if len(report.ChangedFunctions) == 0 {
		out.Status("", "no function-level changes found in diff")
		return nil
	}
	out.Statusf("", "changed: %v", report.ChangedFunctions)
	for _, c := range report.Callers {
		out.Statusf("", "  caller  %s  %s:%d  %s", c.Name, c.File, c.Line, c.Snippet)
	}
	for _, t := range report.Tests {
		out.Statusf("", "  test  %s  %s:%d", t.Name, t.Origin, t.Line)
	}
	for fn, items := range report.RelatedByFunc {
		out.Statusf("", "  related to %s:", fn)
		for _, item := range items {
			out.Statusf("", "    %s (shared_callers=%d shared_callees=%d)", item.Name, item.SharedCallers, item.SharedCallees)
		}
	}
	return nil
}
