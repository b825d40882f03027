package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
)

func newStaleCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "stale",
		Short: "List indexed files whose on-disk mtime has moved past their indexed mtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStale(cmd)
		},
	}
	return c
}

func runStale(cmd *cobra.Command) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	origins, err := a.Store.ListOrigins(ctx)
	if err != nil {
		return err
	}
	staleMap, err := a.Store.CheckOriginsStale(ctx, origins, a.ProjectRoot)
	if err != nil {
		return err
	}

	var stale []string
	for origin, isStale := range staleMap {
		if isStale {
			stale = append(stale, origin)
		}
	}
	sort.Strings(stale)

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(stale)
	}
	if len(stale) == 0 {
		out.Status("", "index is up to date")
		return nil
	}
	for _, origin := range stale {
		out.Statusf("", "%s", origin)
	}
	return nil
}
