package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
)

func newStatsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "stats",
		Short: "Show index size and vector index occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd)
		},
	}
	return c
}

type statsReport struct {
	ProjectRoot string `json:"project_root"`
	Files       int    `json:"files"`
	Chunks      int    `json:"chunks"`
	Notes       int    `json:"notes"`
	Calls       int    `json:"calls"`
	VectorNodes int    `json:"vector_nodes"`
	VectorValid int    `json:"vector_valid"`
	Orphans     int    `json:"vector_orphans"`
}

func runStats(cmd *cobra.Command) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	storeStats, err := a.Store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	report := statsReport{
		ProjectRoot: a.ProjectRoot,
		Files:       storeStats.Files,
		Chunks:      storeStats.Chunks,
		Notes:       storeStats.Notes,
		Calls:       storeStats.Calls,
	}
	if idx := a.IndexCell.Get(); idx != nil {
		vs := idx.Stats()
		report.VectorNodes = vs.GraphNodes
		report.VectorValid = vs.ValidIDs
		report.Orphans = vs.Orphans
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(report)
	}
	out.Statusf("", "project     %s", report.ProjectRoot)
	out.Statusf("", "files       %d", report.Files)
	out.Statusf("", "chunks      %d", report.Chunks)
	out.Statusf("", "notes       %d", report.Notes)
	out.Statusf("", "calls       %d", report.Calls)
	out.Statusf("", "vector      %d valid / %d nodes (%d orphaned)", report.VectorValid, report.VectorNodes, report.Orphans)
	return nil
}
