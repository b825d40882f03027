package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/pipeline"
	"github.com/cqs-dev/cqs/internal/preflight"
)

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

func newDoctorCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose a project's index, lock, and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
	return c
}

func runDoctor(cmd *cobra.Command) error {
	a, cleanup, err := openAppReadOnly(flagProjectDir)
	if err != nil {
		return err
	}
	defer cleanup()

	var checks []doctorCheck

	origins, err := a.Store.ListOrigins(cmd.Context())
	if err != nil {
		checks = append(checks, doctorCheck{"index", false, err.Error()})
	} else {
		checks = append(checks, doctorCheck{"index", len(origins) > 0, "indexed files: " + strconv.Itoa(len(origins))})
	}

	if idx := a.IndexCell.Get(); idx != nil {
		vs := idx.Stats()
		checks = append(checks, doctorCheck{"vector_index", true,
			"valid=" + strconv.Itoa(vs.ValidIDs) + " orphans=" + strconv.Itoa(vs.Orphans)})
	} else {
		checks = append(checks, doctorCheck{"vector_index", false, "no HNSW index loaded; run 'cqs index'"})
	}

	lock := pipeline.NewIndexLock(a.DataDir)
	if _, err := os.Stat(lock.Path()); err == nil {
		checks = append(checks, doctorCheck{"lock", false, "lock file present: " + lock.Path()})
	} else {
		checks = append(checks, doctorCheck{"lock", true, "no lock held"})
	}

	checks = append(checks, doctorCheck{"CQS_API_KEY", os.Getenv("CQS_API_KEY") != "", "set if present"})
	checks = append(checks, doctorCheck{"CQS_PDF_SCRIPT", os.Getenv("CQS_PDF_SCRIPT") != "", "required only for 'cqs convert'"})

	for _, r := range preflight.New().RunAll(cmd.Context(), a.ProjectRoot) {
		checks = append(checks, doctorCheck{r.Name, r.Status != preflight.StatusFail, r.Message})
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(checks)
	}
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "warn"
		}
		out.Statusf("", "[%s] %-16s %s", status, c.Name, c.Detail)
	}
	return nil
}
