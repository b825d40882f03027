// Package cmd provides the CLI commands for cqs.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/pkg/version"
)

// global flags shared by every subcommand.
var (
	flagProjectDir string
	flagJSON       bool
)

// NewRootCmd builds the cqs root command and every subcommand.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cqs",
		Short:         "Local-first code intelligence engine",
		Long:          "cqs indexes a source tree into a queryable, semantically-searchable corpus and exposes structural analysis over it: impact, call-graph navigation, related-function discovery, diff review, gather, where-to-add, dead-code, and staleness.",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("cqs version {{.Version}}\n")

	root.PersistentFlags().StringVarP(&flagProjectDir, "dir", "C", ".", "project directory (defaults to the current directory)")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")

	root.AddCommand(
		newInitCmd(),
		newIndexCmd(),
		newWatchCmd(),
		newQueryCmd(),
		newSearchAliasCmd(),
		newGatherCmd(),
		newImpactCmd(),
		newImpactDiffCmd(),
		newScoutCmd(),
		newWhereCmd(),
		newRelatedCmd(),
		newTraceCmd(),
		newTestMapCmd(),
		newContextCmd(),
		newExplainCmd(),
		newReadCmd(),
		newStaleCmd(),
		newDeadCmd(),
		newGCCmd(),
		newNotesCmd(),
		newRefCmd(),
		newProjectCmd(),
		newStatsCmd(),
		newDoctorCmd(),
		newConvertCmd(),
		newReviewCmd(),
	)

	return root
}

// Execute runs the root command and returns the process exit code
// spec §6 defines: 0 success, 1 user/runtime error, 2 usage error, 130
// interrupted.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) || cqserrors.KindOf(err) == cqserrors.KindCancelled {
		return 130
	}
	if isUsageError(err) {
		fmt.Fprintln(os.Stderr, "usage error:", err)
		return 2
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}
