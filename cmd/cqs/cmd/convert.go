package cmd

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// pdfScriptEnvVar names the external collaborator spec §6's Environment
// section authorizes for PDF/CHM conversion: CQS never reimplements a
// document parser, it shells out to a script the user supplies.
const pdfScriptEnvVar = "CQS_PDF_SCRIPT"

func newConvertCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a PDF/CHM document to text via the CQS_PDF_SCRIPT external script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], args[1])
		},
	}
	return c
}

func runConvert(cmd *cobra.Command, input, output string) error {
	script := os.Getenv(pdfScriptEnvVar)
	if script == "" {
		return cqserrors.New(cqserrors.KindValidation, pdfScriptEnvVar+" is not set")
	}
	if !strings.HasSuffix(script, ".py") {
		return cqserrors.New(cqserrors.KindValidation, pdfScriptEnvVar+" must point to a .py script")
	}
	slog.Warn("shelling out to external PDF/CHM conversion script", "script", script)

	//nolint:gosec // script path is operator-supplied via CQS_PDF_SCRIPT, not untrusted input
	execCmd := exec.CommandContext(cmd.Context(), "python3", script, input, output)
	execCmd.Stdout = cmd.OutOrStdout()
	execCmd.Stderr = cmd.ErrOrStderr()
	if err := execCmd.Run(); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "run conversion script", err)
	}
	return nil
}
