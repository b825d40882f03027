package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/config"
	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/pipeline"
)

func newInitCmd() *cobra.Command {
	var skipIndex bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Initialize a project's .cqs directory and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, skipIndex)
		},
	}
	c.Flags().BoolVar(&skipIndex, "skip-index", false, "create .cqs.toml and the .cqs directory without running an initial index")
	return c
}

func runInit(cmd *cobra.Command, skipIndex bool) error {
	root, err := filepath.Abs(flagProjectDir)
	if err != nil {
		return err
	}
	dataDir := filepath.Join(root, dataDirName)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())

	projectCfgPath := filepath.Join(root, ".cqs.toml")
	if _, err := os.Stat(projectCfgPath); os.IsNotExist(err) {
		if err := config.Write(projectCfgPath, config.NewConfig()); err != nil {
			return err
		}
		out.Successf("wrote %s", projectCfgPath)
	} else {
		out.Status("", fmt.Sprintf("%s already exists, leaving it in place", projectCfgPath))
	}

	if skipIndex {
		return nil
	}

	a, cleanup, err := openApp(root)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := a.newPipeline()
	if err != nil {
		return err
	}
	result, err := p.Run(cmd.Context(), a.pipelineOptions())
	if err != nil {
		return err
	}
	out.Successf("indexed %d files, %d chunks in %s", result.FilesParsed, result.ChunksWritten, result.Duration)
	return nil
}
