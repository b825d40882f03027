package cmd

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/output"
)

func newReadCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "read <path>[:<start>-<end>]",
		Short: "Read raw source, optionally a line range, directly from disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, args[0])
		},
	}
	return c
}

func runRead(cmd *cobra.Command, spec string) error {
	path, start, end, err := parseReadSpec(spec)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(flagProjectDir)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "read source file", err)
	}
	lines := strings.Split(string(data), "\n")

	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return cqserrors.New(cqserrors.KindValidation, "start line after end line")
	}

	snippet := strings.Join(lines[start-1:end], "\n")

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(map[string]any{"path": path, "start": start, "end": end, "content": snippet})
	}
	out.Statusf("", "%s:%d-%d", path, start, end)
	out.Statusf("", "%s", snippet)
	return nil
}

// parseReadSpec splits "path:start-end" into its parts; start/end are
// zero when omitted, meaning "whole file".
func parseReadSpec(spec string) (path string, start, end int, err error) {
	path = spec
	idx := strings.LastIndex(spec, ":")
	if idx == -1 {
		return path, 0, 0, nil
	}
	rangePart := spec[idx+1:]
	dash := strings.Index(rangePart, "-")
	if dash == -1 {
		return path, 0, 0, nil
	}
	path = spec[:idx]
	start, err = strconv.Atoi(rangePart[:dash])
	if err != nil {
		return "", 0, 0, cqserrors.New(cqserrors.KindValidation, "invalid line range: "+rangePart)
	}
	end, err = strconv.Atoi(rangePart[dash+1:])
	if err != nil {
		return "", 0, 0, cqserrors.New(cqserrors.KindValidation, "invalid line range: "+rangePart)
	}
	return path, start, end, nil
}
