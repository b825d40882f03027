package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/output"
	"github.com/cqs-dev/cqs/internal/projectreg"
)

func newProjectCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "project",
		Short: "Manage the per-user registry of known CQS projects",
	}
	c.AddCommand(newProjectRegisterCmd(), newProjectRemoveCmd(), newProjectListCmd())
	return c
}

func newProjectRegisterCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "register <name> [path]",
		Short: "Register a project (defaults path to --dir)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagProjectDir
			if len(args) == 2 {
				path = args[1]
			}
			reg, err := projectreg.Open()
			if err != nil {
				return err
			}
			p, err := reg.Register(args[0], path)
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			if flagJSON {
				return out.JSON(p)
			}
			out.Successf("registered %s (%s) -> %s", p.Name, p.ID, p.Path)
			return nil
		},
	}
	return c
}

func newProjectRemoveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a project from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := projectreg.Open()
			if err != nil {
				return err
			}
			if err := reg.Remove(args[0]); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Success("project removed")
			return nil
		},
	}
	return c
}

func newProjectListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List registered projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := projectreg.Open()
			if err != nil {
				return err
			}
			projects := reg.List()
			out := output.New(cmd.OutOrStdout())
			if flagJSON {
				return out.JSON(projects)
			}
			if len(projects) == 0 {
				out.Status("", "no registered projects")
				return nil
			}
			for _, p := range projects {
				out.Statusf("", "%s  %s  %s", p.ID, p.Name, p.Path)
			}
			return nil
		},
	}
	return c
}
