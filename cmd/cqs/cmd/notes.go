package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/notes"
	"github.com/cqs-dev/cqs/internal/output"
)

func newNotesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "notes",
		Short: "Manage the project's notes sidecar",
	}
	c.AddCommand(
		newNotesAddCmd(),
		newNotesListCmd(),
		newNotesRemoveCmd(),
		newNotesUpdateCmd(),
	)
	return c
}

func newNotesAddCmd() *cobra.Command {
	var (
		sentiment  float64
		mentions   []string
		sourceFile string
	)
	c := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(flagProjectDir)
			if err != nil {
				return err
			}
			defer cleanup()

			entry, err := notes.Add(a.notesPath(), strings.Join(args, " "), sentiment, mentions, sourceFile)
			if err != nil {
				return err
			}
			return reconcileAndPrint(cmd, a, entry)
		},
	}
	c.Flags().Float64Var(&sentiment, "sentiment", 0, "sentiment score, -1 to 1")
	c.Flags().StringSliceVar(&mentions, "mentions", nil, "function/type names this note mentions")
	c.Flags().StringVar(&sourceFile, "source", "", "file this note is attached to")
	return c
}

func newNotesListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openAppReadOnly(flagProjectDir)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := notes.List(a.notesPath())
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if flagJSON {
				return out.JSON(entries)
			}
			if len(entries) == 0 {
				out.Status("", "no notes")
				return nil
			}
			for _, e := range entries {
				out.Statusf("", "%s  %s", e.ID, e.Text)
			}
			return nil
		},
	}
	return c
}

func newNotesRemoveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a note by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(flagProjectDir)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := notes.Remove(a.notesPath(), args[0]); err != nil {
				return err
			}
			return reconcileOnly(cmd, a)
		},
	}
	return c
}

func newNotesUpdateCmd() *cobra.Command {
	var (
		text       string
		sentiment  float64
		hasSent    bool
		mentions   []string
		sourceFile string
	)
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a note's text, sentiment, mentions, or source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(flagProjectDir)
			if err != nil {
				return err
			}
			defer cleanup()

			hasSent = cmd.Flags().Changed("sentiment")
			entry, err := notes.Update(a.notesPath(), args[0], func(e *notes.Entry) {
				if text != "" {
					e.Text = text
				}
				if hasSent {
					e.Sentiment = sentiment
				}
				if mentions != nil {
					e.Mentions = mentions
				}
				if sourceFile != "" {
					e.SourceFile = sourceFile
				}
			})
			if err != nil {
				return err
			}
			return reconcileAndPrint(cmd, a, entry)
		},
	}
	c.Flags().StringVar(&text, "text", "", "replacement note text")
	c.Flags().Float64Var(&sentiment, "sentiment", 0, "replacement sentiment score")
	c.Flags().StringSliceVar(&mentions, "mentions", nil, "replacement mentions list")
	c.Flags().StringVar(&sourceFile, "source", "", "replacement source file")
	return c
}

// reconcileAndPrint syncs the sidecar into the store's notes table so
// the new/changed entry is immediately searchable, then prints it.
func reconcileAndPrint(cmd *cobra.Command, a *app, entry notes.Entry) error {
	if _, err := notes.Reconcile(cmd.Context(), a.Store, a.notesPath()); err != nil {
		return err
	}
	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(entry)
	}
	out.Successf("%s  %s", entry.ID, entry.Text)
	return nil
}

func reconcileOnly(cmd *cobra.Command, a *app) error {
	result, err := notes.Reconcile(cmd.Context(), a.Store, a.notesPath())
	if err != nil {
		return err
	}
	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(result)
	}
	out.Success("note removed")
	return nil
}
