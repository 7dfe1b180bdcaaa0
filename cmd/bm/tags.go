package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/cascade"
	"github.com/nikbrunner/bmsync/internal/model"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
	}
	cmd.AddCommand(
		newTagListCmd(a),
		newTagAddCmd(a),
		newTagRenameCmd(a),
		newTagRemoveCmd(a),
	)
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tags with their bookmark counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			tags := a.coord.Tags()
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tags.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tBOOKMARKS")
			for _, t := range tags {
				fmt.Fprintf(w, "#%s\t%d\n", t.Name, t.BookmarkCount)
			}
			return w.Flush()
		},
	}
}

func newTagAddCmd(a *app) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			t, err := a.coord.CreateTag(ctx, model.TagInput{Name: args[0], Color: optional(color)})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag #%s\n", t.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "color")
	return cmd
}

func newTagRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <tag> <name>",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			t, err := findTag(a.coord.Tags(), args[0])
			if err != nil {
				return err
			}
			updated, err := a.coord.UpdateTag(ctx, t.ID, model.TagPatch{Name: model.Set(args[1])})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed #%s to #%s\n", t.Name, updated.Name)
			return nil
		},
	}
}

func newTagRemoveCmd(a *app) *cobra.Command {
	var replace string

	cmd := &cobra.Command{
		Use:     "rm <tag>",
		Aliases: []string{"delete"},
		Short:   "Delete a tag",
		Long: `Delete a tag and strip it from every bookmark. With --replace-with the
bookmarks get the other tag first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			tags := a.coord.Tags()
			t, err := findTag(tags, args[0])
			if err != nil {
				return err
			}

			var opts cascade.TagOptions
			if replace != "" {
				r, err := findTag(tags, replace)
				if err != nil {
					return err
				}
				opts.Replacement = model.Ptr(r.ID)
			}

			report, err := a.coord.RemoveTag(ctx, t.ID, opts)
			if err != nil {
				return explainPartial(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%s", t.Name)
			if n := len(report.Reassigned); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d bookmarks retagged)", n)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&replace, "replace-with", "", "tag that replaces it on every bookmark")
	return cmd
}
