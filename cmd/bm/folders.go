package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/cascade"
	"github.com/nikbrunner/bmsync/internal/model"
)

func newFolderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folder",
		Aliases: []string{"folders"},
		Short:   "Manage folders",
	}
	cmd.AddCommand(
		newFolderListCmd(a),
		newFolderAddCmd(a),
		newFolderRenameCmd(a),
		newFolderEditCmd(a),
		newFolderMoveCmd(a),
		newFolderRemoveCmd(a),
	)
	return cmd
}

func newFolderListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the folder tree",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			folders := a.coord.Folders()
			if len(folders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No folders.")
				return nil
			}
			printFolderTree(cmd.OutOrStdout(), &model.Store{Folders: folders}, nil, 0)
			return nil
		},
	}
}

func printFolderTree(out io.Writer, store *model.Store, parentID *string, depth int) {
	for _, f := range store.GetFoldersInFolder(parentID) {
		fmt.Fprintf(out, "%s%s (%d)  %s\n", strings.Repeat("  ", depth), f.Name, f.BookmarkCount, shortID(f.ID))
		printFolderTree(out, store, model.Ptr(f.ID), depth+1)
	}
}

func newFolderAddCmd(a *app) *cobra.Command {
	var parent, color, icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			parentID, err := folderRef(a.coord.Folders(), parent)
			if err != nil {
				return err
			}

			in := model.FolderInput{Name: args[0], ParentID: parentID}
			if color != "" {
				in.Color = model.Ptr(color)
			}
			if icon != "" {
				in.Icon = model.Ptr(icon)
			}
			f, err := a.coord.CreateFolder(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s %q\n", shortID(f.ID), f.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent folder")
	cmd.Flags().StringVar(&color, "color", "", "color")
	cmd.Flags().StringVar(&icon, "icon", "", "icon")
	return cmd
}

func newFolderRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder> <name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			f, err := findFolder(a.coord.Folders(), args[0])
			if err != nil {
				return err
			}
			updated, err := a.coord.UpdateFolder(ctx, f.ID, model.FolderPatch{Name: model.Set(args[1])})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed folder %q to %q\n", f.Name, updated.Name)
			return nil
		},
	}
}

func newFolderEditCmd(a *app) *cobra.Command {
	var name, parent, color, icon string

	cmd := &cobra.Command{
		Use:   "edit <folder>",
		Short: "Rename or re-parent a folder",
		Long: `Change a folder. Only the flags you pass are changed. Use --parent / to
move it to the top level.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			folders := a.coord.Folders()
			f, err := findFolder(folders, args[0])
			if err != nil {
				return err
			}

			var patch model.FolderPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = model.Set(name)
			}
			if flags.Changed("parent") {
				parentID, err := folderRef(folders, parent)
				if err != nil {
					return err
				}
				patch.ParentID = model.Set(parentID)
			}
			if flags.Changed("color") {
				patch.Color = model.Set(optional(color))
			}
			if flags.Changed("icon") {
				patch.Icon = model.Set(optional(icon))
			}
			if patch == (model.FolderPatch{}) {
				return fmt.Errorf("%w: nothing to change", model.ErrValidation)
			}

			updated, err := a.coord.UpdateFolder(ctx, f.ID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated folder %q\n", updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "new parent folder, / for top level")
	cmd.Flags().StringVar(&color, "color", "", "color, empty clears it")
	cmd.Flags().StringVar(&icon, "icon", "", "icon, empty clears it")
	return cmd
}

func newFolderMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <folder> <position>",
		Short: "Move a folder among its siblings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			store := &model.Store{Folders: a.coord.Folders()}
			f, err := findFolder(store.Folders, args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: position %q is not a number", model.ErrValidation, args[1])
			}

			siblings := store.GetFoldersInFolder(f.ParentID)
			ids := make([]string, len(siblings))
			for i, s := range siblings {
				ids[i] = s.ID
			}
			if err := a.coord.ReorderFolders(ctx, model.MoveTo(ids, f.ID, pos)).Wait(ctx); err != nil {
				return fmt.Errorf("reorder folders: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved folder %q\n", f.Name)
			return nil
		},
	}
}

func newFolderRemoveCmd(a *app) *cobra.Command {
	var moveTo string

	cmd := &cobra.Command{
		Use:     "rm <folder>",
		Aliases: []string{"delete"},
		Short:   "Delete a folder",
		Long: `Delete a folder. Its bookmarks become uncategorized unless --move-to
names another folder for them. Sub-folders move to the top level.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			folders := a.coord.Folders()
			f, err := findFolder(folders, args[0])
			if err != nil {
				return err
			}

			var opts cascade.FolderOptions
			if cmd.Flags().Changed("move-to") {
				target, err := folderRef(folders, moveTo)
				if err != nil {
					return err
				}
				opts = cascade.FolderOptions{Move: true, Target: target}
			}

			report, err := a.coord.RemoveFolder(ctx, f.ID, opts)
			if err != nil {
				return explainPartial(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted folder %q", f.Name)
			if n := len(report.Reassigned); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d bookmarks moved)", n)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&moveTo, "move-to", "", "folder that receives the bookmarks, / for none")
	return cmd
}

// explainPartial prints what a stopped cascade left behind.
func explainPartial(cmd *cobra.Command, err error) error {
	var partial *cascade.PartialError
	if errors.As(err, &partial) {
		fmt.Fprintln(cmd.ErrOrStderr(), partial.Describe())
	}
	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return model.Ptr(s)
}
