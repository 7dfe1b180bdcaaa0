package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/search"
)

func newListCmd(a *app) *cobra.Command {
	var (
		folder    string
		tag       string
		favorites bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:     "list [query...]",
		Aliases: []string{"ls"},
		Short:   "List bookmarks",
		Long: `List bookmarks, optionally narrowed to a folder, a tag or favorites.
A query ranks the results by relevance instead.

Use --folder / for bookmarks without a folder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			v := search.View{Mode: search.ModeAll}
			switch {
			case len(args) > 0:
				v = search.View{Mode: search.ModeSearch, Query: strings.Join(args, " ")}
			case favorites:
				v.Mode = search.ModeFavorites
			case cmd.Flags().Changed("folder"):
				id, err := folderRef(a.coord.Folders(), folder)
				if err != nil {
					return err
				}
				v = search.View{Mode: search.ModeFolder, FolderID: id}
			case tag != "":
				t, err := findTag(a.coord.Tags(), tag)
				if err != nil {
					return err
				}
				v = search.View{Mode: search.ModeTag, TagID: model.Ptr(t.ID)}
			}
			a.coord.SetView(v)
			bookmarks := a.coord.FilteredBookmarks()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bookmarks)
			}
			printBookmarks(cmd.OutOrStdout(), bookmarks, a.coord.Folders(), a.coord.Tags())
			return nil
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "only bookmarks in this folder")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only bookmarks with this tag")
	cmd.Flags().BoolVar(&favorites, "fav", false, "only favorites")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.MarkFlagsMutuallyExclusive("folder", "tag", "fav")
	return cmd
}

func printBookmarks(out io.Writer, bookmarks []model.Bookmark, folders []model.Folder, tags []model.Tag) {
	if len(bookmarks) == 0 {
		fmt.Fprintln(out, "No bookmarks.")
		return
	}

	paths := folderPaths(folders)
	lookup := model.Store{Tags: tags}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tURL\tFOLDER\tTAGS")
	for _, b := range bookmarks {
		title := b.Title
		if b.IsFavorite {
			title = "★ " + title
		}
		folder := "-"
		if b.FolderID != nil {
			folder = paths[*b.FolderID]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(b.ID), title, b.URL, folder, strings.Join(lookup.TagNames(b.TagIDs), ","))
	}
	w.Flush()
}

func newAddCmd(a *app) *cobra.Command {
	var (
		title    string
		desc     string
		folder   string
		tags     []string
		favorite bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a bookmark",
		Long: `Save a bookmark. Without --folder it goes to the quick-add folder from
the config, which is created on first use. Use --folder / to leave it
uncategorized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			url := args[0]

			if !force {
				dup, err := a.coord.FindDuplicate(ctx, url)
				if err != nil {
					return err
				}
				if dup != nil {
					return fmt.Errorf("%w: %s is already saved as %q (use --force to add it anyway)",
						model.ErrConflict, url, dup.Title)
				}
			}

			in := model.BookmarkInput{
				URL:        url,
				Title:      title,
				IsFavorite: favorite,
				Tags:       tags,
			}
			if desc != "" {
				in.Description = model.Ptr(desc)
			}

			folderID, err := a.addTarget(cmd, folder)
			if err != nil {
				return err
			}
			in.FolderID = folderID

			b, err := a.coord.CreateBookmark(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q\n", shortID(b.ID), b.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title (defaults to the URL)")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "folder name or ID")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag name, repeatable")
	cmd.Flags().BoolVar(&favorite, "fav", false, "mark as favorite")
	cmd.Flags().BoolVar(&force, "force", false, "add even if the URL is already saved")
	return cmd
}

// addTarget picks the folder for a new bookmark.
func (a *app) addTarget(cmd *cobra.Command, folder string) (*string, error) {
	if cmd.Flags().Changed("folder") {
		return folderRef(a.coord.Folders(), folder)
	}
	name := a.cfg.QuickAddFolder
	if name == "" {
		return nil, nil
	}

	f, err := findFolder(a.coord.Folders(), name)
	if err == nil {
		return model.Ptr(f.ID), nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	created, err := a.coord.CreateFolder(cmd.Context(), model.FolderInput{Name: name})
	if err != nil {
		return nil, fmt.Errorf("create quick-add folder: %w", err)
	}
	return model.Ptr(created.ID), nil
}

func newEditCmd(a *app) *cobra.Command {
	var (
		title    string
		url      string
		desc     string
		folder   string
		tags     []string
		favorite bool
	)

	cmd := &cobra.Command{
		Use:   "edit <bookmark>",
		Short: "Change a bookmark",
		Long: `Change a bookmark. Only the flags you pass are changed; pass an empty
--desc to clear the description and --folder / to remove it from its folder.

A bookmark is named by ID, ID prefix, URL or title.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			b, err := findBookmark(a.coord.Bookmarks(), args[0])
			if err != nil {
				return err
			}

			var (
				patch model.BookmarkPatch
				n     int
			)
			changed := func(name string) bool {
				if cmd.Flags().Changed(name) {
					n++
					return true
				}
				return false
			}
			if changed("title") {
				patch.Title = model.Set(title)
			}
			if changed("url") {
				patch.URL = model.Set(url)
			}
			if changed("desc") {
				var d *string
				if desc != "" {
					d = model.Ptr(desc)
				}
				patch.Description = model.Set(d)
			}
			if changed("folder") {
				id, err := folderRef(a.coord.Folders(), folder)
				if err != nil {
					return err
				}
				patch.FolderID = model.Set(id)
			}
			if changed("tags") {
				patch.Tags = model.Set(nonNilStrings(tags))
			}
			if changed("fav") {
				patch.IsFavorite = model.Set(favorite)
			}
			if n == 0 {
				return fmt.Errorf("%w: nothing to change", model.ErrValidation)
			}

			updated, err := a.coord.UpdateBookmark(ctx, b.ID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %q\n", shortID(updated.ID), updated.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&url, "url", "", "new URL")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "new description, empty clears it")
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "new folder, / for none")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "replace all tags (comma separated)")
	cmd.Flags().BoolVar(&favorite, "fav", false, "favorite state")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <bookmark>",
		Aliases: []string{"delete"},
		Short:   "Delete a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			b, err := findBookmark(a.coord.Bookmarks(), args[0])
			if err != nil {
				return err
			}
			if err := a.coord.DeleteBookmark(ctx, b.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", b.Title)
			return nil
		},
	}
}

func newFavCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fav <bookmark>",
		Short: "Toggle the favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			b, err := findBookmark(a.coord.Bookmarks(), args[0])
			if err != nil {
				return err
			}
			updated, err := a.coord.ToggleFavorite(ctx, b.ID)
			if err != nil {
				return err
			}
			state := "no longer a favorite"
			if updated.IsFavorite {
				state = "now a favorite"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is %s\n", updated.Title, state)
			return nil
		},
	}
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <bookmark> <position>",
		Short: "Move a bookmark within its folder",
		Long: `Move a bookmark to a zero-based position among the bookmarks of the
same folder. Positions past the end move it last.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			b, err := findBookmark(a.coord.Bookmarks(), args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: position %q is not a number", model.ErrValidation, args[1])
			}

			store := model.Store{Bookmarks: a.coord.Bookmarks()}
			siblings := store.GetBookmarksInFolder(b.FolderID)
			ids := make([]string, len(siblings))
			for i, s := range siblings {
				ids[i] = s.ID
			}

			if err := a.coord.ReorderBookmarks(ctx, model.MoveTo(ids, b.ID, pos)).Wait(ctx); err != nil {
				return fmt.Errorf("reorder bookmarks: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q\n", b.Title)
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <bookmark>",
		Short: "Open a bookmark in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			b, err := findBookmark(a.coord.Bookmarks(), args[0])
			if err != nil {
				return err
			}
			return visit(ctx, a, b)
		},
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
