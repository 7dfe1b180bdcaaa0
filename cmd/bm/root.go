package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/picker"
)

// openURL opens a URL in the default browser. Replaced in tests.
var openURL = func(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("don't know how to open URLs on %s", runtime.GOOS)
	}
	return cmd.Start()
}

// pick lets the user choose one of the results. Replaced in tests.
var pick = func(p picker.Picker) (*model.Bookmark, error) {
	final, err := tea.NewProgram(p).Run()
	if err != nil {
		return nil, err
	}
	return final.(picker.Picker).SelectedBookmark(), nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bm [query...]",
		Short: "Offline-first bookmark manager",
		Long: `bm keeps bookmarks, folders and tags on this device and, once you sign
in, in your account on a bm server.

Run with a query to fuzzy search and open a bookmark:
  bm hacker news`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runQuickSearch(cmd, a, strings.Join(args, " "))
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.config/bm/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newFavCmd(a),
		newMoveCmd(a),
		newOpenCmd(a),
		newFolderCmd(a),
		newTagCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newCullCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

// runQuickSearch performs a fuzzy search and opens the selected bookmark.
// A single hit is opened straight away.
func runQuickSearch(cmd *cobra.Command, a *app, query string) error {
	ctx := cmd.Context()
	if err := a.load(ctx); err != nil {
		return err
	}

	results := a.coord.Search(query)
	switch len(results) {
	case 0:
		fmt.Fprintf(cmd.OutOrStdout(), "No bookmarks found for %q\n", query)
		return nil
	case 1:
		return visit(ctx, a, results[0].Bookmark)
	}

	selected, err := pick(picker.New(results, query, a.coord.Tags()))
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	if selected == nil {
		return nil
	}
	return visit(ctx, a, *selected)
}

// visit records a click and opens the bookmark.
func visit(ctx context.Context, a *app, b model.Bookmark) error {
	if err := a.coord.TrackClick(ctx, b.ID); err != nil {
		return err
	}
	if err := openURL(b.URL); err != nil {
		return fmt.Errorf("open %s: %w", b.URL, err)
	}
	return nil
}
