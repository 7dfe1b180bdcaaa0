package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/culler"
	"github.com/nikbrunner/bmsync/internal/logger"
)

func newCullCmd(a *app) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "cull",
		Short: "Find bookmarks whose pages are gone",
		Long: `Check every bookmark URL and report the dead (404, 410) and the
unreachable ones. --delete removes the dead ones; unreachable bookmarks
are only reported since the site may just be down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}

			bookmarks := a.coord.Bookmarks()
			stderr := cmd.ErrOrStderr()
			results := culler.New(a.cfg.Cull, a.log).Check(ctx, bookmarks, func(done, total int) {
				fmt.Fprintf(stderr, "\rChecking %d/%d", done, total)
			})
			if len(bookmarks) > 0 {
				fmt.Fprintln(stderr)
			}

			dead := culler.Filter(results, culler.Dead)
			unreachable := culler.Filter(results, culler.Unreachable)

			out := cmd.OutOrStdout()
			printCullResults(out, "Dead", dead)
			printCullResults(out, "Unreachable", unreachable)
			if len(dead) == 0 && len(unreachable) == 0 {
				fmt.Fprintf(out, "All %d bookmarks look healthy.\n", len(results))
				return nil
			}

			if !remove {
				return nil
			}
			deleted := 0
			for _, r := range dead {
				if err := a.coord.DeleteBookmark(ctx, r.Bookmark.ID); err != nil {
					a.log.Warn("delete dead bookmark", logger.String("id", r.Bookmark.ID), logger.Error(err))
					continue
				}
				deleted++
			}
			fmt.Fprintf(out, "Deleted %d dead bookmarks\n", deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "delete dead bookmarks")
	return cmd
}

func printCullResults(out io.Writer, label string, results []culler.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", label, len(results))
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for _, r := range results {
		reason := r.Error
		if r.StatusCode != 0 {
			reason = fmt.Sprintf("HTTP %d", r.StatusCode)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", shortID(r.Bookmark.ID), r.Bookmark.URL, reason)
	}
	w.Flush()
}
