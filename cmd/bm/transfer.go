package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/bmsync/internal/exporter"
	"github.com/nikbrunner/bmsync/internal/importer"
	"github.com/nikbrunner/bmsync/internal/migration"
	"github.com/nikbrunner/bmsync/internal/model"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.html>",
		Short: "Import bookmarks from a browser export",
		Long: `Import a Netscape bookmark file as written by every major browser.
Folders are matched by name and URLs that are already saved are skipped.
Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.wire(ctx); err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			parsed, err := importer.ParseHTMLBookmarks(r)
			if err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}

			res, err := migration.Transfer(ctx, a.factory.Active(), parsed)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bookmarks, %d folders", res.Added, len(parsed.Folders))
			if res.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d duplicates skipped)", res.Skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Export bookmarks to a browser-compatible HTML file",
		Long: `Export bookmarks to Netscape HTML. Defaults to
~/Downloads/bookmarks-export-YYYY-MM-DD.html; use - for stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			store := &model.Store{
				Bookmarks: a.coord.Bookmarks(),
				Folders:   a.coord.Folders(),
				Tags:      a.coord.Tags(),
			}
			html := exporter.ExportHTML(store)

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), html)
				return err
			}
			if path == "" {
				var err error
				if path, err = exporter.DefaultExportPath(); err != nil {
					return fmt.Errorf("default export path: %w", err)
				}
			}

			if err := os.WriteFile(path, []byte(html), 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks, %d folders to %s\n",
				len(store.Bookmarks), len(store.Folders), path)
			return nil
		},
	}
}
