package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newCatalogCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the song catalog and the generated documents log",
	}
	cmd.AddCommand(
		newCatalogSyncCommand(opts),
		newCatalogListCommand(opts),
		newCatalogArtifactsCommand(opts),
		newCatalogCleanupCommand(opts),
	)
	return cmd
}

func newCatalogSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [locale...]",
		Short: "Mirror the song index into the catalog database",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Service.SyncCatalog(cmd.Context(), args...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, locale := range app.Library.Locales() {
				if n, ok := result.Songs[locale]; ok {
					fmt.Fprintf(out, "%s: %d songs\n", locale, n)
				}
			}
			fmt.Fprintf(out, "Removed %d stale songs\n", result.Removed)
			return nil
		},
	}
}

func newCatalogListCommand(opts *options) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog songs of a locale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if locale == "" {
				locale = app.Config.Render.Locale
			}
			songs, err := app.Songs.List(locale)
			if err != nil {
				return err
			}
			if len(songs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s songs in the catalog, run 'catalog sync' first\n", locale)
				return nil
			}

			data := pterm.TableData{{"Key", "Title", "Source", "Stage", "Lines", "Chords", "Size"}}
			for _, s := range songs {
				chords := ""
				if s.Chords {
					chords = "yes"
				}
				data = append(data, []string{
					s.Key, s.Title, s.Source, s.Stage,
					strconv.Itoa(s.Lines), chords, humanize.Bytes(uint64(s.Bytes)),
				})
			}
			return printTable(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Song locale (default RENDER_LOCALE)")
	return cmd
}

func newCatalogArtifactsCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List the most recently generated documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Artifacts.List(limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents generated yet")
				return nil
			}

			data := pterm.TableData{{"ID", "Kind", "Format", "Locale", "Songs", "Pages", "Size", "Created", "Path"}}
			for _, a := range list {
				data = append(data, []string{
					shortID(a.ID), string(a.Kind), string(a.Format), a.Locale,
					strconv.Itoa(a.Songs), strconv.Itoa(a.Pages),
					humanize.Bytes(uint64(a.Bytes)), humanize.Time(a.CreatedAt), a.Path,
				})
			}
			return printTable(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of documents to list")
	return cmd
}

func newCatalogCleanupCommand(opts *options) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Forget generated documents older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			removed, err := app.Artifacts.DeleteOlderThan(time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d document records\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Retention period in days")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
