package cli

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mrlokans/cancionero/internal/library"
)

func newCheckCommand(opts *options) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [locale...]",
		Short: "Parse every song and report suspicious lines",
		Long:  `Loads the songs of the given locales (all of them by default) and lists the lines the parser had to guess about.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			lib, err := library.OpenDir(cfg.Library.SongsDir)
			if err != nil {
				return err
			}

			locales := args
			if len(locales) == 0 {
				locales = lib.Locales()
			}

			data := pterm.TableData{{"Locale", "Key", "Title", "Line", "Reason"}}
			checked := 0
			for _, locale := range locales {
				songs, err := lib.LoadAll(cmd.Context(), locale, cfg.Render.Workers)
				if err != nil {
					return fmt.Errorf("failed to load %s songs: %w", locale, err)
				}
				checked += len(songs)
				for _, song := range songs {
					for _, w := range song.Warnings {
						data = append(data, []string{locale, song.Key, song.Title, strconv.Itoa(w.Line), w.Reason})
					}
				}
			}

			out := cmd.OutOrStdout()
			problems := len(data) - 1
			if problems > 0 {
				if err := printTable(out, data); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Checked %d songs in %d locales, %d warnings\n", checked, len(locales), problems)
			if strict && problems > 0 {
				return fmt.Errorf("%d parse warnings", problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any warning is found")
	return cmd
}
