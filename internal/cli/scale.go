package cli

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mrlokans/cancionero/internal/chords"
)

func newScaleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scale [locale]",
		Short: "Print the note names of a locale",
		Long:  `Prints the twelve notes from C as the locale names them, next to the English letters. Without a locale every known scale is printed.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locales := chords.Locales()
			if len(args) == 1 {
				locales = []string{chords.ResolveLocale(args[0])}
			}

			header := []string{"#"}
			header = append(header, locales...)
			data := pterm.TableData{header}
			for i := 0; i < chords.NoteCount; i++ {
				row := []string{strconv.Itoa(i)}
				for _, l := range locales {
					row = append(row, chords.Scale(l)[i])
				}
				data = append(data, row)
			}

			return printTable(cmd.OutOrStdout(), data)
		},
	}
}
