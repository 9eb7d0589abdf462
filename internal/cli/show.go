package cli

import (
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// terminalWidth is the width used when the terminal size is unknown.
const terminalWidth = 80

func newShowCommand(opts *options) *cobra.Command {
	var (
		locale    string
		transpose int
		target    string
		width     int
		color     string
	)

	cmd := &cobra.Command{
		Use:   "show <song-key>",
		Short: "Print a song to the terminal",
		Example: `  cancionero show 12 --to La
  cancionero show 3 -t -2 --color never | less`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			key := args[0]
			if locale == "" {
				locale = app.Config.Render.Locale
			}
			if target != "" {
				transpose, err = app.Service.ShiftTo(key, locale, target)
				if err != nil {
					return err
				}
			}
			if width <= 0 {
				width = columnsFromEnv()
			}

			out := cmd.OutOrStdout()
			return app.Service.ShowSong(cmd.Context(), key, locale, transpose, out, width, useColor(color, out))
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Song locale (default RENDER_LOCALE)")
	cmd.Flags().IntVarP(&transpose, "transpose", "t", 0, "Shift chords by this many semitones")
	cmd.Flags().StringVar(&target, "to", "", "Transpose so the first chord becomes this note")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Page width in cells (default $COLUMNS or 80)")
	cmd.Flags().StringVar(&color, "color", "auto", "Colorize output: auto, always or never")
	return cmd
}

// useColor resolves the --color flag. auto colors only real terminals.
func useColor(mode string, out io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func columnsFromEnv() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return terminalWidth
}
