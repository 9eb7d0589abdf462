package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/services"
)

func newPDFCommand(opts *options) *cobra.Command {
	var (
		locale      string
		transpose   int
		target      string
		index       bool
		pageNumbers bool
		suffix      string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "pdf [song-key]",
		Short: "Write one song or a whole songbook",
		Long: `Writes song-key to the output directory. Without a key every song of the
locale is written into one songbook, in title order.`,
		Example: `  cancionero pdf 12 --locale es --to Re
  cancionero pdf --locale it --index --page-numbers
  cancionero pdf --format md --out ./markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := entities.ArtifactFormat(format)
			switch f {
			case entities.ArtifactFormatPDF, entities.ArtifactFormatPNG, entities.ArtifactFormatMarkdown:
			default:
				return fmt.Errorf("%w: %q", services.ErrUnsupportedFormat, format)
			}

			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if locale == "" {
				locale = app.Config.Render.Locale
			}
			if err := os.MkdirAll(app.Config.Output.Dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			var artifact *entities.Artifact
			if len(args) == 1 {
				key := args[0]
				if target != "" {
					transpose, err = app.Service.ShiftTo(key, locale, target)
					if err != nil {
						return err
					}
				}
				artifact, err = app.Service.RenderSong(cmd.Context(), services.SongRequest{
					Key:    key,
					Locale: locale,
					Shift:  transpose,
					Format: f,
				})
			} else {
				if target != "" || transpose != 0 {
					return errors.New("--to and --transpose need a song key")
				}
				artifact, err = app.Service.BuildSongbook(cmd.Context(), services.SongbookRequest{
					Locale:       locale,
					Suffix:       suffix,
					IncludeIndex: index,
					PageNumbers:  pageNumbers,
					Format:       f,
				})
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", artifact.Path)
			fmt.Fprintf(out, "  songs: %d, pages: %d, size: %s\n", artifact.Songs, artifact.Pages, humanize.Bytes(uint64(artifact.Bytes)))
			if artifact.Digest != "" {
				fmt.Fprintf(out, "  digest: %s\n", artifact.Digest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Song locale (default RENDER_LOCALE)")
	cmd.Flags().IntVarP(&transpose, "transpose", "t", 0, "Shift chords by this many semitones")
	cmd.Flags().StringVar(&target, "to", "", "Transpose so the first chord becomes this note")
	cmd.Flags().BoolVar(&index, "index", false, "Add a cover and an alphabetical index to the songbook")
	cmd.Flags().BoolVar(&pageNumbers, "page-numbers", false, "Number the songbook pages")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Songbook file name suffix (default -<locale>)")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Output format: pdf, png or md")
	return cmd
}
