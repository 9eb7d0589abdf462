package exporters

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
	"github.com/mrlokans/cancionero/internal/utils"
)

// Locale keys used by the generator.
const (
	KeySongbookTitle = "songbook.title"
	KeyIndexTitle    = "index.title"
)

// Generator lays songbooks out: an optional cover and index, then every
// song on its own page.
type Generator struct {
	resolver *render.Resolver
	lookup   Lookup
	workers  int
	logger   zerolog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithWorkers bounds the goroutines used to resolve songs.
func WithWorkers(n int) GeneratorOption {
	return func(g *Generator) {
		g.workers = n
	}
}

// WithLogger sets the generator logger.
func WithLogger(logger zerolog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

func NewGenerator(resolver *render.Resolver, lookup Lookup, opts ...GeneratorOption) *Generator {
	g := &Generator{
		resolver: resolver,
		lookup:   lookup,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OutputBaseName is the file name, without extension, of a request's
// artifact: the songbook title plus suffix when an index is built, the
// first song title otherwise.
func OutputBaseName(req Request, lookup Lookup) string {
	if req.Options.IncludeIndex || len(req.Songs) == 0 {
		return utils.SanitizeFilename(lookup.T(KeySongbookTitle) + req.Options.OutputNameSuffix)
	}
	return utils.SanitizeFilename(req.Songs[0].Title)
}

// Export implements SongbookExporter.
func (g *Generator) Export(ctx context.Context, req Request, dev layout.Device) (ExportResult, error) {
	return g.Generate(ctx, req, dev)
}

// Generate resolves every song, lays the document out on dev and
// finalizes it. On any error the device output is discarded.
func (g *Generator) Generate(ctx context.Context, req Request, dev layout.Device) (result ExportResult, err error) {
	if len(req.Songs) == 0 {
		return ExportResult{}, ErrNoSongs
	}

	songs, err := ResolveAll(ctx, g.resolver, req.Songs, g.workers)
	if err != nil {
		_ = dev.Discard()
		return ExportResult{}, fmt.Errorf("failed to resolve songs: %w", err)
	}

	opts := []layout.Option{layout.WithLogger(g.logger)}
	if req.Options.ShowPageNumbers {
		opts = append(opts, layout.WithFooter(g.pageNumbers(req.Options.IncludeIndex)))
	}
	engine, err := layout.NewEngine(dev, opts...)
	if err != nil {
		_ = dev.Discard()
		return ExportResult{}, err
	}
	defer func() {
		if err != nil {
			_ = engine.Discard()
		}
	}()

	if req.Options.IncludeIndex {
		if err = g.writeIndex(ctx, engine, songs); err != nil {
			return ExportResult{}, err
		}
	}

	for _, song := range songs {
		if err = ctx.Err(); err != nil {
			return ExportResult{}, err
		}
		if err = g.writeSong(ctx, engine, song); err != nil {
			return ExportResult{}, fmt.Errorf("song %s: %w", song.Key, err)
		}
		result.SongsProcessed++
	}

	handle, err := engine.Finish(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	result.Handle = handle
	result.PagesWritten = handle.Pages
	g.logger.Info().
		Int("songs", result.SongsProcessed).
		Int("pages", result.PagesWritten).
		Str("digest", handle.Digest).
		Msg("songbook generated")
	return result, nil
}

// writeIndex paints the cover page and then one title and source pair per
// song. A pair never splits across a break.
func (g *Generator) writeIndex(ctx context.Context, engine *layout.Engine, songs []ResolvedSong) error {
	cover := render.Fragment{Text: g.lookup.T(KeySongbookTitle), Style: render.StyleTitle}
	if err := engine.PaintCentered(ctx, cover); err != nil {
		return err
	}
	if err := engine.NewPage(ctx); err != nil {
		return err
	}
	heading := render.RenderLine{Body: render.Fragment{Text: g.lookup.T(KeyIndexTitle), Style: render.StyleTitle}}
	if err := engine.WriteCentered(ctx, heading); err != nil {
		return err
	}
	engine.PinColumnTop()
	for _, song := range songs {
		if err := engine.WriteBlock(ctx, song.Header); err != nil {
			return fmt.Errorf("index entry %s: %w", song.Key, err)
		}
	}
	return nil
}

func (g *Generator) writeSong(ctx context.Context, engine *layout.Engine, song ResolvedSong) error {
	if err := engine.NewPage(ctx); err != nil {
		return err
	}
	if err := engine.WriteLines(ctx, song.Header); err != nil {
		return err
	}
	engine.PinColumnTop()
	return engine.WriteLines(ctx, song.Lines)
}

// pageNumbers numbers every page but the cover.
func (g *Generator) pageNumbers(hasCover bool) layout.FooterFunc {
	return func(page int) []render.Fragment {
		if hasCover && page == 1 {
			return nil
		}
		return []render.Fragment{{Text: strconv.Itoa(page), Style: render.StylePageNumber}}
	}
}

var _ SongbookExporter = (*Generator)(nil)
