package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrlokans/cancionero/internal/chords"
	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/devices/image"
	"github.com/mrlokans/cancionero/internal/devices/pdf"
	"github.com/mrlokans/cancionero/internal/devices/recorder"
	"github.com/mrlokans/cancionero/internal/devices/terminal"
	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/exporters"
	"github.com/mrlokans/cancionero/internal/i18n"
	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/metrics"
	"github.com/mrlokans/cancionero/internal/render"
	"github.com/mrlokans/cancionero/internal/songparser"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

// SongRequest asks for one song document.
type SongRequest struct {
	Key    string                  `json:"key"`
	Locale string                  `json:"locale"`
	Shift  int                     `json:"shift"`
	Format entities.ArtifactFormat `json:"format"`
}

// SongbookRequest asks for every song of a locale in one document.
type SongbookRequest struct {
	Locale       string                  `json:"locale"`
	Suffix       string                  `json:"suffix"`
	IncludeIndex bool                    `json:"include_index"`
	PageNumbers  bool                    `json:"page_numbers"`
	Format       entities.ArtifactFormat `json:"format"`
}

// SongView is a song resolved for display.
type SongView struct {
	Meta     library.SongMeta          `json:"meta"`
	Shift    int                       `json:"shift"`
	Header   []render.RenderLine       `json:"header"`
	Lines    []render.RenderLine       `json:"lines"`
	Warnings []songparser.ParseWarning `json:"warnings,omitempty"`
}

// SongbookService renders songs of the library into documents.
type SongbookService struct {
	library   SongSource
	catalog   SongCatalog
	artifacts ArtifactStore
	metrics   *metrics.Metrics
	resolver  *render.Resolver
	render    config.Render
	outputDir string
	log       zerolog.Logger
}

type Option func(*SongbookService)

func WithCatalog(c SongCatalog) Option {
	return func(s *SongbookService) { s.catalog = c }
}

func WithArtifacts(a ArtifactStore) Option {
	return func(s *SongbookService) { s.artifacts = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SongbookService) { s.metrics = m }
}

// NewSongbookService loads the configured theme and builds the service.
func NewSongbookService(lib SongSource, renderCfg config.Render, outputDir string, opts ...Option) (*SongbookService, error) {
	theme, err := render.LoadTheme(renderCfg.ThemePath)
	if err != nil {
		return nil, err
	}
	resolver, err := render.NewResolver(theme)
	if err != nil {
		return nil, err
	}
	if err := renderCfg.Geometry().Validate(); err != nil {
		return nil, err
	}
	s := &SongbookService{
		library:   lib,
		resolver:  resolver,
		render:    renderCfg,
		outputDir: outputDir,
		log:       logging.GetLogger("songbook"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolver is the line resolver built from the configured theme.
func (s *SongbookService) Resolver() *render.Resolver {
	return s.resolver
}

// ShiftTo is the shift that moves song key onto target (a note name in any
// notation or a label of the locale's scale). Songs without chords need no
// shift.
func (s *SongbookService) ShiftTo(key, locale, target string) (int, error) {
	song, err := s.library.Load(key, locale)
	if err != nil {
		return 0, err
	}
	ref, ok := songparser.ReferenceLine(song.Lines)
	if !ok {
		return 0, nil
	}
	shift, err := chords.Diff(ref.Raw, target, locale)
	if errors.Is(err, chords.ErrNoChordFound) {
		return 0, nil
	}
	return shift, err
}

// View resolves song key for display with its chords shifted by shift.
func (s *SongbookService) View(key, locale string, shift int) (SongView, error) {
	song, err := s.library.Load(key, locale)
	if err != nil {
		return SongView{}, err
	}
	return s.view(song, shift)
}

func (s *SongbookService) view(song library.Song, shift int) (SongView, error) {
	header, err := s.resolver.Header(song.Title, song.Source)
	if err != nil {
		return SongView{}, err
	}
	lines, err := s.resolver.Song(song.Lines, shift)
	if err != nil {
		return SongView{}, err
	}
	return SongView{
		Meta:     song.SongMeta,
		Shift:    chords.NormalizeShift(shift),
		Header:   header,
		Lines:    lines,
		Warnings: song.Warnings,
	}, nil
}

func document(song library.Song, shift int) exporters.SongDocument {
	return exporters.SongDocument{
		Key:    song.Key,
		Title:  song.Title,
		Source: song.Source,
		Lines:  song.Lines,
		Shift:  shift,
	}
}

func (s *SongbookService) generate(ctx context.Context, kind entities.ArtifactKind, format entities.ArtifactFormat, req exporters.Request, lookup exporters.Lookup, dev layout.Device) (exporters.ExportResult, error) {
	start := time.Now()
	gen := exporters.NewGenerator(s.resolver, lookup,
		exporters.WithWorkers(s.render.Workers),
		exporters.WithLogger(s.log),
	)
	result, err := gen.Generate(ctx, req, dev)
	s.metrics.ObserveRender(string(kind), string(format), result.PagesWritten, time.Since(start), err)
	return result, err
}

// Commands lays song key out on a recording device and returns the draw
// commands in order.
func (s *SongbookService) Commands(ctx context.Context, key, locale string, shift int) ([]recorder.Command, layout.Handle, error) {
	song, err := s.library.Load(key, locale)
	if err != nil {
		return nil, layout.Handle{}, err
	}
	dev := recorder.New(s.render.Geometry())
	req := exporters.Request{Songs: []exporters.SongDocument{document(song, shift)}}
	result, err := s.generate(ctx, entities.ArtifactKindSong, "commands", req, i18n.New(locale), dev)
	if err != nil {
		return nil, layout.Handle{}, err
	}
	return dev.Commands(), result.Handle, nil
}

// WriteSongPDF renders song key as a PDF into w.
func (s *SongbookService) WriteSongPDF(ctx context.Context, key, locale string, shift int, w io.Writer) (layout.Handle, error) {
	song, err := s.library.Load(key, locale)
	if err != nil {
		return layout.Handle{}, err
	}
	dev, err := pdf.New(pdf.Config{
		Geometry: s.render.Geometry(),
		Theme:    s.resolver.Theme(),
		FontPath: s.render.FontPath,
		Writer:   w,
	})
	if err != nil {
		return layout.Handle{}, err
	}
	req := exporters.Request{Songs: []exporters.SongDocument{document(song, shift)}}
	result, err := s.generate(ctx, entities.ArtifactKindSong, entities.ArtifactFormatPDF, req, i18n.New(locale), dev)
	return result.Handle, err
}

// ShowSong prints song key on a character grid width cells wide.
func (s *SongbookService) ShowSong(ctx context.Context, key, locale string, shift int, w io.Writer, width int, color bool) error {
	song, err := s.library.Load(key, locale)
	if err != nil {
		return err
	}
	dev, err := terminal.New(terminal.Config{
		Geometry: TerminalGeometry(width),
		Theme:    s.resolver.Theme(),
		Writer:   w,
		Color:    color,
	})
	if err != nil {
		return err
	}
	req := exporters.Request{Songs: []exporters.SongDocument{document(song, shift)}}
	_, err = s.generate(ctx, entities.ArtifactKindSong, "terminal", req, i18n.New(locale), dev)
	return err
}

// TerminalGeometry is a single-column page width cells wide, tall enough
// for most songs to fit on one page.
func TerminalGeometry(width int) layout.Geometry {
	if width < 20 {
		width = 80
	}
	return layout.Geometry{
		PageWidth:  float64(width),
		PageHeight: 200,
		Columns:    1,
		Margins:    layout.Margins{Left: 2, Right: 2},
	}
}

func (s *SongbookService) device(format entities.ArtifactFormat, dir, base string) (layout.Device, error) {
	switch format {
	case entities.ArtifactFormatPDF:
		return pdf.New(pdf.Config{
			Geometry: s.render.Geometry(),
			Theme:    s.resolver.Theme(),
			FontPath: s.render.FontPath,
			Path:     filepath.Join(dir, base+".pdf"),
		})
	case entities.ArtifactFormatPNG:
		return image.New(image.Config{
			Geometry: s.render.Geometry(),
			Theme:    s.resolver.Theme(),
			FontPath: s.render.FontPath,
			Dir:      dir,
			BaseName: base,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// export writes req in format and records the artifact.
func (s *SongbookService) export(ctx context.Context, kind entities.ArtifactKind, format entities.ArtifactFormat, locale string, req exporters.Request) (*entities.Artifact, error) {
	if format == "" {
		format = entities.ArtifactFormatPDF
	}
	lookup := i18n.New(locale)
	base := exporters.OutputBaseName(req, lookup)

	var result exporters.ExportResult
	var err error
	if format == entities.ArtifactFormatMarkdown {
		dir := s.outputDir
		if kind == entities.ArtifactKindSongbook {
			dir = filepath.Join(s.outputDir, base)
		}
		start := time.Now()
		result, err = exporters.NewMarkdownExporter(dir, s.resolver).Export(ctx, req)
		s.metrics.ObserveRender(string(kind), string(format), 0, time.Since(start), err)
	} else {
		var dev layout.Device
		dev, err = s.device(format, s.outputDir, base)
		if err != nil {
			return nil, err
		}
		result, err = s.generate(ctx, kind, format, req, lookup, dev)
	}
	if err != nil {
		return nil, err
	}

	artifact := &entities.Artifact{
		ID:     uuid.NewString(),
		Kind:   kind,
		Format: format,
		Locale: locale,
		Songs:  result.SongsProcessed,
		Pages:  result.PagesWritten,
		Bytes:  result.Handle.Bytes,
		Digest: result.Handle.Digest,
		Path:   result.Handle.Path,
	}
	if kind == entities.ArtifactKindSong {
		artifact.SongKey = req.Songs[0].Key
		artifact.Transpose = req.Songs[0].Shift
	}
	if s.artifacts != nil {
		if err := s.artifacts.Save(artifact); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("id", artifact.ID).
		Str("kind", string(kind)).
		Str("format", string(format)).
		Int("songs", artifact.Songs).
		Int("pages", artifact.Pages).
		Str("path", artifact.Path).
		Msg("Document written")
	return artifact, nil
}

// RenderSong writes one song to the output directory.
func (s *SongbookService) RenderSong(ctx context.Context, r SongRequest) (*entities.Artifact, error) {
	song, err := s.library.Load(r.Key, r.Locale)
	if err != nil {
		return nil, err
	}
	req := exporters.Request{Songs: []exporters.SongDocument{document(song, r.Shift)}}
	return s.export(ctx, entities.ArtifactKindSong, r.Format, r.Locale, req)
}

// BuildSongbook writes every song of a locale, in title order, to one
// document. The suffix defaults to "-<locale>".
func (s *SongbookService) BuildSongbook(ctx context.Context, r SongbookRequest) (*entities.Artifact, error) {
	done := logging.LogOperationStart(s.log, "build songbook "+r.Locale)
	defer done()

	songs, err := s.library.LoadAll(ctx, r.Locale, s.render.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}
	suffix := r.Suffix
	if suffix == "" {
		suffix = "-" + r.Locale
	}
	req := exporters.Request{Options: exporters.Options{
		IncludeIndex:     r.IncludeIndex,
		ShowPageNumbers:  r.PageNumbers,
		OutputNameSuffix: suffix,
	}}
	for _, song := range songs {
		req.Songs = append(req.Songs, document(song, 0))
	}
	return s.export(ctx, entities.ArtifactKindSongbook, r.Format, r.Locale, req)
}

// SyncCatalog mirrors the library index of locales into the catalog. No
// locale syncs every locale of the library.
func (s *SongbookService) SyncCatalog(ctx context.Context, locales ...string) (SyncResult, error) {
	if s.catalog == nil {
		return SyncResult{}, errors.New("no catalog configured")
	}
	if len(locales) == 0 {
		locales = s.library.Locales()
	}
	result := SyncResult{Songs: make(map[string]int, len(locales))}
	for _, locale := range locales {
		songs, err := s.library.LoadAll(ctx, locale, s.render.Workers)
		if err != nil {
			return result, fmt.Errorf("failed to load %s songs: %w", locale, err)
		}
		rows := make([]entities.Song, 0, len(songs))
		keys := make([]string, 0, len(songs))
		for _, song := range songs {
			rows = append(rows, catalogRow(song))
			keys = append(keys, song.Key)
		}
		if err := s.catalog.Upsert(rows); err != nil {
			return result, err
		}
		removed, err := s.catalog.Prune(locale, keys)
		if err != nil {
			return result, fmt.Errorf("failed to prune %s songs: %w", locale, err)
		}
		result.Songs[locale] = len(rows)
		result.Removed += removed
		s.metrics.SetCatalogSize(locale, len(rows))
		s.log.Info().Str("locale", locale).Int("songs", len(rows)).Int64("removed", removed).Msg("Catalog synced")
	}
	return result, nil
}

func catalogRow(song library.Song) entities.Song {
	hasChords := false
	for _, l := range song.Lines {
		if l.HasChords() {
			hasChords = true
			break
		}
	}
	return entities.Song{
		Key:      song.Key,
		Locale:   song.Locale,
		Stage:    song.Stage,
		Title:    song.Title,
		Source:   song.Source,
		FileName: song.Name,
		Lines:    len(song.Lines),
		Chords:   hasChords,
		Bytes:    int64(len(song.Text)),
	}
}
