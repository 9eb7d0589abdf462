package exporters

import (
	"context"
	"errors"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/songparser"
)

// ErrNoSongs is returned for requests without songs.
var ErrNoSongs = errors.New("no songs to export")

// SongbookExporter lays a request out on a device.
type SongbookExporter interface {
	Export(ctx context.Context, req Request, dev layout.Device) (ExportResult, error)
}

// Lookup resolves locale strings. Missing keys come back unchanged.
type Lookup interface {
	T(key string) string
}

// Options of a songbook request.
type Options struct {
	IncludeIndex     bool   `json:"include_index"`
	ShowPageNumbers  bool   `json:"show_page_numbers"`
	OutputNameSuffix string `json:"output_name_suffix"`
}

// SongDocument is one song of a request.
type SongDocument struct {
	Key    string                `json:"key"`
	Title  string                `json:"title"`
	Source string                `json:"source"`
	Lines  []songparser.SongLine `json:"lines"`
	// Shift transposes the song's chords by this many semitones.
	Shift int `json:"shift,omitempty"`
}

// Request is an ordered list of songs plus options.
type Request struct {
	Songs   []SongDocument `json:"songs"`
	Options Options        `json:"options"`
}

type ExportResult struct {
	SongsProcessed int           `json:"songs_processed"`
	PagesWritten   int           `json:"pages_written"`
	Handle         layout.Handle `json:"handle"`
}
