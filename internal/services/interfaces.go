package services

import (
	"context"

	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/library"
)

// SongSource provides read-only access to the song library.
type SongSource interface {
	Locales() []string
	Songs(locale string) []library.SongMeta
	Load(key, locale string) (library.Song, error)
	LoadAll(ctx context.Context, locale string, workers int) ([]library.Song, error)
}

// SongCatalog mirrors the library into the database.
type SongCatalog interface {
	Upsert(songs []entities.Song) error
	Prune(locale string, keep []string) (int64, error)
}

// ArtifactStore records generated documents.
type ArtifactStore interface {
	Save(a *entities.Artifact) error
}

// SyncResult is the outcome of a catalog sync.
type SyncResult struct {
	Songs   map[string]int `json:"songs"` // per locale
	Removed int64          `json:"removed"`
}
