package http

import (
	"context"
	"io"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cancionero/internal/devices/recorder"
	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/scheduler"
	"github.com/mrlokans/cancionero/internal/services"
)

// This file collects the narrow interfaces the controllers depend on.
// *services.SongbookService, the gorm repositories, *tasks.Client and
// *scheduler.SongbookScheduler satisfy them in production.

// SongViewer resolves songs for display.
type SongViewer interface {
	View(key, locale string, shift int) (services.SongView, error)
	ShiftTo(key, locale, target string) (int, error)
}

// SongRenderer lays songs out on devices.
type SongRenderer interface {
	SongViewer
	Commands(ctx context.Context, key, locale string, shift int) ([]recorder.Command, layout.Handle, error)
	WriteSongPDF(ctx context.Context, key, locale string, shift int, w io.Writer) (layout.Handle, error)
}

// SongLister lists the songs of the library index.
type SongLister interface {
	Songs(locale string) []library.SongMeta
	Locales() []string
}

// SongbookBuilder writes whole-locale documents.
type SongbookBuilder interface {
	BuildSongbook(ctx context.Context, r services.SongbookRequest) (*entities.Artifact, error)
	RenderSong(ctx context.Context, r services.SongRequest) (*entities.Artifact, error)
}

// ArtifactReader reads the generated document log.
type ArtifactReader interface {
	Get(id string) (*entities.Artifact, error)
	List(limit int) ([]entities.Artifact, error)
}

// CatalogReader reads the synced song catalog.
type CatalogReader interface {
	List(locale string) ([]entities.Song, error)
	CountByStage(locale string) (map[string]int64, error)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// RebuildScheduler runs the periodic songbook rebuild.
type RebuildScheduler interface {
	IsRunning() bool
	LastRun() *scheduler.RunStatus
	GetNextRunTime() *time.Time
	RunNow(ctx context.Context) scheduler.RunStatus
}
