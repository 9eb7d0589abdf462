package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrlokans/cancionero/internal/cache"
	"github.com/mrlokans/cancionero/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Songs    SongRenderer
	Library  SongLister
	Builder  SongbookBuilder
	Database *database.Database

	// Persistence (optional)
	Artifacts ArtifactReader
	Catalog   CatalogReader

	// Task queue (optional). Without it songbooks are built inline.
	Tasks TaskQueue

	// Songbook rebuild schedule (optional)
	Scheduler RebuildScheduler

	// On-disk cache of single-song PDFs (optional)
	PDFCache *cache.Cache

	// Render requests per client per minute, 0 = unlimited
	RenderRateLimit int

	// Reject every request that is not a read
	ReadOnly bool

	// Prometheus registry served on /metrics (optional)
	Gatherer prometheus.Gatherer

	// Default locale when a request names none
	DefaultLocale string

	// Application info
	Version string
}
