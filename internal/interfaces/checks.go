package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/cancionero/internal/database/artifacts"
	"github.com/mrlokans/cancionero/internal/database/songs"
	"github.com/mrlokans/cancionero/internal/exporters"
	"github.com/mrlokans/cancionero/internal/http"
	"github.com/mrlokans/cancionero/internal/i18n"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/scheduler"
	"github.com/mrlokans/cancionero/internal/services"
	"github.com/mrlokans/cancionero/internal/tasks"
)

// =============================================================================
// Song Library
// =============================================================================

var _ services.SongSource = (*library.Library)(nil)
var _ http.SongLister = (*library.Library)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

// Catalog rows
var _ services.SongCatalog = (*songs.Repository)(nil)
var _ http.CatalogReader = (*songs.Repository)(nil)

// Generated document log
var _ services.ArtifactStore = (*artifacts.Repository)(nil)
var _ http.ArtifactReader = (*artifacts.Repository)(nil)
var _ tasks.ArtifactCleaner = (*artifacts.Repository)(nil)

// =============================================================================
// Rendering
// =============================================================================

var _ http.SongRenderer = (*services.SongbookService)(nil)
var _ http.SongbookBuilder = (*services.SongbookService)(nil)
var _ exporters.Lookup = (*i18n.Strings)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.SongbookBuilder = (*services.SongbookService)(nil)
var _ tasks.CatalogSyncer = (*services.SongbookService)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.RebuildScheduler = (*scheduler.SongbookScheduler)(nil)
