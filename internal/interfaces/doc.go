// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interfaces they need next to their code and
// this package checks at compile time that the production types satisfy them.
//
// # Interface Categories
//
// ## Song Access
//
//   - SongSource: Read-only access to the library (internal/services/interfaces.go)
//   - SongLister: Song listings for the API (internal/http/stores.go)
//   - SongRenderer, SongbookBuilder: Rendering for the API (internal/http/stores.go)
//
// ## Persistence
//
//   - SongCatalog, CatalogReader: Catalog rows (internal/services, internal/http)
//   - ArtifactStore, ArtifactReader, ArtifactCleaner: Generated document log
//
// ## Output
//
//   - layout.Device: Paint target of the layout engine (internal/layout/device.go)
//   - SongbookExporter: Lays a request out on a device (internal/exporters/generic.go)
//   - Lookup: Locale strings (internal/exporters/generic.go)
//
// ## Background Work
//
//   - TaskQueue, Enqueuer: The backlite task queue (internal/http, internal/scheduler)
//   - RebuildScheduler: Periodic songbook rebuilds (internal/http/stores.go)
//
// # Adding a New Output Device
//
// To render songs somewhere new (e.g., SVG):
//
//  1. Create a package in internal/devices/ implementing layout.Device
//
//     type Device struct {
//         geometry layout.Geometry
//         theme    render.Theme
//     }
//
//     func (d *Device) MeasureWidth(text string, style render.StyleID) float64
//     func (d *Device) Paint(text string, x, y float64, style render.StyleID)
//     func (d *Device) Finalize(ctx context.Context) (layout.Handle, error)
//
//     var _ layout.Device = (*Device)(nil)
//
//  2. Add an entities.ArtifactFormat and select the device in
//     SongbookService.device
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the application-wide checks.
package interfaces
