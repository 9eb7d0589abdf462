package entrypoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/database"
	"github.com/mrlokans/cancionero/internal/database/artifacts"
	"github.com/mrlokans/cancionero/internal/database/songs"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/metrics"
	"github.com/mrlokans/cancionero/internal/services"
)

// App holds the components shared by the server and the CLI commands.
type App struct {
	Config    *config.Config
	Library   *library.Library
	DB        *database.Database
	Songs     *songs.Repository
	Artifacts *artifacts.Repository
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Service   *services.SongbookService
}

// NewApp opens the song library and the catalog database and builds the
// songbook service on top of them.
func NewApp(cfg *config.Config) (*App, error) {
	lib, err := library.OpenDir(cfg.Library.SongsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open song library %s: %w", cfg.Library.SongsDir, err)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	songRepo := songs.NewRepository(db.DB)
	artifactRepo := artifacts.NewRepository(db.DB)

	svc, err := services.NewSongbookService(lib, cfg.Render, cfg.Output.Dir,
		services.WithCatalog(songRepo),
		services.WithArtifacts(artifactRepo),
		services.WithMetrics(m),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize songbook service: %w", err)
	}

	return &App{
		Config:    cfg,
		Library:   lib,
		DB:        db,
		Songs:     songRepo,
		Artifacts: artifactRepo,
		Registry:  reg,
		Metrics:   m,
		Service:   svc,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
