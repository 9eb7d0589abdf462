package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cancionero/internal/cache"
	http_controllers "github.com/mrlokans/cancionero/internal/http"
	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/scheduler"
	"github.com/mrlokans/cancionero/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// checkOutputDir creates the output directory and makes sure it is writable
// by touching and removing an empty file.
func checkOutputDir(dir string) error {
	if dir == "" {
		return errors.New("output directory is not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output directory %s cannot be created: %w", dir, err)
	}
	probe := filepath.Join(dir, ".cancionero")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	f.Close()
	return os.Remove(probe)
}

// openPDFCache opens the render cache at dir and drops renders left by a
// previous run. An empty dir disables the cache.
func openPDFCache(dir string) (*cache.Cache, error) {
	if dir == "" {
		return nil, nil
	}
	c, err := cache.New(dir, ".pdf")
	if err != nil {
		return nil, err
	}
	removed, err := c.Purge()
	if err != nil {
		return nil, fmt.Errorf("failed to purge render cache: %w", err)
	}
	log := logging.GetLogger("entrypoint")
	log.Debug().Str("dir", dir).Int("removed", removed).Msg("Render cache ready")
	return c, nil
}

// Serve runs router until SIGINT or SIGTERM, then shuts down gracefully.
func Serve(router *gin.Engine, addr string, timeout time.Duration, onShutdown ShutdownFunc) error {
	log := logging.GetLogger("server")

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting server")
		// service connections
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Dur("timeout", timeout).Msg("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

// Run starts the HTTP server with the task queue and the rebuild schedule.
func Run(app *App, version string) error {
	cfg := app.Config
	log := logging.GetLogger("entrypoint")
	log.Info().Str("version", version).Int("songs", app.Library.Len()).Strs("locales", app.Library.Locales()).Msg("Starting cancionero")

	if err := checkOutputDir(cfg.Output.Dir); err != nil {
		return err
	}

	pdfCache, err := openPDFCache(cfg.HTTP.CacheDir)
	if err != nil {
		return err
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewBuildSongbookQueue(app.Service),
			tasks.NewSyncCatalogQueue(app.Service),
			tasks.NewCleanupArtifactsQueue(app.Artifacts),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Rebuild schedule; without a queue the builds run inline
	var queue scheduler.Enqueuer
	if taskClient != nil {
		queue = taskClient
	}
	rebuilds := scheduler.NewSongbookScheduler(cfg.Schedule, queue, app.Service)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := rebuilds.Start(schedCtx); err != nil {
		return err
	}

	routerCfg := http_controllers.RouterConfig{
		Songs:         app.Service,
		Library:       app.Library,
		Builder:       app.Service,
		Database:      app.DB,
		Artifacts:     app.Artifacts,
		Catalog:       app.Songs,
		Scheduler:     rebuilds,
		Gatherer:      app.Registry,
		DefaultLocale: cfg.Render.Locale,
		Version:       version,

		RenderRateLimit: cfg.HTTP.RenderRateLimit,
		ReadOnly:        cfg.HTTP.ReadOnly,
	}
	if pdfCache != nil {
		routerCfg.PDFCache = pdfCache
	}
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}

	if cfg.Log.Verbosity < 2 {
		gin.SetMode(gin.ReleaseMode)
	}
	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		rebuilds.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	return Serve(router, addr, timeout, onShutdown)
}
