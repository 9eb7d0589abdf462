package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/cancionero/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil in cfg disable their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logging.GetLogger("http")))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(SecurityHeadersMiddleware())
	router.Use(ReadOnlyMiddleware(cfg.ReadOnly))

	// Render routes share a per-client limit
	var limitRenders gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RenderRateLimit > 0 {
		limiter := NewRateLimiter(RateLimitConfig{MaxRequests: cfg.RenderRateLimit})
		limitRenders = limiter.Middleware()
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Library, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Song endpoints
	if cfg.Songs != nil && cfg.Library != nil {
		songsController := NewSongsController(cfg.Songs, cfg.Library, cfg.Catalog, cfg.DefaultLocale)
		if cfg.PDFCache != nil {
			songsController.pdfCache = cfg.PDFCache
		}
		router.GET("/api/locales", songsController.ListLocales)
		router.GET("/api/scales/:locale", songsController.GetScale)
		router.GET("/api/songs", songsController.ListSongs)
		router.GET("/api/songs/:key", songsController.GetSong)
		router.GET("/api/songs/:key/commands", limitRenders, songsController.GetCommands)
		router.GET("/api/songs/:key/pdf", limitRenders, songsController.DownloadPDF)
		if cfg.Catalog != nil {
			router.GET("/api/catalog", songsController.GetCatalog)
		}

		previewController := NewPreviewController(cfg.Songs, cfg.DefaultLocale)
		router.GET("/ws/songs/:key", previewController.Serve)
	}

	// Document endpoints
	if cfg.Builder != nil {
		songbooksController := NewSongbooksController(cfg.Builder, cfg.Artifacts, cfg.Tasks, cfg.DefaultLocale)
		router.POST("/api/songbooks", limitRenders, songbooksController.BuildSongbook)
		router.POST("/api/songs/:key/render", limitRenders, songbooksController.RenderSong)
		if cfg.Artifacts != nil {
			router.GET("/api/artifacts", songbooksController.ListArtifacts)
			router.GET("/api/artifacts/:id", songbooksController.GetArtifact)
			router.GET("/api/artifacts/:id/download", songbooksController.DownloadArtifact)
		}
	}

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks, cfg.DefaultLocale)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	// Rebuild schedule endpoints
	if cfg.Scheduler != nil {
		scheduleController := NewScheduleController(cfg.Scheduler)
		router.GET("/api/schedule", scheduleController.GetStatus)
		router.POST("/api/schedule/run", scheduleController.RunNow)
	}

	return router
}
