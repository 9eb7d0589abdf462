package http

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/services"
	"github.com/mrlokans/cancionero/internal/tasks"
)

// buildTimeout bounds an inline songbook build when no task queue runs.
const buildTimeout = 10 * time.Minute

// SongbooksController writes documents to the output directory and serves
// the log of generated artifacts.
type SongbooksController struct {
	builder       SongbookBuilder
	artifacts     ArtifactReader
	queue         TaskQueue
	defaultLocale string
}

// NewSongbooksController creates a new SongbooksController. queue and
// artifacts may be nil.
func NewSongbooksController(builder SongbookBuilder, artifacts ArtifactReader, queue TaskQueue, defaultLocale string) *SongbooksController {
	if defaultLocale == "" {
		defaultLocale = "es"
	}
	return &SongbooksController{
		builder:       builder,
		artifacts:     artifacts,
		queue:         queue,
		defaultLocale: defaultLocale,
	}
}

// BuildSongbook handles POST /api/songbooks
// Enqueues a songbook build, or builds inline when no task queue is running.
// ?sync=true forces the inline build.
func (sc *SongbooksController) BuildSongbook(c *gin.Context) {
	var req services.SongbookRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}
	if req.Locale == "" {
		req.Locale = sc.defaultLocale
	}
	if !validFormat(req.Format) {
		respondBadRequest(c, "unsupported format: "+string(req.Format))
		return
	}

	if sc.queue != nil && c.Query("sync") != "true" {
		task := tasks.BuildSongbookTask{
			Locale:       req.Locale,
			Suffix:       req.Suffix,
			IncludeIndex: req.IncludeIndex,
			PageNumbers:  req.PageNumbers,
			Format:       req.Format,
		}
		id, err := sc.queue.Enqueue(task)
		if err != nil {
			respondInternalError(c, err, "enqueue songbook build")
			return
		}
		respondAccepted(c, "songbook build enqueued", gin.H{"task_id": id, "locale": req.Locale})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), buildTimeout)
	defer cancel()

	artifact, err := sc.builder.BuildSongbook(ctx, req)
	if err != nil {
		respondDomainError(c, err, "build songbook "+req.Locale)
		return
	}
	c.JSON(http.StatusCreated, artifact)
}

// RenderSongRequest is the request body for writing one song document.
type RenderSongRequest struct {
	Locale string                  `json:"locale"`
	Shift  int                     `json:"shift"`
	Format entities.ArtifactFormat `json:"format"`
}

// RenderSong handles POST /api/songs/:key/render
func (sc *SongbooksController) RenderSong(c *gin.Context) {
	var body RenderSongRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}
	if body.Locale == "" {
		body.Locale = sc.defaultLocale
	}
	if !validFormat(body.Format) {
		respondBadRequest(c, "unsupported format: "+string(body.Format))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), renderTimeout)
	defer cancel()

	artifact, err := sc.builder.RenderSong(ctx, services.SongRequest{
		Key:    c.Param("key"),
		Locale: body.Locale,
		Shift:  body.Shift,
		Format: body.Format,
	})
	if err != nil {
		respondDomainError(c, err, "render song "+c.Param("key"))
		return
	}
	c.JSON(http.StatusCreated, artifact)
}

// ListArtifacts handles GET /api/artifacts
func (sc *SongbooksController) ListArtifacts(c *gin.Context) {
	if sc.artifacts == nil {
		respondError(c, http.StatusServiceUnavailable, "artifact log not configured")
		return
	}
	limit, ok := parseLimitQuery(c, 50)
	if !ok {
		return
	}
	list, err := sc.artifacts.List(limit)
	if err != nil {
		respondInternalError(c, err, "list artifacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(list),
		"artifacts": list,
	})
}

// GetArtifact handles GET /api/artifacts/:id
func (sc *SongbooksController) GetArtifact(c *gin.Context) {
	if sc.artifacts == nil {
		respondError(c, http.StatusServiceUnavailable, "artifact log not configured")
		return
	}
	artifact, err := sc.artifacts.Get(c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "get artifact")
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// DownloadArtifact handles GET /api/artifacts/:id/download
// Only single-file artifacts (PDF) can be downloaded.
func (sc *SongbooksController) DownloadArtifact(c *gin.Context) {
	if sc.artifacts == nil {
		respondError(c, http.StatusServiceUnavailable, "artifact log not configured")
		return
	}
	artifact, err := sc.artifacts.Get(c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "get artifact")
		return
	}
	if artifact.Format != entities.ArtifactFormatPDF {
		respondBadRequest(c, "only pdf artifacts can be downloaded")
		return
	}
	c.FileAttachment(artifact.Path, filepath.Base(artifact.Path))
}

func validFormat(f entities.ArtifactFormat) bool {
	switch f {
	case "", entities.ArtifactFormatPDF, entities.ArtifactFormatPNG, entities.ArtifactFormatMarkdown:
		return true
	}
	return false
}
