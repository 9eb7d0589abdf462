package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cancionero/internal/cache"
	"github.com/mrlokans/cancionero/internal/chords"
	"github.com/mrlokans/cancionero/internal/services"
	"github.com/mrlokans/cancionero/internal/utils"
)

// renderTimeout bounds a single synchronous song render.
const renderTimeout = 30 * time.Second

// SongsController serves songs of the library, transposed on request.
type SongsController struct {
	songs         SongRenderer
	library       SongLister
	catalog       CatalogReader
	pdfCache      *cache.Cache
	defaultLocale string
}

// NewSongsController creates a new SongsController.
func NewSongsController(songs SongRenderer, library SongLister, catalog CatalogReader, defaultLocale string) *SongsController {
	if defaultLocale == "" {
		defaultLocale = "es"
	}
	return &SongsController{
		songs:         songs,
		library:       library,
		catalog:       catalog,
		defaultLocale: defaultLocale,
	}
}

func (sc *SongsController) locale(c *gin.Context) string {
	if l := c.Query("locale"); l != "" {
		return l
	}
	return sc.defaultLocale
}

// shift resolves the requested transposition of song key. A target note in
// ?to wins over an explicit ?transpose.
func (sc *SongsController) shift(c *gin.Context, key, locale string) (int, bool) {
	if target := c.Query("to"); target != "" {
		shift, err := sc.songs.ShiftTo(key, locale, target)
		if err != nil {
			respondDomainError(c, err, "shift to "+target)
			return 0, false
		}
		return shift, true
	}
	return parseShiftQuery(c)
}

// ListLocales handles GET /api/locales
func (sc *SongsController) ListLocales(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locales": sc.library.Locales(),
		"scales":  chords.Locales(),
	})
}

// ListSongs handles GET /api/songs
func (sc *SongsController) ListSongs(c *gin.Context) {
	locale := sc.locale(c)
	songs := sc.library.Songs(locale)
	c.JSON(http.StatusOK, gin.H{
		"locale": locale,
		"count":  len(songs),
		"songs":  songs,
	})
}

// GetSong handles GET /api/songs/:key
func (sc *SongsController) GetSong(c *gin.Context) {
	key, locale := c.Param("key"), sc.locale(c)
	shift, ok := sc.shift(c, key, locale)
	if !ok {
		return
	}
	view, err := sc.songs.View(key, locale, shift)
	if err != nil {
		respondDomainError(c, err, "view song "+key)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetCommands handles GET /api/songs/:key/commands
// Returns the draw commands of the song laid out on the configured page.
func (sc *SongsController) GetCommands(c *gin.Context) {
	key, locale := c.Param("key"), sc.locale(c)
	shift, ok := sc.shift(c, key, locale)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), renderTimeout)
	defer cancel()

	cmds, handle, err := sc.songs.Commands(ctx, key, locale, shift)
	if err != nil {
		respondDomainError(c, err, "layout song "+key)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key":      key,
		"locale":   locale,
		"shift":    chords.NormalizeShift(shift),
		"pages":    handle.Pages,
		"digest":   handle.Digest,
		"commands": cmds,
	})
}

// DownloadPDF handles GET /api/songs/:key/pdf
func (sc *SongsController) DownloadPDF(c *gin.Context) {
	key, locale := c.Param("key"), sc.locale(c)
	shift, ok := sc.shift(c, key, locale)
	if !ok {
		return
	}
	view, err := sc.songs.View(key, locale, shift)
	if err != nil {
		respondDomainError(c, err, "view song "+key)
		return
	}

	filename := utils.SanitizeFilename(view.Meta.Title) + ".pdf"

	if sc.pdfCache != nil {
		sc.downloadCached(c, view, filename)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), renderTimeout)
	defer cancel()

	// Buffered so a failed render still gets a JSON error.
	var buf bytes.Buffer
	handle, err := sc.songs.WriteSongPDF(ctx, key, view.Meta.Locale, shift, &buf)
	if err != nil {
		respondDomainError(c, err, "render song "+key)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Content-Digest", handle.Digest)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// downloadCached serves the PDF of view from the render cache, rendering it
// on a miss. Requests for the same view share one render, so it does not
// follow the cancellation of whichever request started it.
func (sc *SongsController) downloadCached(c *gin.Context, view services.SongView, filename string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), renderTimeout)
	defer cancel()

	key := view.Meta.Key
	digest, err := cache.Key(view)
	if err != nil {
		respondInternalError(c, err, "cache key for song "+key)
		return
	}

	path, hit, err := sc.pdfCache.Get(key+"-"+view.Meta.Locale, digest, func(w io.Writer) error {
		_, err := sc.songs.WriteSongPDF(ctx, key, view.Meta.Locale, view.Shift, w)
		return err
	})
	if err != nil {
		respondDomainError(c, err, "render song "+key)
		return
	}

	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, filename)
}

// GetScale handles GET /api/scales/:locale
func (sc *SongsController) GetScale(c *gin.Context) {
	locale := chords.ResolveLocale(c.Param("locale"))
	c.JSON(http.StatusOK, gin.H{
		"locale": locale,
		"notes":  chords.Scale(locale),
	})
}

// GetCatalog handles GET /api/catalog
// Returns the synced catalog rows of a locale with per-stage counts.
func (sc *SongsController) GetCatalog(c *gin.Context) {
	if sc.catalog == nil {
		respondError(c, http.StatusServiceUnavailable, "catalog not configured")
		return
	}
	locale := sc.locale(c)
	songs, err := sc.catalog.List(locale)
	if err != nil {
		respondInternalError(c, err, "list catalog")
		return
	}
	stages, err := sc.catalog.CountByStage(locale)
	if err != nil {
		respondInternalError(c, err, "count catalog stages")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"locale": locale,
		"count":  len(songs),
		"stages": stages,
		"songs":  songs,
	})
}
