package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cancionero/internal/database"
)

// pingTimeout bounds the database probe of a health check.
const pingTimeout = 2 * time.Second

// HealthResponse reports readiness. Any failed check makes the whole
// response unhealthy.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version,omitempty"`
	Locales []string          `json:"locales"`
	Checks  map[string]string `json:"checks"`
}

// healthCheck returns "ok", "not configured" or a failure description, and
// whether the result counts as healthy.
type healthCheck func(ctx context.Context) (string, bool)

type HealthController struct {
	db      *database.Database
	library SongLister
	version string
	started time.Time
}

func NewHealthController(db *database.Database, library SongLister, version string) *HealthController {
	return &HealthController{
		db:      db,
		library: library,
		version: version,
		started: time.Now(),
	}
}

func (h *HealthController) checkDatabase(ctx context.Context) (string, bool) {
	if h.db == nil {
		return "not configured", true
	}
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return "error: " + err.Error(), false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "error: " + err.Error(), false
	}
	return "ok", true
}

// checkLibrary fails on an empty library, which renders nothing.
func (h *HealthController) checkLibrary(context.Context) (string, bool) {
	if h.library == nil {
		return "not configured", true
	}
	if len(h.library.Locales()) == 0 {
		return "empty", false
	}
	return "ok", true
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	health := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Version: h.version,
		Locales: []string{},
		Checks:  map[string]string{},
	}
	if h.library != nil {
		health.Locales = h.library.Locales()
	}

	checks := map[string]healthCheck{
		"database": h.checkDatabase,
		"library":  h.checkLibrary,
	}
	for name, check := range checks {
		result, ok := check(c.Request.Context())
		health.Checks[name] = result
		if !ok {
			health.Status = "unhealthy"
		}
	}

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.IndentedJSON(statusCode, health)
}
