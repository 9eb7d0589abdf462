package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cancionero/internal/chords"
	"github.com/mrlokans/cancionero/internal/database/artifacts"
	"github.com/mrlokans/cancionero/internal/exporters"
	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, operation string) {
	log := logging.GetLogger("http")
	log.Error().Err(err).Str("context", operation).Str("path", c.Request.URL.Path).Msg("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// respondDomainError maps the errors of the rendering pipeline to status
// codes. Anything unknown is an internal error.
func respondDomainError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, library.ErrSongNotFound),
		errors.Is(err, library.ErrLocaleNotAvailable),
		errors.Is(err, artifacts.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, chords.ErrUnknownNote):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "unknown_note"})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "unsupported_format"})
	case errors.Is(err, exporters.ErrNoSongs):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "no_songs"})
	case errors.Is(err, layout.ErrUnrenderableLine):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "unrenderable_line"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "rendering timed out"})
	default:
		respondInternalError(c, err, operation)
	}
}

// --- Parameter Parsing ---

// parseShiftQuery reads the transpose query parameter, defaulting to 0.
// Returns false after responding with 400 when it is not an integer.
func parseShiftQuery(c *gin.Context) (int, bool) {
	raw := c.Query("transpose")
	if raw == "" {
		return 0, true
	}
	shift, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, "invalid transpose")
		return 0, false
	}
	return shift, true
}

// parseLimitQuery reads a positive limit query parameter.
func parseLimitQuery(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		respondBadRequest(c, "invalid limit")
		return 0, false
	}
	return limit, true
}
