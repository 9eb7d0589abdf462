package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ScheduleController exposes the periodic songbook rebuild.
type ScheduleController struct {
	scheduler RebuildScheduler
}

func NewScheduleController(scheduler RebuildScheduler) *ScheduleController {
	return &ScheduleController{scheduler: scheduler}
}

// GetStatus handles GET /api/schedule
func (sc *ScheduleController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":  sc.scheduler.IsRunning(),
		"next_run": sc.scheduler.GetNextRunTime(),
		"last_run": sc.scheduler.LastRun(),
	})
}

// RunNow handles POST /api/schedule/run
func (sc *ScheduleController) RunNow(c *gin.Context) {
	status := sc.scheduler.RunNow(c.Request.Context())
	if status.Error != "" {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: status.Error, Details: status})
		return
	}
	respondAccepted(c, "songbook rebuild started", status)
}
