package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue         TaskQueue
	defaultLocale string
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, defaultLocale string) *TasksController {
	return &TasksController{queue: queue, defaultLocale: defaultLocale}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "build_songbook",
			Description: "Write every song of a locale into one document",
			Queue:       tasks.BuildSongbookTask{}.Config().Name,
		},
		{
			Type:        "sync_catalog",
			Description: "Mirror the song index into the catalog database",
			Queue:       tasks.SyncCatalogTask{}.Config().Name,
		},
		{
			Type:        "cleanup_artifacts",
			Description: "Forget generated documents older than the retention period",
			Queue:       tasks.CleanupArtifactsTask{}.Config().Name,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// backlite forgets finished tasks after the retention period, so an old
// task ID is reported as not found.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task "+taskID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// Locale is used by build_songbook
	Locale       string                  `json:"locale,omitempty"`
	IncludeIndex bool                    `json:"include_index,omitempty"`
	PageNumbers  bool                    `json:"page_numbers,omitempty"`
	Format       entities.ArtifactFormat `json:"format,omitempty"`
	// Locales is used by sync_catalog; empty syncs all of them
	Locales []string `json:"locales,omitempty"`
	// RetentionDays is used by cleanup_artifacts
	RetentionDays int `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "build_songbook":
		locale := req.Locale
		if locale == "" {
			locale = tc.defaultLocale
		}
		if !validFormat(req.Format) {
			respondBadRequest(c, "unsupported format: "+string(req.Format))
			return
		}
		task = tasks.BuildSongbookTask{
			Locale:       locale,
			IncludeIndex: req.IncludeIndex,
			PageNumbers:  req.PageNumbers,
			Format:       req.Format,
		}

	case "sync_catalog":
		task = tasks.SyncCatalogTask{Locales: req.Locales}

	case "cleanup_artifacts":
		if req.RetentionDays < 0 {
			respondBadRequest(c, "retention_days must not be negative")
			return
		}
		task = tasks.CleanupArtifactsTask{RetentionDays: req.RetentionDays}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.queue.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	respondAccepted(c, "task enqueued", gin.H{"task_id": id, "type": taskType})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
