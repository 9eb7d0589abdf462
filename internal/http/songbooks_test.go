package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cancionero/internal/database/artifacts"
	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/scheduler"
	"github.com/mrlokans/cancionero/internal/tasks"
)

type fakeQueue struct {
	tasks  []backlite.Task
	status backlite.TaskStatus
	err    error
}

func (f *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	return fmt.Sprintf("task-%d", len(f.tasks)), nil
}

func (f *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, nil
}

type fakeArtifactLog struct {
	items []entities.Artifact
}

func (f *fakeArtifactLog) Get(id string) (*entities.Artifact, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", artifacts.ErrNotFound, id)
}

func (f *fakeArtifactLog) List(limit int) ([]entities.Artifact, error) {
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type fakeScheduler struct {
	runs   int
	status scheduler.RunStatus
}

func (f *fakeScheduler) IsRunning() bool { return true }

func (f *fakeScheduler) LastRun() *scheduler.RunStatus { return nil }

func (f *fakeScheduler) GetNextRunTime() *time.Time {
	t := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	return &t
}

func (f *fakeScheduler) RunNow(context.Context) scheduler.RunStatus {
	f.runs++
	return f.status
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest("POST", path, nil)
	} else {
		req, _ = http.NewRequest("POST", path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestSongbooksController_BuildSongbook(t *testing.T) {
	t.Run("builds inline without a queue", func(t *testing.T) {
		env := setupSongsTestEnv(t)
		router := env.router()

		w := post(router, "/api/songbooks", `{"locale":"es","include_index":true,"page_numbers":true}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var artifact entities.Artifact
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
		assert.Equal(t, entities.ArtifactKindSongbook, artifact.Kind)
		assert.Equal(t, entities.ArtifactFormatPDF, artifact.Format)
		assert.Equal(t, 2, artifact.Songs)
		assert.Equal(t, filepath.Join(env.output, "iResucito-es.pdf"), artifact.Path)
		_, err := os.Stat(artifact.Path)
		assert.NoError(t, err)
	})

	t.Run("enqueues when a queue is configured", func(t *testing.T) {
		env := setupSongsTestEnv(t)
		queue := &fakeQueue{}
		router := NewRouter(RouterConfig{Songs: env.service, Library: env.library, Builder: env.service, Tasks: queue, DefaultLocale: "es"})

		w := post(router, "/api/songbooks", `{"format":"png","include_index":true}`)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "task-1")

		require.Len(t, queue.tasks, 1)
		task := queue.tasks[0].(tasks.BuildSongbookTask)
		assert.Equal(t, "es", task.Locale)
		assert.Equal(t, entities.ArtifactFormatPNG, task.Format)
		assert.True(t, task.IncludeIndex)
	})

	t.Run("sync query forces an inline build", func(t *testing.T) {
		env := setupSongsTestEnv(t)
		queue := &fakeQueue{}
		router := NewRouter(RouterConfig{Songs: env.service, Library: env.library, Builder: env.service, Tasks: queue, DefaultLocale: "es"})

		w := post(router, "/api/songbooks?sync=true", `{"locale":"it","format":"md"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Empty(t, queue.tasks)
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		router := setupSongsTestEnv(t).router()
		w := post(router, "/api/songbooks", `{"format":"docx"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		router := setupSongsTestEnv(t).router()
		w := post(router, "/api/songbooks", `{"locale":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("queue failure is an internal error", func(t *testing.T) {
		env := setupSongsTestEnv(t)
		router := NewRouter(RouterConfig{Songs: env.service, Library: env.library, Builder: env.service, Tasks: &fakeQueue{err: errors.New("locked")}})
		w := post(router, "/api/songbooks", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestSongbooksController_RenderSong(t *testing.T) {
	env := setupSongsTestEnv(t)
	router := env.router()

	w := post(router, "/api/songs/1/render", `{"shift":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var artifact entities.Artifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
	assert.Equal(t, entities.ArtifactKindSong, artifact.Kind)
	assert.Equal(t, "1", artifact.SongKey)
	assert.Equal(t, 2, artifact.Transpose)
	assert.Equal(t, 1, artifact.Pages)

	w = post(router, "/api/songs/404/render", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSongbooksController_Artifacts(t *testing.T) {
	env := setupSongsTestEnv(t)
	pdfPath := filepath.Join(env.output, "Abraham.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.3"), 0o644))

	log := &fakeArtifactLog{items: []entities.Artifact{
		{ID: "a1", Kind: entities.ArtifactKindSong, Format: entities.ArtifactFormatPDF, Path: pdfPath},
		{ID: "a2", Kind: entities.ArtifactKindSongbook, Format: entities.ArtifactFormatMarkdown, Path: env.output},
	}}
	router := NewRouter(RouterConfig{Songs: env.service, Library: env.library, Builder: env.service, Artifacts: log})

	t.Run("lists with a limit", func(t *testing.T) {
		w := get(router, "/api/artifacts?limit=1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)

		assert.Equal(t, http.StatusBadRequest, get(router, "/api/artifacts?limit=-1").Code)
	})

	t.Run("gets one", func(t *testing.T) {
		w := get(router, "/api/artifacts/a2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"format":"md"`)

		assert.Equal(t, http.StatusNotFound, get(router, "/api/artifacts/zzz").Code)
	})

	t.Run("downloads pdf artifacts only", func(t *testing.T) {
		w := get(router, "/api/artifacts/a1/download")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "%PDF-1.3", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "Abraham.pdf")

		assert.Equal(t, http.StatusBadRequest, get(router, "/api/artifacts/a2/download").Code)
	})
}

func TestTasksController(t *testing.T) {
	queue := &fakeQueue{status: backlite.TaskStatusSuccess}
	router := NewRouter(RouterConfig{Tasks: queue, DefaultLocale: "es"})

	t.Run("lists task types", func(t *testing.T) {
		w := get(router, "/api/tasks/types")
		require.Equal(t, http.StatusOK, w.Code)
		for _, name := range []string{"build_songbook", "sync_catalog", "cleanup_artifacts"} {
			assert.Contains(t, w.Body.String(), name)
		}
	})

	t.Run("reports status", func(t *testing.T) {
		w := get(router, "/api/tasks/task-9")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"success"`)

		queue.status = backlite.TaskStatusNotFound
		assert.Equal(t, http.StatusNotFound, get(router, "/api/tasks/task-0").Code)
		queue.status = backlite.TaskStatusSuccess
	})

	t.Run("runs each task type", func(t *testing.T) {
		require.Equal(t, http.StatusAccepted, post(router, "/api/tasks/build_songbook/run", "").Code)
		require.Equal(t, http.StatusAccepted, post(router, "/api/tasks/sync_catalog/run", `{"locales":["it"]}`).Code)
		require.Equal(t, http.StatusAccepted, post(router, "/api/tasks/cleanup_artifacts/run", `{"retention_days":7}`).Code)

		require.Len(t, queue.tasks, 3)
		assert.Equal(t, tasks.BuildSongbookTask{Locale: "es"}, queue.tasks[0])
		assert.Equal(t, tasks.SyncCatalogTask{Locales: []string{"it"}}, queue.tasks[1])
		assert.Equal(t, tasks.CleanupArtifactsTask{RetentionDays: 7}, queue.tasks[2])
	})

	t.Run("rejects unknown types and bad arguments", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(router, "/api/tasks/print_cover/run", "").Code)
		assert.Equal(t, http.StatusBadRequest, post(router, "/api/tasks/cleanup_artifacts/run", `{"retention_days":-1}`).Code)
		assert.Equal(t, http.StatusBadRequest, post(router, "/api/tasks/build_songbook/run", `{"format":"doc"}`).Code)
	})
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "running", taskStatusToString(backlite.TaskStatusRunning))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
	assert.Equal(t, "not_found", taskStatusToString(backlite.TaskStatusNotFound))
}

func TestScheduleController(t *testing.T) {
	sched := &fakeScheduler{status: scheduler.RunStatus{Locales: []string{"es"}, TaskIDs: []string{"t1"}}}
	router := NewRouter(RouterConfig{Scheduler: sched})

	w := get(router, "/api/schedule")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)
	assert.Contains(t, w.Body.String(), "2026-01-02T03:00:00Z")

	w = post(router, "/api/schedule/run", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "t1")
	assert.Equal(t, 1, sched.runs)

	sched.status = scheduler.RunStatus{Error: "no queue or builder configured"}
	w = post(router, "/api/schedule/run", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "cancionero_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := NewRouter(RouterConfig{Gatherer: reg})
	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cancionero_test_total 1")
}
