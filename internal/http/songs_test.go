package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cancionero/internal/cache"
	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/services"
)

const testIndex = `{
  "1": {"stage": "liturgy", "files": {"es": "Resucitó - Cf. 1 Cor 15"}},
  "2": {"stage": "election", "files": {"es": "Abraham - Gn 18", "it": "Abramo - Gn 18"}}
}`

type testEnv struct {
	service *services.SongbookService
	library *library.Library
	output  string
}

func setupSongsTestEnv(t *testing.T) testEnv {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/songs/index.json":                     testIndex,
		"/songs/es/Resucitó - Cf. 1 Cor 15.txt": "Am   F  G\nS. Resucitó, resucitó\nA. Aleluya (bis)\n",
		"/songs/es/Abraham - Gn 18.txt":         "C         G\nS. Abraham, en el encinar de Mambré\n",
		"/songs/it/Abramo - Gn 18.txt":          "Do        Sol\nS. Abramo\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	lib, err := library.Open(fsys, "/songs")
	require.NoError(t, err)

	out := t.TempDir()
	svc, err := services.NewSongbookService(lib, config.Render{
		PageSize:     config.DefaultPageSize,
		MarginTop:    config.DefaultMargin,
		MarginBottom: config.DefaultMargin,
		MarginLeft:   config.DefaultMargin,
		MarginRight:  config.DefaultMargin,
		Columns:      config.DefaultColumns,
		ColumnGap:    config.DefaultMargin,
		Workers:      2,
	}, out)
	require.NoError(t, err)
	return testEnv{service: svc, library: lib, output: out}
}

func (e testEnv) router() *gin.Engine {
	return NewRouter(RouterConfig{
		Songs:         e.service,
		Library:       e.library,
		Builder:       e.service,
		DefaultLocale: "es",
		Version:       "test",
	})
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func viewText(view services.SongView) string {
	var texts []string
	for _, l := range view.Lines {
		texts = append(texts, l.Text())
	}
	return strings.Join(texts, "\n")
}

func TestSongsController_ListSongs(t *testing.T) {
	router := setupSongsTestEnv(t).router()

	t.Run("lists the default locale in title order", func(t *testing.T) {
		w := get(router, "/api/songs")
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Locale string             `json:"locale"`
			Count  int                `json:"count"`
			Songs  []library.SongMeta `json:"songs"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "es", response.Locale)
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "Abraham", response.Songs[0].Title)
		assert.Equal(t, "Resucitó", response.Songs[1].Title)
	})

	t.Run("lists another locale", func(t *testing.T) {
		w := get(router, "/api/songs?locale=it")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Abramo")
		assert.NotContains(t, w.Body.String(), "Resucitó")
	})

	t.Run("lists locales and scales", func(t *testing.T) {
		w := get(router, "/api/locales")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"locales":["es","it"]`)
	})
}

func TestSongsController_GetSong(t *testing.T) {
	router := setupSongsTestEnv(t).router()

	t.Run("returns the song untransposed", func(t *testing.T) {
		w := get(router, "/api/songs/2")
		require.Equal(t, http.StatusOK, w.Code)

		var view services.SongView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "Abraham", view.Meta.Title)
		assert.Equal(t, 0, view.Shift)
		assert.Contains(t, viewText(view), "C         G")
	})

	t.Run("transposes by semitones", func(t *testing.T) {
		w := get(router, "/api/songs/1?transpose=2")
		require.Equal(t, http.StatusOK, w.Code)

		var view services.SongView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, 2, view.Shift)
		assert.Contains(t, viewText(view), "Bm   G  A")
	})

	t.Run("transposes to a target note of the locale", func(t *testing.T) {
		w := get(router, "/api/songs/2?locale=it&to=Re")
		require.Equal(t, http.StatusOK, w.Code)

		var view services.SongView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, 2, view.Shift)
	})

	t.Run("unknown target note is a bad request", func(t *testing.T) {
		w := get(router, "/api/songs/2?to=H")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown_note")
	})

	t.Run("invalid transpose is a bad request", func(t *testing.T) {
		w := get(router, "/api/songs/2?transpose=x")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown song is not found", func(t *testing.T) {
		w := get(router, "/api/songs/404")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing translation is not found", func(t *testing.T) {
		w := get(router, "/api/songs/1?locale=it")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSongsController_GetCommands(t *testing.T) {
	router := setupSongsTestEnv(t).router()

	w := get(router, "/api/songs/2/commands?transpose=14")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Shift    int    `json:"shift"`
		Pages    int    `json:"pages"`
		Digest   string `json:"digest"`
		Commands []struct {
			Op   string `json:"op"`
			Text string `json:"text"`
		} `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Shift)
	assert.Equal(t, 1, response.Pages)
	assert.NotEmpty(t, response.Digest)
	require.NotEmpty(t, response.Commands)

	var texts []string
	for _, cmd := range response.Commands {
		texts = append(texts, cmd.Text)
	}
	assert.Contains(t, texts, "Abraham")
}

func TestSongsController_DownloadPDF(t *testing.T) {
	router := setupSongsTestEnv(t).router()

	t.Run("streams a pdf attachment", func(t *testing.T) {
		w := get(router, "/api/songs/1/pdf")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "Resucito.pdf")
		assert.NotEmpty(t, w.Header().Get("X-Content-Digest"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	})

	t.Run("unknown song is a json error", func(t *testing.T) {
		w := get(router, "/api/songs/404/pdf")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	})
}

func TestSongsController_DownloadPDFCached(t *testing.T) {
	env := setupSongsTestEnv(t)
	pdfCache, err := cache.New(filepath.Join(t.TempDir(), "cache"), ".pdf")
	require.NoError(t, err)
	router := NewRouter(RouterConfig{
		Songs:         env.service,
		Library:       env.library,
		PDFCache:      pdfCache,
		DefaultLocale: "es",
	})

	first := get(router, "/api/songs/1/pdf?transpose=2")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Contains(t, first.Header().Get("Content-Disposition"), "Resucito.pdf")
	assert.True(t, strings.HasPrefix(first.Body.String(), "%PDF"))

	second := get(router, "/api/songs/1/pdf?transpose=2")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.Len(), second.Body.Len())

	// A different transposition is a different document.
	other := get(router, "/api/songs/1/pdf")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))

	entries, err := os.ReadDir(pdfCache.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// cancelAwareRenderer fails renders whose context is already done.
type cancelAwareRenderer struct {
	SongRenderer
}

func (r cancelAwareRenderer) WriteSongPDF(ctx context.Context, key, locale string, shift int, w io.Writer) (layout.Handle, error) {
	if err := ctx.Err(); err != nil {
		return layout.Handle{}, err
	}
	return r.SongRenderer.WriteSongPDF(ctx, key, locale, shift, w)
}

func TestSongsController_DownloadPDFCachedIgnoresClientCancel(t *testing.T) {
	env := setupSongsTestEnv(t)
	pdfCache, err := cache.New(filepath.Join(t.TempDir(), "cache"), ".pdf")
	require.NoError(t, err)
	router := NewRouter(RouterConfig{
		Songs:         cancelAwareRenderer{SongRenderer: env.service},
		Library:       env.library,
		PDFCache:      pdfCache,
		DefaultLocale: "es",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(ctx, "GET", "/api/songs/1/pdf", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestSongsController_GetScale(t *testing.T) {
	router := setupSongsTestEnv(t).router()

	w := get(router, "/api/scales/es-AR")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Locale string   `json:"locale"`
		Notes  []string `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "es", response.Locale)
	require.Len(t, response.Notes, 12)
	assert.Equal(t, "Do", response.Notes[0])
	assert.Equal(t, "Mib", response.Notes[3])
}

func TestRouterWithoutOptionalDependencies(t *testing.T) {
	router := setupSongsTestEnv(t).router()

	assert.Equal(t, http.StatusNotFound, get(router, "/api/tasks/types").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/api/artifacts").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/metrics").Code)
	assert.Equal(t, http.StatusOK, get(router, "/ping").Code)
}
