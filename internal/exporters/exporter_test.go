package exporters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cancionero/internal/devices/recorder"
	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
	"github.com/mrlokans/cancionero/internal/songparser"
)

type mapLookup map[string]string

func (m mapLookup) T(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

var testStrings = mapLookup{KeySongbookTitle: "Cancionero", KeyIndexTitle: "Índice"}

func newResolver(t *testing.T) *render.Resolver {
	t.Helper()
	r, err := render.NewResolver(render.DefaultTheme())
	require.NoError(t, err)
	return r
}

func songs(n int) []SongDocument {
	out := make([]SongDocument, n)
	for i := range out {
		out[i] = SongDocument{
			Key:    fmt.Sprint(i + 1),
			Title:  fmt.Sprintf("Canto %d", i+1),
			Source: "Salmo",
			Lines:  songparser.Parse("Am   F  G\nS. Cantad al Señor\nA. Aleluya (bis)"),
		}
	}
	return out
}

// One column, 10 units per line, 110 units of column budget.
func indexGeometry() layout.Geometry {
	return layout.Geometry{
		PageWidth:  300,
		PageHeight: 130,
		Columns:    1,
		Margins:    layout.Margins{Top: 10, Bottom: 10, Left: 10, Right: 10},
	}
}

func TestGenerateWithIndex(t *testing.T) {
	ctx := context.Background()
	dev := recorder.New(indexGeometry(), recorder.WithDefaultMetrics(recorder.Metrics{CharWidth: 5, LineHeight: 10}))
	gen := NewGenerator(newResolver(t), testStrings, WithWorkers(4))

	result, err := gen.Generate(ctx, Request{Songs: songs(40), Options: Options{IncludeIndex: true, ShowPageNumbers: true}}, dev)
	require.NoError(t, err)
	assert.Equal(t, 40, result.SongsProcessed)

	// Cover, then the index: 4 pairs under the heading and 5 per page
	// after that (9 pages), then one page per song.
	assert.Equal(t, 1+9+40, result.PagesWritten)

	paints := dev.Paints()
	require.NotEmpty(t, paints)
	assert.Equal(t, recorder.Command{Op: recorder.OpPaint, Page: 1, Text: "Cancionero", X: 125, Y: 60, Style: render.StyleTitle}, paints[0])
	assert.Equal(t, "Índice", paints[1].Text)
	assert.Equal(t, 2, paints[1].Page)

	var pageNumbers []string
	for _, p := range paints {
		if p.Style == render.StylePageNumber {
			pageNumbers = append(pageNumbers, p.Text)
		}
	}
	require.Len(t, pageNumbers, 49, "every page but the cover is numbered")
	assert.Equal(t, "2", pageNumbers[0])
	assert.Equal(t, "50", pageNumbers[48])

	var titles []recorder.Command
	for _, p := range paints {
		if p.Text == "Canto 40" {
			titles = append(titles, p)
		}
	}
	require.Len(t, titles, 2, "index entry and song heading")
	assert.Equal(t, 10, titles[0].Page)
	assert.Equal(t, 50, titles[1].Page)

	assert.Equal(t, "Cancionero-es", OutputBaseName(Request{Options: Options{IncludeIndex: true, OutputNameSuffix: "-es"}}, testStrings))
}

func TestGenerateWithoutIndex(t *testing.T) {
	ctx := context.Background()
	dev := recorder.New(indexGeometry())
	gen := NewGenerator(newResolver(t), testStrings)

	req := Request{Songs: songs(1)}
	req.Songs[0].Shift = 2
	result, err := gen.Generate(ctx, req, dev)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PagesWritten)

	var texts []string
	for _, p := range dev.Paints() {
		texts = append(texts, p.Text)
	}
	assert.Equal(t, "Canto 1", texts[0])
	assert.Equal(t, "Salmo", texts[1])
	assert.Contains(t, texts, "Bm   G  A")
	assert.NotContains(t, texts, "2", "no page numbers unless requested")

	assert.Equal(t, "Canto 1", OutputBaseName(req, testStrings))
}

func TestGenerateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no songs", func(t *testing.T) {
		_, err := NewGenerator(newResolver(t), testStrings).Generate(ctx, Request{}, recorder.New(indexGeometry()))
		assert.ErrorIs(t, err, ErrNoSongs)
	})

	t.Run("device failure discards the output", func(t *testing.T) {
		boom := errors.New("disk full")
		dev := recorder.New(indexGeometry(), recorder.FailCreatePage(3, boom))
		_, err := NewGenerator(newResolver(t), testStrings).Generate(ctx, Request{Songs: songs(5)}, dev)
		require.ErrorIs(t, err, layout.ErrDeviceIO)
		cmds := dev.Commands()
		assert.Equal(t, recorder.OpDiscard, cmds[len(cmds)-1].Op)
	})

	t.Run("unrenderable line", func(t *testing.T) {
		dev := recorder.New(indexGeometry(), recorder.WithMetrics(render.StyleNotesWithMargin, recorder.Metrics{CharWidth: 5, LineHeight: 500}))
		_, err := NewGenerator(newResolver(t), testStrings).Generate(ctx, Request{Songs: songs(2)}, dev)
		assert.ErrorIs(t, err, layout.ErrUnrenderableLine)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		dev := recorder.New(indexGeometry())
		_, err := NewGenerator(newResolver(t), testStrings).Generate(cctx, Request{Songs: songs(3)}, dev)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, dev.Paints())
	})
}

func TestResolveAllKeepsOrder(t *testing.T) {
	docs := songs(25)
	resolved, err := ResolveAll(context.Background(), newResolver(t), docs, 3)
	require.NoError(t, err)
	require.Len(t, resolved, 25)
	for i, r := range resolved {
		assert.Equal(t, docs[i].Key, r.Key)
		assert.Equal(t, docs[i].Title, r.Header[0].Body.Text)
	}
}

func TestMarkdownExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "md")
	exporter := NewMarkdownExporter(dir, newResolver(t))
	exporter.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

	docs := songs(2)
	docs[0].Title = "Resucitó"
	docs[0].Shift = 2
	result, err := exporter.Export(context.Background(), Request{Songs: docs})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SongsProcessed)

	data, err := os.ReadFile(filepath.Join(dir, "Resucito.md"))
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "title: \"Resucitó\"")
	assert.Contains(t, md, "transpose: 2")
	assert.Contains(t, md, "created_at: 2024-06-15")
	assert.Contains(t, md, "Bm   G  A\n")
	assert.Contains(t, md, "S. Cantad al Señor\n")
	assert.True(t, strings.HasSuffix(md, "```\n"))

	_, err = exporter.Export(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoSongs)
}
