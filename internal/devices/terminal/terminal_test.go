package terminal

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
)

func geometry() layout.Geometry {
	return layout.Geometry{
		PageWidth:  40,
		PageHeight: 10,
		Columns:    1,
		Margins:    layout.Margins{Top: 1, Bottom: 1, Left: 2, Right: 2},
	}
}

func frag(text string, style render.StyleID) render.Fragment {
	return render.Fragment{Text: text, Style: style}
}

func TestDevicePrintsGrid(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	dev, err := New(Config{Geometry: geometry(), Theme: render.DefaultTheme(), Writer: &out})
	require.NoError(t, err)

	engine, err := layout.NewEngine(dev)
	require.NoError(t, err)
	require.NoError(t, engine.WriteLines(ctx, []render.RenderLine{
		{Body: frag("Am  G", render.StyleNotes)},
		{Prefix: frag("S. ", render.StylePrefix), Body: frag("Hola", render.StyleNormal)},
	}))
	_, err = engine.Finish(ctx)
	require.NoError(t, err)

	assert.Equal(t, "\n  Am  G\n  S. Hola\n", out.String())
}

func TestDeviceMargins(t *testing.T) {
	dev, err := New(Config{Geometry: geometry(), Theme: render.DefaultTheme(), Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, dev.MeasureHeight("x", render.StyleNotes))
	assert.Equal(t, 2.0, dev.MeasureHeight("x", render.StyleNotesWithMargin))
	assert.Equal(t, 4.0, dev.MeasureWidth("漢字", render.StyleNormal))
	assert.Equal(t, 4.0, dev.MeasureWidth("Ré7m", render.StyleNormal))
}

func TestDeviceWideRunes(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	dev, err := New(Config{Geometry: geometry(), Theme: render.DefaultTheme(), Writer: &out})
	require.NoError(t, err)

	require.NoError(t, dev.CreatePage(ctx))
	dev.Paint("漢字", 0, 0, render.StyleNormal)
	dev.Paint("x", 4, 0, render.StyleNormal)
	dev.Paint("clipped beyond the right edge of the page", 30, 1, render.StyleNormal)
	_, err = dev.Finalize(ctx)
	require.NoError(t, err)

	rows := strings.Split(out.String(), "\n")
	assert.Equal(t, "漢字x", rows[0])
	assert.Equal(t, strings.Repeat(" ", 30)+"clipped", rows[1][:37])
}

func TestDevicePagesAreSeparated(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	dev, err := New(Config{Geometry: geometry(), Theme: render.DefaultTheme(), Writer: &out})
	require.NoError(t, err)

	engine, err := layout.NewEngine(dev)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		require.NoError(t, engine.WriteLine(ctx, render.RenderLine{Body: frag(fmt.Sprintf("line %d", i), render.StyleNormal)}))
	}
	handle, err := engine.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, handle.Pages)
	assert.Equal(t, 1, strings.Count(out.String(), strings.Repeat("─", 40)))
	assert.Contains(t, out.String(), "  line 7")
}

func TestDeviceColor(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	profile := termenv.TrueColor
	dev, err := New(Config{Geometry: geometry(), Theme: render.DefaultTheme(), Writer: &out, Color: true, Profile: &profile})
	require.NoError(t, err)

	require.NoError(t, dev.CreatePage(ctx))
	dev.Paint("Am", 2, 1, render.StyleNotes)
	_, err = dev.Finalize(ctx)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Am")
}

func TestDeviceDiscard(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	dev, err := New(Config{Geometry: geometry(), Theme: render.DefaultTheme(), Writer: &out})
	require.NoError(t, err)
	require.NoError(t, dev.CreatePage(ctx))
	dev.Paint("hidden", 0, 0, render.StyleNormal)
	require.NoError(t, dev.Discard())

	_, err = dev.Finalize(ctx)
	assert.ErrorIs(t, err, ErrDiscarded)
	assert.Empty(t, out.String())
}
