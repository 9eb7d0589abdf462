// Package terminal is a Device that lays pages out on a character grid and
// prints them, optionally colored.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
)

// ErrDiscarded is returned by calls made after Discard.
var ErrDiscarded = errors.New("terminal output was discarded")

type cell struct {
	r     rune
	style render.StyleID
	// cont marks the second cell of a double-width rune.
	cont bool
}

// Config configures a Device. Geometry is in cells.
type Config struct {
	Geometry layout.Geometry
	Theme    render.Theme
	Writer   io.Writer
	// Color enables lipgloss styling of the output.
	Color bool
	// Profile overrides the color profile detected from Writer.
	Profile *termenv.Profile
}

// Device renders into an in-memory grid and prints it on Finalize.
type Device struct {
	cfg      Config
	renderer *lipgloss.Renderer
	styles   map[render.StyleID]lipgloss.Style
	pages    [][][]cell

	discarded bool
}

// New creates a terminal device.
func New(cfg Config) (*Device, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Theme.Validate(); err != nil {
		return nil, err
	}
	if cfg.Writer == nil {
		return nil, errors.New("terminal device needs a writer")
	}
	d := &Device{cfg: cfg, styles: make(map[render.StyleID]lipgloss.Style)}
	if cfg.Color {
		d.renderer = lipgloss.NewRenderer(cfg.Writer)
		if cfg.Profile != nil {
			d.renderer.SetColorProfile(*cfg.Profile)
		}
		for _, id := range render.RequiredStyles {
			d.styles[id] = buildStyle(d.renderer, cfg.Theme.MustStyle(id))
		}
	}
	return d, nil
}

func buildStyle(r *lipgloss.Renderer, s render.Style) lipgloss.Style {
	return r.NewStyle().
		Foreground(lipgloss.Color(s.Color)).
		Bold(s.Bold).
		Italic(s.Italic)
}

func (d *Device) Geometry() layout.Geometry {
	return d.cfg.Geometry
}

func (d *Device) MeasureWidth(text string, _ render.StyleID) float64 {
	return float64(runewidth.StringWidth(text))
}

// MeasureHeight is one row, plus a spacer row for styles with a top margin.
func (d *Device) MeasureHeight(_ string, style render.StyleID) float64 {
	if d.cfg.Theme.MustStyle(style).MarginTop > 0 {
		return 2
	}
	return 1
}

func (d *Device) CreatePage(_ context.Context) error {
	if d.discarded {
		return ErrDiscarded
	}
	rows := int(d.cfg.Geometry.PageHeight)
	cols := int(d.cfg.Geometry.PageWidth)
	page := make([][]cell, rows)
	for i := range page {
		page[i] = make([]cell, cols)
		for j := range page[i] {
			page[i][j] = cell{r: ' '}
		}
	}
	d.pages = append(d.pages, page)
	return nil
}

// Paint writes text into the grid. Text past the right edge is clipped.
func (d *Device) Paint(text string, x, y float64, style render.StyleID) {
	if d.discarded || len(d.pages) == 0 {
		return
	}
	page := d.pages[len(d.pages)-1]
	row := int(math.Round(y + d.MeasureHeight(text, style) - 1))
	if row < 0 || row >= len(page) {
		return
	}
	col := int(math.Round(x))
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if col < 0 || col+w > len(page[row]) {
			col += w
			continue
		}
		page[row][col] = cell{r: r, style: style}
		for k := 1; k < w; k++ {
			page[row][col+k] = cell{cont: true, style: style}
		}
		col += w
	}
}

// Finalize prints every page, separated by a rule.
func (d *Device) Finalize(_ context.Context) (layout.Handle, error) {
	if d.discarded {
		return layout.Handle{}, ErrDiscarded
	}
	var buf bytes.Buffer
	for i, page := range d.pages {
		if i > 0 {
			buf.WriteString(strings.Repeat("─", int(d.cfg.Geometry.PageWidth)))
			buf.WriteByte('\n')
		}
		for _, row := range trimTrailingRows(page) {
			buf.WriteString(d.renderRow(row))
			buf.WriteByte('\n')
		}
	}
	if _, err := d.cfg.Writer.Write(buf.Bytes()); err != nil {
		return layout.Handle{}, fmt.Errorf("failed to write output: %w", err)
	}
	return layout.NewHandle("", len(d.pages), buf.Bytes()), nil
}

func trimTrailingRows(page [][]cell) [][]cell {
	end := len(page)
	for end > 0 && isEmptyRow(page[end-1]) {
		end--
	}
	return page[:end]
}

func isEmptyRow(row []cell) bool {
	for _, c := range row {
		if !c.cont && c.r != ' ' {
			return false
		}
	}
	return true
}

// renderRow groups runs of cells with the same style.
func (d *Device) renderRow(row []cell) string {
	var out strings.Builder
	var run strings.Builder
	var runStyle render.StyleID
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if st, ok := d.styles[runStyle]; ok && d.cfg.Color && strings.TrimSpace(run.String()) != "" {
			out.WriteString(st.Render(run.String()))
		} else {
			out.WriteString(run.String())
		}
		run.Reset()
	}
	for _, c := range row {
		if c.cont {
			continue
		}
		if c.style != runStyle {
			flush()
			runStyle = c.style
		}
		run.WriteRune(c.r)
	}
	flush()
	return strings.TrimRight(out.String(), " ")
}

// Discard drops the grid. Nothing has been printed yet.
func (d *Device) Discard() error {
	d.discarded = true
	d.pages = nil
	return nil
}

var _ layout.Device = (*Device)(nil)
