// Package image is a Device that rasterizes each page to a PNG file with gg.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
)

// ErrDiscarded is returned by calls made after Discard.
var ErrDiscarded = errors.New("image output was discarded")

// Config configures a Device.
type Config struct {
	Geometry layout.Geometry
	Theme    render.Theme
	// FontPath is a TrueType font scaled to each style size. Without it a
	// fixed bitmap face is used for every style.
	FontPath string
	// Dir receives one "<BaseName>-NNN.png" file per page.
	Dir      string
	BaseName string
}

// Device keeps one canvas per page and encodes them on Finalize.
type Device struct {
	cfg     Config
	pages   []*gg.Context
	faces   map[render.StyleID]font.Face
	measure *gg.Context

	discarded bool
}

// New creates an image device and loads a face for every style.
func New(cfg Config) (*Device, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Theme.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, errors.New("image device needs an output directory")
	}
	if cfg.BaseName == "" {
		cfg.BaseName = "page"
	}

	d := &Device{
		cfg:     cfg,
		faces:   make(map[render.StyleID]font.Face),
		measure: gg.NewContext(1, 1),
	}
	for _, id := range render.RequiredStyles {
		face, err := d.loadFace(cfg.Theme.MustStyle(id))
		if err != nil {
			return nil, fmt.Errorf("failed to load font for %s: %w", id, err)
		}
		d.faces[id] = face
	}
	return d, nil
}

func (d *Device) loadFace(s render.Style) (font.Face, error) {
	if d.cfg.FontPath == "" {
		return basicfont.Face7x13, nil
	}
	return gg.LoadFontFace(d.cfg.FontPath, s.Size)
}

func (d *Device) Geometry() layout.Geometry {
	return d.cfg.Geometry
}

func (d *Device) MeasureWidth(text string, style render.StyleID) float64 {
	d.measure.SetFontFace(d.faces[style])
	w, _ := d.measure.MeasureString(text)
	return w
}

func (d *Device) MeasureHeight(_ string, style render.StyleID) float64 {
	s := d.cfg.Theme.MustStyle(style)
	d.measure.SetFontFace(d.faces[style])
	return s.MarginTop + d.measure.FontHeight()*1.2 + s.MarginBottom
}

func (d *Device) CreatePage(_ context.Context) error {
	if d.discarded {
		return ErrDiscarded
	}
	dc := gg.NewContext(int(d.cfg.Geometry.PageWidth), int(d.cfg.Geometry.PageHeight))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	d.pages = append(d.pages, dc)
	return nil
}

// Paint draws text with its top-left corner at (x, y).
func (d *Device) Paint(text string, x, y float64, style render.StyleID) {
	if d.discarded || len(d.pages) == 0 {
		return
	}
	s := d.cfg.Theme.MustStyle(style)
	dc := d.pages[len(d.pages)-1]
	dc.SetFontFace(d.faces[style])
	dc.SetHexColor(s.Color)
	dc.DrawString(text, x, y+s.MarginTop+dc.FontHeight())
}

// PagePath is the file a page is written to.
func (d *Device) PagePath(page int) string {
	return filepath.Join(d.cfg.Dir, fmt.Sprintf("%s-%03d.png", d.cfg.BaseName, page))
}

// Finalize encodes every page. The handle points at the output directory
// and its digest covers all pages in order. Pages are staged as temp files
// and renamed into place; on any failure no page of this render is left.
func (d *Device) Finalize(_ context.Context) (layout.Handle, error) {
	if d.discarded {
		return layout.Handle{}, ErrDiscarded
	}
	if err := os.MkdirAll(d.cfg.Dir, 0o755); err != nil {
		return layout.Handle{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	var all bytes.Buffer
	staged := make([]string, 0, len(d.pages))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp) // no-op after the rename
		}
	}()
	for i, dc := range d.pages {
		var buf bytes.Buffer
		if err := dc.EncodePNG(&buf); err != nil {
			return layout.Handle{}, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		tmp, err := stage(d.cfg.Dir, buf.Bytes())
		if err != nil {
			return layout.Handle{}, fmt.Errorf("failed to write page %d: %w", i+1, err)
		}
		staged = append(staged, tmp)
		all.Write(buf.Bytes())
	}

	for i, tmp := range staged {
		if err := os.Rename(tmp, d.PagePath(i+1)); err != nil {
			for page := 1; page <= i; page++ {
				os.Remove(d.PagePath(page))
			}
			return layout.Handle{}, fmt.Errorf("failed to write page %d: %w", i+1, err)
		}
	}
	return layout.NewHandle(d.cfg.Dir, len(d.pages), all.Bytes()), nil
}

func stage(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".page_tmp_*.png")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Discard drops the canvases. No file has been written yet.
func (d *Device) Discard() error {
	d.discarded = true
	d.pages = nil
	return nil
}

var _ layout.Device = (*Device)(nil)
