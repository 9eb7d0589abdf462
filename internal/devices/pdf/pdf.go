// Package pdf is a Device that writes print documents with fpdf.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
	"github.com/mrlokans/cancionero/internal/utils"
)

const (
	fontFamily     = "songbook"
	coreFontFamily = "Helvetica"

	// Fraction of the font size above the baseline and the line height
	// relative to the font size.
	ascentRatio  = 0.8
	leadingRatio = 1.15
)

// ErrDiscarded is returned by calls made after Discard.
var ErrDiscarded = errors.New("pdf output was discarded")

// Config configures a Device.
type Config struct {
	Geometry layout.Geometry
	Theme    render.Theme
	// FontPath is a TrueType font with the glyphs of every locale. Without
	// it the Helvetica core font is used with cp1252 translation.
	FontPath string
	// Path is where Finalize writes the document. Empty means Writer.
	Path   string
	Writer io.Writer
}

// Device renders pages into a PDF document held in memory until Finalize.
type Device struct {
	cfg       Config
	doc       *fpdf.Fpdf
	translate func(string) string
	utf8      bool
	current   render.StyleID
	discarded bool
}

// New creates a PDF device. The font is loaded eagerly so that measuring
// works before the first page.
func New(cfg Config) (*Device, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Theme.Validate(); err != nil {
		return nil, err
	}
	if cfg.Path == "" && cfg.Writer == nil {
		return nil, errors.New("pdf device needs an output path or writer")
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: cfg.Geometry.PageWidth, Ht: cfg.Geometry.PageHeight},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("cancionero", true)

	d := &Device{cfg: cfg, doc: doc, translate: func(s string) string { return s }}
	if cfg.FontPath != "" {
		font, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load font: %w", err)
		}
		doc.AddUTF8FontFromBytes(fontFamily, "", font)
		d.utf8 = true
	} else {
		d.translate = doc.UnicodeTranslatorFromDescriptor("")
	}
	if doc.Err() {
		return nil, fmt.Errorf("failed to load font: %w", doc.Error())
	}
	return d, nil
}

func (d *Device) setStyle(id render.StyleID) render.Style {
	style := d.cfg.Theme.MustStyle(id)
	if d.current == id {
		return style
	}
	d.current = id
	if d.utf8 {
		d.doc.SetFont(fontFamily, "", style.Size)
	} else {
		d.doc.SetFont(coreFontFamily, fontStyle(style), style.Size)
	}
	r, g, b, err := utils.HexToRGB(style.Color)
	if err == nil {
		d.doc.SetTextColor(int(r), int(g), int(b))
	}
	return style
}

func fontStyle(s render.Style) string {
	switch {
	case s.Bold && s.Italic:
		return "BI"
	case s.Bold:
		return "B"
	case s.Italic:
		return "I"
	default:
		return ""
	}
}

func (d *Device) Geometry() layout.Geometry {
	return d.cfg.Geometry
}

func (d *Device) MeasureWidth(text string, style render.StyleID) float64 {
	d.setStyle(style)
	return d.doc.GetStringWidth(d.translate(text))
}

func (d *Device) MeasureHeight(_ string, style render.StyleID) float64 {
	s := d.cfg.Theme.MustStyle(style)
	return s.MarginTop + s.Size*leadingRatio + s.MarginBottom
}

func (d *Device) CreatePage(_ context.Context) error {
	if d.discarded {
		return ErrDiscarded
	}
	d.doc.AddPage()
	// A new page resets the font state.
	d.current = ""
	if d.doc.Err() {
		return d.doc.Error()
	}
	return nil
}

// Paint draws text with its top-left corner at (x, y).
func (d *Device) Paint(text string, x, y float64, style render.StyleID) {
	if d.discarded {
		return
	}
	s := d.setStyle(style)
	d.doc.Text(x, y+s.MarginTop+s.Size*ascentRatio, d.translate(text))
}

// Finalize renders the document and writes it to the configured output.
func (d *Device) Finalize(_ context.Context) (layout.Handle, error) {
	if d.discarded {
		return layout.Handle{}, ErrDiscarded
	}
	var buf bytes.Buffer
	if err := d.doc.Output(&buf); err != nil {
		return layout.Handle{}, fmt.Errorf("failed to render pdf: %w", err)
	}
	data := buf.Bytes()
	if d.cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(d.cfg.Path), 0o755); err != nil {
			return layout.Handle{}, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := writeAtomic(d.cfg.Path, data); err != nil {
			return layout.Handle{}, fmt.Errorf("failed to write pdf: %w", err)
		}
	} else if _, err := d.cfg.Writer.Write(data); err != nil {
		return layout.Handle{}, fmt.Errorf("failed to write pdf: %w", err)
	}
	return layout.NewHandle(d.cfg.Path, d.doc.PageCount(), data), nil
}

// writeAtomic writes data next to path and renames it into place, so a
// failed write never leaves a truncated document at path.
func writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".pdf_tmp_*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after the rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Discard drops the in-memory document. Nothing has been written yet.
func (d *Device) Discard() error {
	d.discarded = true
	return nil
}

var _ layout.Device = (*Device)(nil)
