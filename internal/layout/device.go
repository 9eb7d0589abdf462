// Package layout paginates rendered song lines onto fixed-size pages and
// columns through a Device.
package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/cancionero/internal/render"
)

// Device is the drawing backend the engine paints through. Paint has no
// error result; devices report deferred failures from Finalize.
type Device interface {
	Geometry() Geometry
	MeasureWidth(text string, style render.StyleID) float64
	MeasureHeight(text string, style render.StyleID) float64
	CreatePage(ctx context.Context) error
	Paint(text string, x, y float64, style render.StyleID)
	Finalize(ctx context.Context) (Handle, error)
	Discard() error
}

// Handle references the artifact a device produced.
type Handle struct {
	Path   string `json:"path,omitempty"`
	Pages  int    `json:"pages"`
	Bytes  int64  `json:"bytes"`
	Digest string `json:"digest"`
}

// Margins around the drawable area of a page.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Geometry is the static page configuration of a device.
type Geometry struct {
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	Columns    int     `json:"columns"`
	Margins    Margins `json:"margins"`
	ColumnGap  float64 `json:"columnGap"`
}

// ErrInvalidGeometry is returned for geometries with no usable column.
var ErrInvalidGeometry = errors.New("invalid page geometry")

// Validate checks that at least one column of positive size fits the page.
func (g Geometry) Validate() error {
	switch {
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return fmt.Errorf("%w: page size %.0fx%.0f", ErrInvalidGeometry, g.PageWidth, g.PageHeight)
	case g.Columns < 1:
		return fmt.Errorf("%w: %d columns", ErrInvalidGeometry, g.Columns)
	case g.ColumnBudget() <= 0:
		return fmt.Errorf("%w: vertical margins leave no room", ErrInvalidGeometry)
	case g.ColumnWidth() <= 0:
		return fmt.Errorf("%w: horizontal margins leave no room", ErrInvalidGeometry)
	}
	return nil
}

// ColumnLimit is the y coordinate no line may reach.
func (g Geometry) ColumnLimit() float64 {
	return g.PageHeight - g.Margins.Bottom
}

// ColumnBudget is the height available to a column starting at the top
// margin.
func (g Geometry) ColumnBudget() float64 {
	return g.ColumnLimit() - g.Margins.Top
}

// ColumnWidth is the width of one column.
func (g Geometry) ColumnWidth() float64 {
	usable := g.PageWidth - g.Margins.Left - g.Margins.Right - g.ColumnGap*float64(g.Columns-1)
	return usable / float64(g.Columns)
}

// ColumnX is the x origin of column i.
func (g Geometry) ColumnX(i int) float64 {
	return g.Margins.Left + float64(i)*(g.ColumnWidth()+g.ColumnGap)
}

// ErrDeviceIO matches every DeviceError.
var ErrDeviceIO = errors.New("device i/o error")

// DeviceError wraps a failed device operation.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

func (e *DeviceError) Is(target error) bool {
	return target == ErrDeviceIO
}

// SquarePage is a square page of side size with equal margins, the format
// of the printed songbook.
func SquarePage(size, margin float64, columns int) Geometry {
	return Geometry{
		PageWidth:  size,
		PageHeight: size,
		Columns:    columns,
		Margins:    Margins{Top: margin, Bottom: margin, Left: margin, Right: margin},
		ColumnGap:  margin,
	}
}
