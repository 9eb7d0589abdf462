package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/mrlokans/cancionero/internal/render"
)

// State of an engine.
type State int

const (
	StateEmpty State = iota
	StateWriting
	StateColumnFull
	StateDone
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateWriting:
		return "writing"
	case StateColumnFull:
		return "column-full"
	case StateDone:
		return "done"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

var (
	// ErrEngineClosed is returned by calls made after Finish or Discard.
	ErrEngineClosed = errors.New("layout engine is closed")

	// ErrEmptyDocument is returned by Finish when nothing was written.
	ErrEmptyDocument = errors.New("nothing to render")
)

// FooterFunc returns the fragments painted at the bottom of a page before
// the engine leaves it.
type FooterFunc func(page int) []render.Fragment

// Option configures an Engine.
type Option func(*Engine)

// WithFooter paints footer fragments centered in the bottom margin of every
// page.
func WithFooter(f FooterFunc) Option {
	return func(e *Engine) {
		e.footer = f
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine lays out one document on one device. It is not safe for concurrent
// use; create one engine per render.
type Engine struct {
	dev    Device
	geo    Geometry
	cursor Cursor
	state  State
	footer FooterFunc
	logger zerolog.Logger
}

// NewEngine creates an engine for dev.
func NewEngine(dev Device, opts ...Option) (*Engine, error) {
	geo := dev.Geometry()
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		dev:    dev,
		geo:    geo,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the engine state.
func (e *Engine) State() State {
	return e.state
}

// Cursor returns the current layout position.
func (e *Engine) Cursor() Cursor {
	return e.cursor
}

// Geometry returns the device geometry the engine lays out against.
func (e *Engine) Geometry() Geometry {
	return e.geo
}

// Pages is the number of pages created so far.
func (e *Engine) Pages() int {
	return e.cursor.Page
}

// CenterX is the x that centers text horizontally on the page.
func (e *Engine) CenterX(text string, style render.StyleID) float64 {
	return math.Floor((e.geo.PageWidth - e.dev.MeasureWidth(text, style)) / 2)
}

// CenterY is the y that centers text vertically on the page.
func (e *Engine) CenterY(text string, style render.StyleID) float64 {
	return math.Floor((e.geo.PageHeight - e.dev.MeasureHeight(text, style)) / 2)
}

// LineHeight measures the height of a line: the tallest fragment.
func (e *Engine) LineHeight(line render.RenderLine) float64 {
	h := 0.0
	for _, f := range line.Fragments() {
		h = math.Max(h, e.dev.MeasureHeight(f.Text, f.Style))
	}
	return h
}

// LineWidth measures the painted width of a line.
func (e *Engine) LineWidth(line render.RenderLine) float64 {
	w := 0.0
	for _, f := range line.Fragments() {
		w += e.dev.MeasureWidth(f.Text, f.Style)
	}
	return w
}

// WriteLine places one line, breaking to the next column or page first if
// it does not fit.
func (e *Engine) WriteLine(ctx context.Context, line render.RenderLine) error {
	if err := e.ensurePage(ctx); err != nil {
		return err
	}
	h := e.LineHeight(line)
	if err := e.place(ctx, h); err != nil {
		return err
	}
	e.paintLine(line, e.cursor.X)
	e.cursor = advance(e.geo, e.cursor, h)
	return nil
}

// WriteLines places lines in order.
func (e *Engine) WriteLines(ctx context.Context, lines []render.RenderLine) error {
	for _, l := range lines {
		if err := e.WriteLine(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// WriteBlock places lines so that they never straddle a column or page
// break: if the block does not fit, all of it moves on.
func (e *Engine) WriteBlock(ctx context.Context, lines []render.RenderLine) error {
	if err := e.ensurePage(ctx); err != nil {
		return err
	}
	heights := make([]float64, len(lines))
	total := 0.0
	for i, l := range lines {
		heights[i] = e.LineHeight(l)
		total += heights[i]
	}
	if err := e.place(ctx, total); err != nil {
		return err
	}
	for i, l := range lines {
		e.paintLine(l, e.cursor.X)
		e.cursor = advance(e.geo, e.cursor, heights[i])
	}
	return nil
}

// WriteCentered places a line like WriteLine but centered on the page.
func (e *Engine) WriteCentered(ctx context.Context, line render.RenderLine) error {
	if err := e.ensurePage(ctx); err != nil {
		return err
	}
	h := e.LineHeight(line)
	if err := e.place(ctx, h); err != nil {
		return err
	}
	x := math.Floor((e.geo.PageWidth - e.LineWidth(line)) / 2)
	e.paintLine(line, x)
	e.cursor = advance(e.geo, e.cursor, h)
	return nil
}

// PaintCentered paints a fragment in the middle of the current page without
// moving the cursor. Used for cover pages.
func (e *Engine) PaintCentered(ctx context.Context, f render.Fragment) error {
	if err := e.ensurePage(ctx); err != nil {
		return err
	}
	e.dev.Paint(f.Text, e.CenterX(f.Text, f.Style), e.CenterY(f.Text, f.Style), f.Style)
	return nil
}

// NewPage finishes the current page and opens a fresh one.
func (e *Engine) NewPage(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.openPage(ctx)
}

// PinColumnTop makes later columns of the current page start at the current
// y, keeping a heading above all columns. A new page resets it.
func (e *Engine) PinColumnTop() {
	if e.state == StateWriting {
		e.cursor.Top = e.cursor.Y
	}
}

// Finish paints the last footer and finalizes the device.
func (e *Engine) Finish(ctx context.Context) (Handle, error) {
	if err := e.checkOpen(); err != nil {
		return Handle{}, err
	}
	if e.state == StateEmpty {
		return Handle{}, e.fail(ErrEmptyDocument)
	}
	e.paintFooter()
	handle, err := e.dev.Finalize(ctx)
	if err != nil {
		return Handle{}, e.fail(&DeviceError{Op: "finalize", Err: err})
	}
	e.state = StateDone
	e.logger.Debug().Int("pages", handle.Pages).Str("path", handle.Path).Msg("document finalized")
	return handle, nil
}

// Discard abandons the render and releases the device output. No paint
// calls are made afterwards. Discarding a finished engine is a no-op.
func (e *Engine) Discard() error {
	if e.state == StateDone || e.state == StateDiscarded {
		return nil
	}
	e.state = StateDiscarded
	if err := e.dev.Discard(); err != nil {
		return &DeviceError{Op: "discard", Err: err}
	}
	return nil
}

func (e *Engine) checkOpen() error {
	if e.state == StateDone || e.state == StateDiscarded {
		return ErrEngineClosed
	}
	return nil
}

func (e *Engine) ensurePage(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.state == StateEmpty {
		return e.openPage(ctx)
	}
	return nil
}

func (e *Engine) openPage(ctx context.Context) error {
	if e.state != StateEmpty {
		e.paintFooter()
	}
	if err := e.dev.CreatePage(ctx); err != nil {
		return e.fail(&DeviceError{Op: "create page", Err: err})
	}
	e.cursor = pageStart(e.geo, e.cursor.Page+1)
	e.state = StateWriting
	return nil
}

// place moves the cursor to where a block of height h fits.
func (e *Engine) place(ctx context.Context, h float64) error {
	next, t, err := step(e.geo, e.cursor, h)
	if err != nil {
		return e.fail(err)
	}
	if t == stay {
		return nil
	}
	e.state = StateColumnFull
	e.logger.Debug().
		Int("page", e.cursor.Page).
		Int("column", e.cursor.Column).
		Float64("y", e.cursor.Y).
		Float64("height", h).
		Stringer("transition", t).
		Msg("column full")
	if t == nextPage {
		return e.openPage(ctx)
	}
	e.cursor = next
	e.state = StateWriting
	return nil
}

func (e *Engine) paintLine(line render.RenderLine, x float64) {
	for _, f := range line.Fragments() {
		if f.Text != "" {
			e.dev.Paint(f.Text, x, e.cursor.Y, f.Style)
		}
		x += e.dev.MeasureWidth(f.Text, f.Style)
	}
}

func (e *Engine) paintFooter() {
	if e.footer == nil || e.cursor.Page == 0 {
		return
	}
	frags := e.footer(e.cursor.Page)
	if len(frags) == 0 {
		return
	}
	w, h := 0.0, 0.0
	for _, f := range frags {
		w += e.dev.MeasureWidth(f.Text, f.Style)
		h = math.Max(h, e.dev.MeasureHeight(f.Text, f.Style))
	}
	x := math.Floor((e.geo.PageWidth - w) / 2)
	y := e.geo.ColumnLimit() + math.Floor((e.geo.Margins.Bottom-h)/2)
	for _, f := range frags {
		if f.Text != "" {
			e.dev.Paint(f.Text, x, y, f.Style)
		}
		x += e.dev.MeasureWidth(f.Text, f.Style)
	}
}

// fail discards the device and returns err.
func (e *Engine) fail(err error) error {
	if derr := e.Discard(); derr != nil {
		e.logger.Warn().Err(derr).Msg("failed to discard device output")
		err = errors.Join(err, derr)
	}
	return fmt.Errorf("layout aborted: %w", err)
}
