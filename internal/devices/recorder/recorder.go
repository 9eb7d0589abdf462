// Package recorder is a Device that records draw commands instead of
// drawing. Text metrics are fixed per style, which makes layouts exact and
// reproducible.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/render"
)

// Op is the kind of a recorded command.
type Op string

const (
	OpPage     Op = "page"
	OpPaint    Op = "paint"
	OpFinalize Op = "finalize"
	OpDiscard  Op = "discard"
)

// Command is one recorded device call.
type Command struct {
	Op    Op             `json:"op"`
	Page  int            `json:"page"`
	Text  string         `json:"text,omitempty"`
	X     float64        `json:"x,omitempty"`
	Y     float64        `json:"y,omitempty"`
	Style render.StyleID `json:"style,omitempty"`
}

// Metrics are the fixed text extents used for a style.
type Metrics struct {
	CharWidth  float64
	LineHeight float64
}

// Device records commands in call order.
type Device struct {
	geometry layout.Geometry
	metrics  map[render.StyleID]Metrics
	fallback Metrics

	commands []Command
	page     int

	failCreateAt  int
	failCreateErr error
	failFinalize  error
}

// Option configures a Device.
type Option func(*Device)

// WithMetrics sets the metrics of one style.
func WithMetrics(style render.StyleID, m Metrics) Option {
	return func(d *Device) {
		d.metrics[style] = m
	}
}

// WithDefaultMetrics sets the metrics of styles without their own.
func WithDefaultMetrics(m Metrics) Option {
	return func(d *Device) {
		d.fallback = m
	}
}

// FailCreatePage makes the n-th CreatePage call (1-based) fail with err.
func FailCreatePage(n int, err error) Option {
	return func(d *Device) {
		d.failCreateAt = n
		d.failCreateErr = err
	}
}

// FailFinalize makes Finalize fail with err.
func FailFinalize(err error) Option {
	return func(d *Device) {
		d.failFinalize = err
	}
}

// New creates a recorder with the given geometry. Every style measures 6
// units per rune and 12 units per line unless configured otherwise.
func New(geometry layout.Geometry, opts ...Option) *Device {
	d := &Device{
		geometry: geometry,
		metrics:  make(map[render.StyleID]Metrics),
		fallback: Metrics{CharWidth: 6, LineHeight: 12},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) metricsFor(style render.StyleID) Metrics {
	if m, ok := d.metrics[style]; ok {
		return m
	}
	return d.fallback
}

func (d *Device) Geometry() layout.Geometry {
	return d.geometry
}

func (d *Device) MeasureWidth(text string, style render.StyleID) float64 {
	return float64(utf8.RuneCountInString(text)) * d.metricsFor(style).CharWidth
}

func (d *Device) MeasureHeight(_ string, style render.StyleID) float64 {
	return d.metricsFor(style).LineHeight
}

func (d *Device) CreatePage(_ context.Context) error {
	if d.failCreateErr != nil && d.page+1 == d.failCreateAt {
		return d.failCreateErr
	}
	d.page++
	d.commands = append(d.commands, Command{Op: OpPage, Page: d.page})
	return nil
}

func (d *Device) Paint(text string, x, y float64, style render.StyleID) {
	d.commands = append(d.commands, Command{Op: OpPaint, Page: d.page, Text: text, X: x, Y: y, Style: style})
}

// Finalize returns a handle whose digest covers the JSON command stream.
func (d *Device) Finalize(_ context.Context) (layout.Handle, error) {
	if d.failFinalize != nil {
		return layout.Handle{}, d.failFinalize
	}
	d.commands = append(d.commands, Command{Op: OpFinalize, Page: d.page})
	data, err := json.Marshal(d.commands)
	if err != nil {
		return layout.Handle{}, fmt.Errorf("failed to encode commands: %w", err)
	}
	return layout.NewHandle("", d.page, data), nil
}

func (d *Device) Discard() error {
	d.commands = append(d.commands, Command{Op: OpDiscard, Page: d.page})
	return nil
}

// Commands returns every recorded command.
func (d *Device) Commands() []Command {
	return append([]Command(nil), d.commands...)
}

// Paints returns the recorded paint commands.
func (d *Device) Paints() []Command {
	var out []Command
	for _, c := range d.commands {
		if c.Op == OpPaint {
			out = append(out, c)
		}
	}
	return out
}

// Pages is the number of pages created.
func (d *Device) Pages() int {
	return d.page
}

var _ layout.Device = (*Device)(nil)
