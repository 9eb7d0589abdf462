package layout

import (
	"errors"
	"fmt"
)

// ErrUnrenderableLine is returned when a line, or a block kept together, is
// taller than a whole column.
var ErrUnrenderableLine = errors.New("line does not fit in a column")

// Cursor is the layout position inside the current page.
type Cursor struct {
	// Page is 1-based; zero means no page has been created yet.
	Page   int     `json:"page"`
	Column int     `json:"column"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	// Top is where the next column of this page starts.
	Top       float64 `json:"top"`
	Remaining float64 `json:"remaining"`
}

type transition int

const (
	stay transition = iota
	nextColumn
	nextPage
)

func (t transition) String() string {
	switch t {
	case stay:
		return "stay"
	case nextColumn:
		return "next-column"
	case nextPage:
		return "next-page"
	default:
		return "unknown"
	}
}

// pageStart is the cursor at the top of a fresh page.
func pageStart(g Geometry, page int) Cursor {
	c := Cursor{
		Page:   page,
		Column: 0,
		X:      g.ColumnX(0),
		Y:      g.Margins.Top,
		Top:    g.Margins.Top,
	}
	c.Remaining = g.ColumnLimit() - c.Y
	return c
}

// step places a block of height h. It returns the cursor the block must be
// painted at and the break needed to get there. The cursor must be on a
// page. step never loops: a block at least as tall as a column fails.
func step(g Geometry, c Cursor, h float64) (Cursor, transition, error) {
	if h >= g.ColumnBudget() {
		return c, stay, fmt.Errorf("%w: height %.1f, column budget %.1f", ErrUnrenderableLine, h, g.ColumnBudget())
	}
	limit := g.ColumnLimit()
	if c.Y+h < limit {
		return c, stay, nil
	}
	for col := c.Column + 1; col < g.Columns; col++ {
		next := c
		next.Column = col
		next.X = g.ColumnX(col)
		next.Y = c.Top
		next.Remaining = limit - next.Y
		if next.Y+h < limit {
			return next, nextColumn, nil
		}
	}
	return pageStart(g, c.Page+1), nextPage, nil
}

// advance moves the cursor down by h within the current column.
func advance(g Geometry, c Cursor, h float64) Cursor {
	c.Y += h
	c.Remaining = g.ColumnLimit() - c.Y
	return c
}
