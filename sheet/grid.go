// Package sheet models physical label stock and the grid geometry that maps
// record indexes onto sheet positions. All lengths are millimeters.
package sheet

import "math"

// Shape describes the die-cut outline of a single label.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeRound     Shape = "round"
	ShapeEllipse   Shape = "ellipse"
)

// Template describes one kind of physical stock: sheet size, label size,
// margins and gaps. Catalog stock from a manufacturer may declare a fixed
// LabelsPerSheet that overrides the derived grid count.
type Template struct {
	PageWidthMM  float64 `json:"pageWidth"`
	PageHeightMM float64 `json:"pageHeight"`

	LabelWidthMM  float64 `json:"labelWidth"`
	LabelHeightMM float64 `json:"labelHeight"`

	MarginLeftMM float64 `json:"marginLeft"`
	MarginTopMM  float64 `json:"marginTop"`

	GapXMM float64 `json:"gapX"`
	GapYMM float64 `json:"gapY"`

	// LabelsPerSheet > 0 marks catalog stock; the declared count is used
	// verbatim even when it disagrees with the derived grid.
	LabelsPerSheet int `json:"labelsPerSheet,omitempty"`

	Shape Shape `json:"shape,omitempty"`
}

// LayoutGrid is the resolved sheet grid used by pagination and composition.
type LayoutGrid struct {
	Columns int
	Rows    int

	LabelWidthMM  float64
	LabelHeightMM float64

	MarginLeftMM float64
	MarginTopMM  float64

	GapXMM float64
	GapYMM float64

	LabelsPerSheet int
}

// Grid derives the sheet grid from a template.
//
// columns = max(1, floor((pageWidth-marginLeft)/(labelWidth+gapX))) and the
// same for rows vertically. A label larger than the page clamps to a 1x1
// grid. A catalog LabelsPerSheet always wins over columns*rows.
func Grid(t Template) LayoutGrid {
	cols := 1
	if cw := t.LabelWidthMM + t.GapXMM; cw > 0 {
		cols = int(math.Floor((t.PageWidthMM - t.MarginLeftMM) / cw))
	}
	if cols < 1 {
		cols = 1
	}
	rows := 1
	if ch := t.LabelHeightMM + t.GapYMM; ch > 0 {
		rows = int(math.Floor((t.PageHeightMM - t.MarginTopMM) / ch))
	}
	if rows < 1 {
		rows = 1
	}

	per := cols * rows
	if per < 1 {
		per = 1
	}
	if t.LabelsPerSheet > 0 {
		per = t.LabelsPerSheet
	}

	return LayoutGrid{
		Columns:        cols,
		Rows:           rows,
		LabelWidthMM:   t.LabelWidthMM,
		LabelHeightMM:  t.LabelHeightMM,
		MarginLeftMM:   t.MarginLeftMM,
		MarginTopMM:    t.MarginTopMM,
		GapXMM:         t.GapXMM,
		GapYMM:         t.GapYMM,
		LabelsPerSheet: per,
	}
}
