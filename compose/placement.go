// Package compose assembles per-record PDF buffers into the final output
// document: either one buffer per page, or many label pages tiled onto
// physical sheets, with optional printer's marks.
package compose

import (
	"fmt"

	"github.com/hlpan/vellum/sheet"
)

// mmToPt is the print-exact conversion used for all composition geometry.
const mmToPt = 72.0 / 25.4

// Placement is the sheet-space geometry for tiled composition, derived from
// a resolved grid. All values are points.
type Placement struct {
	SheetWidthPt  float64
	SheetHeightPt float64
	LabelWidthPt  float64
	LabelHeightPt float64

	grid sheet.LayoutGrid
}

// NewPlacement converts grid geometry to point space. The grid's mm origin
// is top-left; PDF user space is bottom-left, so Y flips in LabelRect.
func NewPlacement(g sheet.LayoutGrid, sheetWidthMM, sheetHeightMM float64) (*Placement, error) {
	if g.LabelsPerSheet < 1 || g.LabelWidthMM <= 0 || g.LabelHeightMM <= 0 {
		return nil, fmt.Errorf("compose: unusable grid %+v", g)
	}
	if sheetWidthMM <= 0 || sheetHeightMM <= 0 {
		return nil, fmt.Errorf("compose: sheet size %gx%gmm", sheetWidthMM, sheetHeightMM)
	}
	return &Placement{
		SheetWidthPt:  sheetWidthMM * mmToPt,
		SheetHeightPt: sheetHeightMM * mmToPt,
		LabelWidthPt:  g.LabelWidthMM * mmToPt,
		LabelHeightPt: g.LabelHeightMM * mmToPt,
		grid:          g,
	}, nil
}

// LabelsPerSheet is the page-break period for tiling.
func (p *Placement) LabelsPerSheet() int { return p.grid.LabelsPerSheet }

// LabelRect returns the bottom-left corner in PDF points of the label cell
// for a per-page index.
func (p *Placement) LabelRect(indexOnPage int) (x, y float64) {
	pos := sheet.PositionOnPage(indexOnPage, p.grid)
	x = pos.XMM * mmToPt
	y = p.SheetHeightPt - (pos.YMM+p.grid.LabelHeightMM)*mmToPt
	return x, y
}
