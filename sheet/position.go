package sheet

// LabelPosition locates one label on a concrete sheet page. X/Y are the
// top-left corner of the label cell in mm, measured from the page top-left.
type LabelPosition struct {
	XMM         float64
	YMM         float64
	PageIndex   int
	IndexOnPage int
}

// PositionOnPage resolves a per-page index to its cell coordinates.
// Ordering is strictly row-major: left to right, then top to bottom. This
// must match the physical print order of the stock; do not reorder.
func PositionOnPage(idx int, g LayoutGrid) LabelPosition {
	cols := g.Columns
	if cols < 1 {
		cols = 1
	}
	row := idx / cols
	col := idx % cols
	return LabelPosition{
		XMM:         g.MarginLeftMM + float64(col)*(g.LabelWidthMM+g.GapXMM),
		YMM:         g.MarginTopMM + float64(row)*(g.LabelHeightMM+g.GapYMM),
		IndexOnPage: idx,
	}
}

// Position resolves an absolute record index to a page and cell.
func Position(absolute int, g LayoutGrid) LabelPosition {
	page, idx := FromAbsolute(absolute, g.LabelsPerSheet)
	pos := PositionOnPage(idx, g)
	pos.PageIndex = page
	return pos
}

// ToAbsolute converts (page, indexOnPage) to an absolute record index.
func ToAbsolute(page, idx, labelsPerSheet int) int {
	if labelsPerSheet < 1 {
		labelsPerSheet = 1
	}
	return page*labelsPerSheet + idx
}

// FromAbsolute is the inverse of ToAbsolute for a fixed labelsPerSheet.
func FromAbsolute(absolute, labelsPerSheet int) (page, idx int) {
	if labelsPerSheet < 1 {
		labelsPerSheet = 1
	}
	return absolute / labelsPerSheet, absolute % labelsPerSheet
}

// TotalPages returns ceil(recordCount / labelsPerSheet).
func TotalPages(recordCount, labelsPerSheet int) int {
	if recordCount <= 0 {
		return 0
	}
	if labelsPerSheet < 1 {
		labelsPerSheet = 1
	}
	return (recordCount + labelsPerSheet - 1) / labelsPerSheet
}
