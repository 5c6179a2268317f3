package sheet

import (
	"math"
	"testing"
)

// avery5160 is a common 3x10 address label sheet (US letter, 30 per sheet).
func avery5160() Template {
	return Template{
		PageWidthMM:   215.9,
		PageHeightMM:  279.4,
		LabelWidthMM:  66.7,
		LabelHeightMM: 25.4,
		MarginLeftMM:  4.8,
		MarginTopMM:   12.7,
		GapXMM:        3.2,
		GapYMM:        0,
	}
}

func TestGridDerivesColumnsAndRows(t *testing.T) {
	g := Grid(avery5160())
	if g.Columns != 3 {
		t.Fatalf("columns: got %d want 3", g.Columns)
	}
	if g.Rows != 10 {
		t.Fatalf("rows: got %d want 10", g.Rows)
	}
	if g.LabelsPerSheet != g.Columns*g.Rows {
		t.Fatalf("labelsPerSheet %d != columns*rows %d", g.LabelsPerSheet, g.Columns*g.Rows)
	}
}

func TestGridCatalogCountWins(t *testing.T) {
	tpl := avery5160()
	// Manufacturer-declared count disagrees with the formula on purpose;
	// the declared value is authoritative.
	tpl.LabelsPerSheet = 33
	g := Grid(tpl)
	if g.LabelsPerSheet != 33 {
		t.Fatalf("catalog labelsPerSheet: got %d want 33", g.LabelsPerSheet)
	}
}

func TestGridClampsOversizedLabel(t *testing.T) {
	g := Grid(Template{
		PageWidthMM:   210,
		PageHeightMM:  297,
		LabelWidthMM:  400,
		LabelHeightMM: 500,
	})
	if g.Columns != 1 || g.Rows != 1 || g.LabelsPerSheet != 1 {
		t.Fatalf("oversized label should clamp to 1x1, got %dx%d (%d)", g.Columns, g.Rows, g.LabelsPerSheet)
	}
}

func TestAbsoluteIndexBijection(t *testing.T) {
	for _, per := range []int{1, 7, 30, 33} {
		for abs := 0; abs < 4*per; abs++ {
			page, idx := FromAbsolute(abs, per)
			if idx < 0 || idx >= per {
				t.Fatalf("per=%d abs=%d: indexOnPage %d out of range", per, abs, idx)
			}
			if back := ToAbsolute(page, idx, per); back != abs {
				t.Fatalf("per=%d: toAbsolute(fromAbsolute(%d)) == %d", per, abs, back)
			}
		}
	}
}

func TestPositionIsRowMajor(t *testing.T) {
	g := Grid(avery5160()) // 3x10

	p0 := PositionOnPage(0, g)
	if math.Abs(p0.XMM-g.MarginLeftMM) > 1e-9 || math.Abs(p0.YMM-g.MarginTopMM) > 1e-9 {
		t.Fatalf("index 0 should sit at the top-left margin, got (%g, %g)", p0.XMM, p0.YMM)
	}

	// Index 3 wraps to the second row, first column.
	p3 := PositionOnPage(3, g)
	wantY := g.MarginTopMM + g.LabelHeightMM + g.GapYMM
	if math.Abs(p3.XMM-g.MarginLeftMM) > 1e-9 || math.Abs(p3.YMM-wantY) > 1e-9 {
		t.Fatalf("index 3: got (%g, %g) want (%g, %g)", p3.XMM, p3.YMM, g.MarginLeftMM, wantY)
	}

	// Index 1 advances one column to the right.
	p1 := PositionOnPage(1, g)
	wantX := g.MarginLeftMM + g.LabelWidthMM + g.GapXMM
	if math.Abs(p1.XMM-wantX) > 1e-9 || math.Abs(p1.YMM-g.MarginTopMM) > 1e-9 {
		t.Fatalf("index 1: got (%g, %g) want (%g, %g)", p1.XMM, p1.YMM, wantX, g.MarginTopMM)
	}
}

func TestPositionCrossesPages(t *testing.T) {
	g := Grid(avery5160()) // 30 per sheet
	p := Position(31, g)
	if p.PageIndex != 1 || p.IndexOnPage != 1 {
		t.Fatalf("absolute 31: got page %d idx %d, want page 1 idx 1", p.PageIndex, p.IndexOnPage)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ n, per, want int }{
		{0, 30, 0},
		{1, 30, 1},
		{30, 30, 1},
		{31, 30, 2},
		{65, 30, 3},
	}
	for _, c := range cases {
		if got := TotalPages(c.n, c.per); got != c.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", c.n, c.per, got, c.want)
		}
	}
}
