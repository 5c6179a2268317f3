// Package layout turns an abstract design intent into concrete per-field
// geometry and font sizes for one template. Placement runs once per template
// against a single sample row; the result is reused for every record.
package layout

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/hlpan/vellum/binding"
	"github.com/hlpan/vellum/intent"
)

// bounds is the rectangle a strategy places fields into, in mm.
type bounds struct {
	x, y, w, h float64
}

// Execute resolves a design intent against the config and one sample record.
// Regions stack top-down in semantic order (header, body, footer, then
// everything else in declaration order), each taking its vertical allocation
// of the inner canvas. A region with no fields yields no output.
func Execute(di *intent.DesignIntent, cfg LayoutConfig, sample binding.Record, m binding.Mapping) (*Result, error) {
	if di == nil {
		return nil, errors.New("layout: nil design intent")
	}
	inner := bounds{
		x: cfg.PaddingMM,
		y: cfg.PaddingMM,
		w: cfg.WidthMM - 2*cfg.PaddingMM,
		h: cfg.HeightMM - 2*cfg.PaddingMM,
	}
	if inner.w < 0 {
		inner.w = 0
	}
	if inner.h < 0 {
		inner.h = 0
	}

	regions := orderRegions(di.Regions)
	shares := allocationShares(regions)

	res := &Result{}
	y := inner.y
	for i, r := range regions {
		rh := inner.h * shares[i]
		if len(r.Fields) == 0 || rh <= 0 {
			y += rh
			continue
		}
		rb := bounds{x: inner.x, y: y, w: inner.w, h: rh}
		res.Fields = append(res.Fields, placeRegion(r, rb, cfg, di, sample, m)...)
		y += rh
	}

	res.Diag.ConsumedMM = y - inner.y
	res.Diag.UnusedMM = inner.h - res.Diag.ConsumedMM
	if res.Diag.UnusedMM < 0 {
		res.Diag.UnusedMM = 0
	}
	return res, nil
}

// semanticRank fixes the vertical order of the well-known region names.
func semanticRank(name string) int {
	switch strings.ToLower(name) {
	case "header":
		return 0
	case "body":
		return 1
	case "footer":
		return 2
	default:
		return 3
	}
}

func orderRegions(regions []intent.Region) []intent.Region {
	out := make([]intent.Region, len(regions))
	copy(out, regions)
	sort.SliceStable(out, func(i, j int) bool {
		return semanticRank(out[i].Name) < semanticRank(out[j].Name)
	})
	return out
}

// allocationShares returns one vertical share per region. Declared
// allocations are honored; regions that declared none split the unallocated
// remainder equally. Declared shares summing past 1.0 are rescaled here,
// not just at intent ingestion, so a hand-built intent cannot place fields
// past the label edge. The caller's intent is never mutated.
func allocationShares(regions []intent.Region) []float64 {
	shares := make([]float64, len(regions))
	declared := 0.0
	unset := 0
	for i, r := range regions {
		shares[i] = r.VerticalAllocation
		declared += r.VerticalAllocation
		if r.VerticalAllocation == 0 {
			unset++
		}
	}
	if declared > 1.0 {
		for i := range shares {
			shares[i] /= declared
		}
		return shares
	}
	if unset > 0 && declared < 1.0 {
		each := (1.0 - declared) / float64(unset)
		for i := range shares {
			if shares[i] == 0 {
				shares[i] = each
			}
		}
	}
	return shares
}

func placeRegion(r intent.Region, b bounds, cfg LayoutConfig, di *intent.DesignIntent, sample binding.Record, m binding.Mapping) []FieldLayout {
	switch r.Mode {
	case intent.ModeSingleDominant:
		return placeSingleDominant(r, b, cfg, di, sample, m)
	case intent.ModeHorizontalSplit, intent.ModeTwoColumn:
		return placeColumns(r, b, cfg, di, sample, m, 2)
	case intent.ModeThreeColumn:
		return placeColumns(r, b, cfg, di, sample, m, 3)
	case intent.ModeStackedInline:
		return placeStackedInline(r, b, cfg, di, sample, m)
	case intent.ModeStacked:
		return placeStacked(r, b, cfg, di, sample, m)
	default:
		// Unknown modes degrade to stacked rather than failing the template.
		return placeStacked(r, b, cfg, di, sample, m)
	}
}

func placeSingleDominant(r intent.Region, b bounds, cfg LayoutConfig, di *intent.DesignIntent, sample binding.Record, m binding.Mapping) []FieldLayout {
	field := r.Fields[0]
	return []FieldLayout{
		fieldAt(field, b, cfg, di, sample, m, AlignCenter),
	}
}

func placeColumns(r intent.Region, b bounds, cfg LayoutConfig, di *intent.DesignIntent, sample binding.Record, m binding.Mapping, maxCols int) []FieldLayout {
	fields := r.Fields
	if len(fields) > maxCols {
		fields = fields[:maxCols]
	}
	n := len(fields)
	colW := (b.w - float64(n-1)*cfg.GutterMM) / float64(n)
	if colW < 0 {
		colW = 0
	}

	out := make([]FieldLayout, 0, n)
	for i, f := range fields {
		cb := bounds{
			x: b.x + float64(i)*(colW+cfg.GutterMM),
			y: b.y,
			w: colW,
			h: b.h,
		}
		out = append(out, fieldAt(f, cb, cfg, di, sample, m, columnAlign(i, n, maxCols)))
	}
	return out
}

// columnAlign spreads three-column text left/center/right by index; two
// columns stay centered.
func columnAlign(i, n, maxCols int) Align {
	if maxCols < 3 || n < 2 {
		return AlignCenter
	}
	switch i {
	case 0:
		return AlignLeft
	case n - 1:
		return AlignRight
	default:
		return AlignCenter
	}
}

func placeStacked(r intent.Region, b bounds, cfg LayoutConfig, di *intent.DesignIntent, sample binding.Record, m binding.Mapping) []FieldLayout {
	n := len(r.Fields)
	rowH := (b.h - float64(n-1)*cfg.GutterMM) / float64(n)
	if rowH < 0 {
		rowH = 0
	}

	out := make([]FieldLayout, 0, n)
	for i, f := range r.Fields {
		rb := bounds{
			x: b.x,
			y: b.y + float64(i)*(rowH+cfg.GutterMM),
			w: b.w,
			h: rowH,
		}
		out = append(out, fieldAt(f, rb, cfg, di, sample, m, AlignCenter))
	}
	return out
}

// placeStackedInline merges the region's data fields into one multi-line
// block, the classic address-block treatment. Synthetic column fields are
// dropped before the merge.
func placeStackedInline(r intent.Region, b bounds, cfg LayoutConfig, di *intent.DesignIntent, sample binding.Record, m binding.Mapping) []FieldLayout {
	var fields []string
	var lines []string
	for _, f := range r.Fields {
		if binding.IsSynthetic(f) {
			continue
		}
		fields = append(fields, f)
		lines = append(lines, binding.SampleText(sample, m, f))
	}
	if len(fields) == 0 {
		return nil
	}

	text := strings.Join(lines, "\n")
	ty := di.FieldTypography(fields[0])
	return []FieldLayout{{
		Field:          fields[0],
		XMM:            b.x,
		YMM:            b.y,
		WidthMM:        b.w,
		HeightMM:       b.h,
		FontSizePt:     fontFitSize(text, b.w, b.h, ty.Importance, cfg),
		Weight:         ty.Weight,
		Align:          AlignLeft,
		VAlign:         VAlignMiddle,
		Fit:            FitShrink,
		CombinedFields: fields,
	}}
}

func fieldAt(field string, b bounds, cfg LayoutConfig, di *intent.DesignIntent, sample binding.Record, m binding.Mapping, align Align) FieldLayout {
	ty := di.FieldTypography(field)
	text := binding.SampleText(sample, m, field)
	return FieldLayout{
		Field:      field,
		XMM:        b.x,
		YMM:        b.y,
		WidthMM:    b.w,
		HeightMM:   b.h,
		FontSizePt: fontFitSize(text, b.w, b.h, ty.Importance, cfg),
		Weight:     ty.Weight,
		Align:      align,
		VAlign:     VAlignMiddle,
		Fit:        FitShrink,
	}
}

// fontFitSize is the closed-form estimate: height- and width-constrained
// candidate sizes from line count and longest line, scaled by importance,
// clamped and rounded to a whole point. Purely arithmetic, no glyph
// metrics; the overset detector does the precise check later.
func fontFitSize(text string, widthMM, heightMM float64, imp intent.Importance, cfg LayoutConfig) float64 {
	lines := strings.Split(text, "\n")
	lineCount := len(lines)
	if lineCount < 1 {
		lineCount = 1
	}
	longest := 1
	for _, ln := range lines {
		if n := len([]rune(ln)); n > longest {
			longest = n
		}
	}

	byHeight := (heightMM * FillFactor) / (float64(lineCount) * LineHeightFactor) * PtPerMm
	byWidth := (widthMM * PtPerMm * FillFactor) / (float64(longest) * CharWidthFactor)

	size := math.Min(byHeight, byWidth) * imp.Factor()

	minPt := cfg.MinFontPt
	if lineCount >= 4 && minPt < 10 {
		// Dense multi-line blocks get a higher floor to stay legible.
		minPt = 10
	}
	if size < minPt {
		size = minPt
	}
	if cfg.MaxFontPt > 0 && size > cfg.MaxFontPt {
		size = cfg.MaxFontPt
	}
	return math.Round(size)
}
