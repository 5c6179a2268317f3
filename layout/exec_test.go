package layout

import (
	"math"
	"reflect"
	"testing"

	"github.com/hlpan/vellum/binding"
	"github.com/hlpan/vellum/intent"
)

func testConfig() LayoutConfig {
	return LayoutConfig{
		WidthMM:   62,
		HeightMM:  20,
		PaddingMM: 0,
		GutterMM:  1,
		MinFontPt: 6,
		MaxFontPt: 72,
	}
}

func TestSingleDominantAddress(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{{
			Name:               "body",
			Fields:             []string{"ADDRESS"},
			Mode:               intent.ModeSingleDominant,
			VerticalAllocation: 1.0,
		}},
	}
	sample := binding.Record{"ADDRESS": "123 Main St, Springfield"}
	cfg := testConfig()

	res, err := Execute(di, cfg, sample, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 1 {
		t.Fatalf("fields: got %d want 1", len(res.Fields))
	}
	fl := res.Fields[0]
	if fl.Align != AlignCenter || fl.VAlign != VAlignMiddle {
		t.Fatalf("dominant field should center both axes: %+v", fl)
	}
	if fl.FontSizePt < cfg.MinFontPt || fl.FontSizePt > cfg.MaxFontPt {
		t.Fatalf("font size %g outside [%g, %g]", fl.FontSizePt, cfg.MinFontPt, cfg.MaxFontPt)
	}
	if fl.WidthMM != 62 || fl.HeightMM != 20 {
		t.Fatalf("dominant field should fill the region: %+v", fl)
	}
}

func TestFontFitFormulaExact(t *testing.T) {
	// Single line, 24 runes, 62x20mm, medium importance. Worked by hand:
	// byHeight = (20*0.75)/(1*1.35)*2.83465 = 31.4961...
	// byWidth  = (62*2.83465*0.75)/(24*0.55) = 9.98544...
	// min * 0.9 = 8.9869 -> rounds to 9.
	cfg := testConfig()
	got := fontFitSize("123 Main St, Springfield", 62, 20, intent.ImportanceMedium, cfg)
	if got != 9 {
		t.Fatalf("fontFitSize = %g, want 9", got)
	}
}

func TestFontFitDeterministic(t *testing.T) {
	cfg := testConfig()
	a := fontFitSize("Acme Corporation", 50, 12, intent.ImportanceHigh, cfg)
	for i := 0; i < 100; i++ {
		if b := fontFitSize("Acme Corporation", 50, 12, intent.ImportanceHigh, cfg); b != a {
			t.Fatalf("size changed between runs: %g then %g", a, b)
		}
	}
	if a != math.Trunc(a) {
		t.Fatalf("size must be a whole point, got %g", a)
	}
}

func TestFontFitMultilineFloor(t *testing.T) {
	cfg := testConfig()
	cfg.MinFontPt = 6
	// Four short lines in a shallow box would estimate below 10pt; the
	// floor rises to 10 for four or more lines.
	got := fontFitSize("a\nb\nc\nd", 40, 8, intent.ImportanceLow, cfg)
	if got < 10 {
		t.Fatalf("four-line text must not size below 10pt, got %g", got)
	}
}

func TestRegionSemanticOrder(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{
			{Name: "footer", Fields: []string{"F"}, Mode: intent.ModeStacked, VerticalAllocation: 0.2},
			{Name: "body", Fields: []string{"B"}, Mode: intent.ModeStacked, VerticalAllocation: 0.5},
			{Name: "header", Fields: []string{"H"}, Mode: intent.ModeStacked, VerticalAllocation: 0.3},
		},
	}
	res, err := Execute(di, testConfig(), binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var order []string
	for _, f := range res.Fields {
		order = append(order, f.Field)
	}
	if !reflect.DeepEqual(order, []string{"H", "B", "F"}) {
		t.Fatalf("region order: got %v", order)
	}
	// Header occupies the top slice.
	if res.Fields[0].YMM >= res.Fields[1].YMM || res.Fields[1].YMM >= res.Fields[2].YMM {
		t.Fatalf("regions must stack top-down: %+v", res.Fields)
	}
}

func TestUnknownRegionsSortLastStably(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{
			{Name: "extra2", Fields: []string{"X2"}, Mode: intent.ModeStacked, VerticalAllocation: 0.2},
			{Name: "extra1", Fields: []string{"X1"}, Mode: intent.ModeStacked, VerticalAllocation: 0.2},
			{Name: "header", Fields: []string{"H"}, Mode: intent.ModeStacked, VerticalAllocation: 0.6},
		},
	}
	res, err := Execute(di, testConfig(), binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var order []string
	for _, f := range res.Fields {
		order = append(order, f.Field)
	}
	// Declaration order is preserved among unrecognized names.
	if !reflect.DeepEqual(order, []string{"H", "X2", "X1"}) {
		t.Fatalf("order: got %v", order)
	}
}

func TestUnknownModeFallsBackToStacked(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{{
			Name:               "body",
			Fields:             []string{"A", "B"},
			Mode:               intent.LayoutMode("spiral"),
			VerticalAllocation: 1.0,
		}},
	}
	res, err := Execute(di, testConfig(), binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 2 {
		t.Fatalf("stacked fallback should place both fields, got %d", len(res.Fields))
	}
	if res.Fields[0].YMM >= res.Fields[1].YMM {
		t.Fatalf("stacked fields must descend: %+v", res.Fields)
	}
}

func TestEmptyRegionProducesNothing(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{
			{Name: "header", Mode: intent.ModeStacked, VerticalAllocation: 0.5},
			{Name: "body", Fields: []string{"A"}, Mode: intent.ModeStacked, VerticalAllocation: 0.5},
		},
	}
	res, err := Execute(di, testConfig(), binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 1 || res.Fields[0].Field != "A" {
		t.Fatalf("empty region must be silent: %+v", res.Fields)
	}
	// The empty region still consumes its slice above the body.
	if res.Fields[0].YMM <= 0 {
		t.Fatalf("body should start below the header slice, y=%g", res.Fields[0].YMM)
	}
}

func TestThreeColumnAlignment(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{{
			Name:               "body",
			Fields:             []string{"A", "B", "C", "D"},
			Mode:               intent.ModeThreeColumn,
			VerticalAllocation: 1.0,
		}},
	}
	res, err := Execute(di, testConfig(), binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 3 {
		t.Fatalf("three-column caps at 3 fields, got %d", len(res.Fields))
	}
	wantAligns := []Align{AlignLeft, AlignCenter, AlignRight}
	for i, f := range res.Fields {
		if f.Align != wantAligns[i] {
			t.Fatalf("column %d align: got %q want %q", i, f.Align, wantAligns[i])
		}
	}
	if res.Fields[0].XMM >= res.Fields[1].XMM || res.Fields[1].XMM >= res.Fields[2].XMM {
		t.Fatalf("columns must advance rightward: %+v", res.Fields)
	}
}

func TestTwoColumnSplit(t *testing.T) {
	cfg := testConfig()
	di := &intent.DesignIntent{
		Regions: []intent.Region{{
			Name:               "body",
			Fields:             []string{"A", "B"},
			Mode:               intent.ModeTwoColumn,
			VerticalAllocation: 1.0,
		}},
	}
	res, err := Execute(di, cfg, binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 2 {
		t.Fatalf("got %d fields", len(res.Fields))
	}
	wantW := (cfg.WidthMM - cfg.GutterMM) / 2
	for _, f := range res.Fields {
		if math.Abs(f.WidthMM-wantW) > 1e-9 {
			t.Fatalf("column width: got %g want %g", f.WidthMM, wantW)
		}
	}
}

func TestStackedInlineCombinesAndFilters(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{{
			Name:               "body",
			Fields:             []string{"ADDRESS", "__col_2", "CITY", "ZIP"},
			Mode:               intent.ModeStackedInline,
			VerticalAllocation: 1.0,
		}},
	}
	sample := binding.Record{"ADDRESS": "123 Main St", "CITY": "Springfield", "ZIP": "49007"}
	res, err := Execute(di, testConfig(), sample, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 1 {
		t.Fatalf("stacked-inline yields one block, got %d", len(res.Fields))
	}
	fl := res.Fields[0]
	if !reflect.DeepEqual(fl.CombinedFields, []string{"ADDRESS", "CITY", "ZIP"}) {
		t.Fatalf("synthetic fields must be filtered: %v", fl.CombinedFields)
	}
	if fl.Align != AlignLeft {
		t.Fatalf("address blocks align left, got %q", fl.Align)
	}
}

func TestOverAllocatedRegionsRescale(t *testing.T) {
	cfg := testConfig() // 62x20mm, no padding
	di := &intent.DesignIntent{
		Regions: []intent.Region{
			{Name: "header", Fields: []string{"A"}, Mode: intent.ModeStacked, VerticalAllocation: 0.8},
			{Name: "body", Fields: []string{"B"}, Mode: intent.ModeStacked, VerticalAllocation: 0.8},
		},
	}
	res, err := Execute(di, cfg, binding.Record{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Fields) != 2 {
		t.Fatalf("fields: got %d want 2", len(res.Fields))
	}
	// 0.8+0.8 rescales to 0.5+0.5; nothing may extend past the box.
	for _, f := range res.Fields {
		if bottom := f.YMM + f.HeightMM; bottom > cfg.HeightMM+1e-9 {
			t.Fatalf("field %s ends at %gmm in a %gmm box", f.Field, bottom, cfg.HeightMM)
		}
		if math.Abs(f.HeightMM-10) > 1e-9 {
			t.Fatalf("field %s height %gmm, want 10 after rescale", f.Field, f.HeightMM)
		}
	}
	if math.Abs(res.Diag.ConsumedMM-cfg.HeightMM) > 1e-9 {
		t.Fatalf("consumed %gmm, want exactly the box height %gmm", res.Diag.ConsumedMM, cfg.HeightMM)
	}
	// Rescaling must not write back into the caller's intent.
	if di.Regions[0].VerticalAllocation != 0.8 {
		t.Fatalf("caller's intent was mutated: %g", di.Regions[0].VerticalAllocation)
	}
}

func TestExecuteIsPure(t *testing.T) {
	di := &intent.DesignIntent{
		Regions: []intent.Region{
			{Name: "header", Fields: []string{"NAME"}, Mode: intent.ModeSingleDominant, VerticalAllocation: 0.3},
			{Name: "body", Fields: []string{"ADDRESS", "CITY"}, Mode: intent.ModeStackedInline, VerticalAllocation: 0.7},
		},
		Typography: map[string]intent.Typography{"NAME": {Importance: intent.ImportanceHighest, Weight: "bold"}},
	}
	sample := binding.Record{"NAME": "Acme Co", "ADDRESS": "1 Elm St", "CITY": "Lyon"}

	first, err := Execute(di, testConfig(), sample, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	second, err := Execute(di, testConfig(), sample, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input must produce identical geometry")
	}
}
