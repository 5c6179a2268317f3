package layout

import (
	"testing"

	"github.com/hlpan/vellum/binding"
)

// ruleMeasurer sizes text proportionally to rune count and font size, enough
// to exercise the detector without a shaping engine.
type ruleMeasurer struct {
	calls int
}

func (m *ruleMeasurer) MeasureText(text string, fontSizePt, maxWidthMM float64, weight string) (float64, float64, error) {
	m.calls++
	w := float64(len([]rune(text))) * fontSizePt * 0.2
	h := fontSizePt * 0.45
	if maxWidthMM > 0 && w > maxWidthMM {
		lines := int(w/maxWidthMM) + 1
		w = maxWidthMM
		h *= float64(lines)
	}
	return w, h, nil
}

func addressField() FieldLayout {
	return FieldLayout{Field: "ADDRESS", WidthMM: 40, HeightMM: 8, FontSizePt: 12}
}

func TestDetectorFlagsOverflow(t *testing.T) {
	m := &ruleMeasurer{}
	d := NewDetector(m, []FieldLayout{addressField()}, 6)
	d.SetData([]binding.Record{
		{"ADDRESS": "1 Elm"},
		{"ADDRESS": "12345 Extremely Long Boulevard Name, Apartment 77B"},
	}, nil)

	over, err := d.Overset()
	if err != nil {
		t.Fatalf("overset: %v", err)
	}
	if len(over) != 1 {
		t.Fatalf("got %d overset records, want 1: %+v", len(over), over)
	}
	o := over[0]
	if o.RecordIndex != 1 || o.Field != "ADDRESS" {
		t.Fatalf("wrong record flagged: %+v", o)
	}
	if o.OverflowPct <= 0 {
		t.Fatalf("overflow pct must be positive, got %g", o.OverflowPct)
	}
	if o.SuggestedFontPt >= o.CurrentFontPt {
		t.Fatalf("suggested size %g must shrink below current %g", o.SuggestedFontPt, o.CurrentFontPt)
	}
	if o.SuggestedFontPt < 6 {
		t.Fatalf("suggested size %g below detector minimum", o.SuggestedFontPt)
	}
}

func TestDetectorSkipsEmptyValues(t *testing.T) {
	m := &ruleMeasurer{}
	d := NewDetector(m, []FieldLayout{addressField()}, 6)
	d.SetData([]binding.Record{{"ADDRESS": ""}, {}}, nil)

	over, err := d.Overset()
	if err != nil {
		t.Fatalf("overset: %v", err)
	}
	if len(over) != 0 {
		t.Fatalf("empty values must not be measured: %+v", over)
	}
	if m.calls != 0 {
		t.Fatalf("measurer called %d times for empty values", m.calls)
	}
}

func TestDetectorCachesUntilInvalidated(t *testing.T) {
	m := &ruleMeasurer{}
	d := NewDetector(m, []FieldLayout{addressField()}, 6)
	d.SetData([]binding.Record{{"ADDRESS": "1 Elm"}}, nil)

	if _, err := d.Overset(); err != nil {
		t.Fatalf("overset: %v", err)
	}
	calls := m.calls
	if _, err := d.Overset(); err != nil {
		t.Fatalf("overset: %v", err)
	}
	if m.calls != calls {
		t.Fatalf("second call should hit the cache, measured %d more times", m.calls-calls)
	}

	d.Invalidate()
	if _, err := d.Overset(); err != nil {
		t.Fatalf("overset: %v", err)
	}
	if m.calls == calls {
		t.Fatal("invalidation should force remeasurement")
	}
}
