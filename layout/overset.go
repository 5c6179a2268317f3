package layout

import (
	"sync"

	"github.com/hlpan/vellum/binding"
)

// TextMeasurer is the precise measurement collaborator. Implementations
// shape real glyphs; the executor's character-count estimate never does.
type TextMeasurer interface {
	// MeasureText returns the rendered extent in mm of text set at
	// fontSizePt, wrapping at maxWidthMM.
	MeasureText(text string, fontSizePt float64, maxWidthMM float64, weight string) (widthMM, heightMM float64, err error)
}

// OversetRecord flags one (record, field) pair whose real text no longer
// fits the geometry computed from the sample row.
type OversetRecord struct {
	RecordIndex     int     `json:"recordIndex"`
	Field           string  `json:"field"`
	OverflowPct     float64 `json:"overflowPct"`
	CurrentFontPt   float64 `json:"currentFontSize"`
	SuggestedFontPt float64 `json:"suggestedFontSize"`
}

// Detector validates real record text against fixed field geometry. Results
// are computed on first request and cached; callers invalidate when records
// or the mapping change. Checking every record eagerly on each data edit
// would stall large batches.
type Detector struct {
	measurer TextMeasurer
	fields   []FieldLayout
	minPt    float64

	mu      sync.Mutex
	records []binding.Record
	mapping binding.Mapping
	cached  []OversetRecord
	valid   bool
}

// NewDetector builds a detector over the executed geometry. minPt bounds
// the shrink search for suggested sizes.
func NewDetector(measurer TextMeasurer, fields []FieldLayout, minPt float64) *Detector {
	if minPt <= 0 {
		minPt = 4
	}
	return &Detector{measurer: measurer, fields: fields, minPt: minPt}
}

// SetData replaces the record set and mapping, invalidating cached results.
func (d *Detector) SetData(records []binding.Record, m binding.Mapping) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = records
	d.mapping = m
	d.valid = false
}

// Invalidate drops cached results without touching the data.
func (d *Detector) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.valid = false
}

// Overset returns all overflowing (record, field) pairs, computing them on
// first call after a data change.
func (d *Detector) Overset() ([]OversetRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.valid {
		return d.cached, nil
	}

	var out []OversetRecord
	for i, rec := range d.records {
		for _, fl := range d.fields {
			text, ok := binding.Resolve(rec, d.mapping, fl.Field)
			if !ok || text == "" {
				continue
			}
			osr, overset, err := d.checkField(i, fl, text)
			if err != nil {
				return nil, err
			}
			if overset {
				out = append(out, osr)
			}
		}
	}

	d.cached = out
	d.valid = true
	return out, nil
}

func (d *Detector) checkField(recordIdx int, fl FieldLayout, text string) (OversetRecord, bool, error) {
	w, h, err := d.measurer.MeasureText(text, fl.FontSizePt, fl.WidthMM, fl.Weight)
	if err != nil {
		return OversetRecord{}, false, err
	}
	overW, overH := 0.0, 0.0
	if fl.WidthMM > 0 && w > fl.WidthMM {
		overW = (w - fl.WidthMM) / fl.WidthMM
	}
	if fl.HeightMM > 0 && h > fl.HeightMM {
		overH = (h - fl.HeightMM) / fl.HeightMM
	}
	if overW == 0 && overH == 0 {
		return OversetRecord{}, false, nil
	}

	pct := overW
	if overH > pct {
		pct = overH
	}

	suggested, err := d.shrinkToFit(fl, text)
	if err != nil {
		return OversetRecord{}, false, err
	}
	return OversetRecord{
		RecordIndex:     recordIdx,
		Field:           fl.Field,
		OverflowPct:     pct * 100,
		CurrentFontPt:   fl.FontSizePt,
		SuggestedFontPt: suggested,
	}, true, nil
}

// shrinkToFit walks the size down in half-point steps until the measured
// extent fits the box, bottoming out at the detector's minimum.
func (d *Detector) shrinkToFit(fl FieldLayout, text string) (float64, error) {
	for size := fl.FontSizePt - 0.5; size >= d.minPt; size -= 0.5 {
		w, h, err := d.measurer.MeasureText(text, size, fl.WidthMM, fl.Weight)
		if err != nil {
			return 0, err
		}
		if w <= fl.WidthMM && h <= fl.HeightMM {
			return size, nil
		}
	}
	return d.minPt, nil
}
