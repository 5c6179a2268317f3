package layout

// Sizing constants for the closed-form font-fit estimate. These are part of
// the output contract: changing any of them changes every fitted size in
// templates already shipped to customers.
const (
	// PtPerMm converts millimeters to points for the fit estimate.
	PtPerMm = 2.83465

	// LineHeightFactor is the assumed line box height relative to font size.
	LineHeightFactor = 1.35

	// FillFactor keeps the fitted text off the box edges; text never claims
	// the full box.
	FillFactor = 0.75

	// CharWidthFactor is the assumed average glyph advance relative to font
	// size. A character-count estimate, not glyph measurement.
	CharWidthFactor = 0.55
)

// MmToPt converts a length in millimeters to points at the estimate scale.
func MmToPt(mm float64) float64 { return mm * PtPerMm }
