package layout

// Align is the horizontal alignment of text inside its box.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// VAlign is the vertical alignment of text inside its box.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// Fit describes how the renderer should treat text that exceeds the box.
type Fit string

const (
	// FitShrink lets the renderer reduce the size further at render time.
	FitShrink Fit = "shrink"
	// FitClip keeps the computed size and clips overset text.
	FitClip Fit = "clip"
)

// LayoutConfig bounds the executor: the label's inner canvas and the legal
// font size range. All lengths are millimeters, font sizes points.
type LayoutConfig struct {
	WidthMM   float64
	HeightMM  float64
	PaddingMM float64
	GutterMM  float64

	MinFontPt float64
	MaxFontPt float64
}

// DefaultConfig returns executor bounds suitable for common address stock.
func DefaultConfig(widthMM, heightMM float64) LayoutConfig {
	return LayoutConfig{
		WidthMM:   widthMM,
		HeightMM:  heightMM,
		PaddingMM: 1.5,
		GutterMM:  1.0,
		MinFontPt: 6,
		MaxFontPt: 72,
	}
}

// FieldLayout is the resolved geometry for one template field. It is
// computed once per template from a single sample row and reused unchanged
// for every record in the batch.
type FieldLayout struct {
	Field string `json:"field"`

	XMM      float64 `json:"x"`
	YMM      float64 `json:"y"`
	WidthMM  float64 `json:"width"`
	HeightMM float64 `json:"height"`

	FontSizePt float64 `json:"fontSize"`
	Weight     string  `json:"weight,omitempty"`

	Align  Align  `json:"align"`
	VAlign VAlign `json:"valign"`
	Fit    Fit    `json:"fit"`

	// CombinedFields lists the source fields merged into one multi-line
	// block by the stacked-inline mode.
	CombinedFields []string `json:"combinedFields,omitempty"`
}

// Diag carries display-only metadata about an executed layout. Never used
// for correctness decisions.
type Diag struct {
	ConsumedMM float64 `json:"consumedMm"`
	UnusedMM   float64 `json:"unusedMm"`
}

// Result is the executor output: field geometry plus diagnostics.
type Result struct {
	Fields []FieldLayout `json:"fields"`
	Diag   Diag          `json:"diag"`
}
