package compose

import (
	"fmt"
	"strings"
)

const hairlineWidth = 0.25 // pt

// kappa approximates a quarter circle with one cubic Bézier.
const kappa = 0.5523

// MarkConfig describes the printer's marks for full-page output. All
// lengths are mm; zero values disable the corresponding mark.
type MarkConfig struct {
	BleedMM      float64
	CropOffsetMM float64
	CropLengthMM float64
	MarginMM     float64
	Registration bool
}

// Enabled reports whether the page needs any padding or marks at all.
func (m MarkConfig) Enabled() bool {
	return m.BleedMM > 0 || m.CropLengthMM > 0 || m.MarginMM > 0 || m.Registration
}

// PrintBoxSet is the resolved page-box geometry in points for one output
// page: the enlarged media box plus centered trim and bleed boxes.
type PrintBoxSet struct {
	MediaWidthPt  float64
	MediaHeightPt float64

	TrimLLX, TrimLLY, TrimURX, TrimURY     float64
	BleedLLX, BleedLLY, BleedURX, BleedURY float64

	// PadPt is the uniform offset from media edge to trim edge.
	PadPt float64

	cfg MarkConfig
}

// Boxes derives the page-box set for a trim size. The media box grows by
// bleed plus the crop-mark envelope on every side:
//
//	media = trim + 2*bleed + 2*(cropOffset + cropLength + margin)
func (m MarkConfig) Boxes(trimWidthPt, trimHeightPt float64) PrintBoxSet {
	bleed := m.BleedMM * mmToPt
	envelope := (m.CropOffsetMM + m.CropLengthMM + m.MarginMM) * mmToPt
	pad := bleed + envelope

	b := PrintBoxSet{
		MediaWidthPt:  trimWidthPt + 2*pad,
		MediaHeightPt: trimHeightPt + 2*pad,
		PadPt:         pad,
		cfg:           m,
	}
	b.TrimLLX, b.TrimLLY = pad, pad
	b.TrimURX, b.TrimURY = pad+trimWidthPt, pad+trimHeightPt
	b.BleedLLX, b.BleedLLY = pad-bleed, pad-bleed
	b.BleedURX, b.BleedURY = b.TrimURX+bleed, b.TrimURY+bleed
	return b
}

// MarksContent renders the crop and registration marks as a PDF content
// fragment. Marks stroke in 100% K so they separate onto every plate.
func (b PrintBoxSet) MarksContent() []byte {
	var sb strings.Builder
	sb.WriteString("q 0 0 0 1 K ")
	fmt.Fprintf(&sb, "%.2f w ", hairlineWidth)

	if b.cfg.CropLengthMM > 0 {
		off := b.cfg.CropOffsetMM * mmToPt
		length := b.cfg.CropLengthMM * mmToPt
		corners := [][2]float64{
			{b.TrimLLX, b.TrimLLY},
			{b.TrimURX, b.TrimLLY},
			{b.TrimLLX, b.TrimURY},
			{b.TrimURX, b.TrimURY},
		}
		for _, c := range corners {
			x, y := c[0], c[1]
			// Horizontal leg points away from the trim area.
			dirX := 1.0
			if x == b.TrimLLX {
				dirX = -1.0
			}
			dirY := 1.0
			if y == b.TrimLLY {
				dirY = -1.0
			}
			line(&sb, x+dirX*off, y, x+dirX*(off+length), y)
			line(&sb, x, y+dirY*off, x, y+dirY*(off+length))
		}
	}

	if b.cfg.Registration {
		zone := b.PadPt - b.cfg.BleedMM*mmToPt
		r := zone * 0.3
		if r > 0 {
			cx, cy := b.MediaWidthPt/2, b.MediaHeightPt/2
			centers := [][2]float64{
				{cx, b.BleedLLY - zone/2},
				{cx, b.BleedURY + zone/2},
				{b.BleedLLX - zone/2, cy},
				{b.BleedURX + zone/2, cy},
			}
			for _, c := range centers {
				registrationMark(&sb, c[0], c[1], r)
			}
		}
	}

	sb.WriteString("Q")
	return []byte(sb.String())
}

func line(sb *strings.Builder, x1, y1, x2, y2 float64) {
	fmt.Fprintf(sb, "%.3f %.3f m %.3f %.3f l S ", x1, y1, x2, y2)
}

// registrationMark draws a crosshair through a circle of radius 0.6r.
func registrationMark(sb *strings.Builder, cx, cy, r float64) {
	line(sb, cx-r, cy, cx+r, cy)
	line(sb, cx, cy-r, cx, cy+r)

	cr := r * 0.6
	k := cr * kappa
	fmt.Fprintf(sb, "%.3f %.3f m ", cx+cr, cy)
	fmt.Fprintf(sb, "%.3f %.3f %.3f %.3f %.3f %.3f c ", cx+cr, cy+k, cx+k, cy+cr, cx, cy+cr)
	fmt.Fprintf(sb, "%.3f %.3f %.3f %.3f %.3f %.3f c ", cx-k, cy+cr, cx-cr, cy+k, cx-cr, cy)
	fmt.Fprintf(sb, "%.3f %.3f %.3f %.3f %.3f %.3f c ", cx-cr, cy-k, cx-k, cy-cr, cx, cy-cr)
	fmt.Fprintf(sb, "%.3f %.3f %.3f %.3f %.3f %.3f c S ", cx+k, cy-cr, cx+cr, cy-k, cx+cr, cy)
}
