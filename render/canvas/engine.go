// Package canvasengine renders records to single-page PDFs via
// github.com/tdewolff/canvas. It also implements layout.TextMeasurer, so
// overset detection measures with the same faces that render.
package canvasengine

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/hlpan/vellum/binding"
	"github.com/hlpan/vellum/fonts"
	"github.com/hlpan/vellum/layout"
	"github.com/hlpan/vellum/render"
)

// Engine draws resolved field geometry onto canvas pages. Font families are
// parsed once per weight and cached for the life of the engine.
type Engine struct {
	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily
}

var (
	_ render.Engine       = (*Engine)(nil)
	_ layout.TextMeasurer = (*Engine)(nil)
)

func New() *Engine {
	return &Engine{families: map[string]*canvas.FontFamily{}}
}

// RenderRecord draws one record as a single-page PDF buffer. Field
// coordinates are top-left-origin mm, matching the layout executor.
func (e *Engine) RenderRecord(rec binding.Record, m binding.Mapping, fields []layout.FieldLayout, page render.PageSpec) ([]byte, error) {
	if page.WidthMM <= 0 || page.HeightMM <= 0 {
		return nil, fmt.Errorf("render: page size %gx%gmm", page.WidthMM, page.HeightMM)
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, page.WidthMM, page.HeightMM, nil)

	c := canvas.New(page.WidthMM, page.HeightMM)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	for _, fl := range fields {
		text := fieldText(rec, m, fl)
		if text == "" {
			continue
		}
		if err := e.drawField(ctx, fl, text); err != nil {
			return nil, err
		}
	}

	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("render: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fieldText resolves the record text for a field, joining combined fields
// with newlines for address-block layouts.
func fieldText(rec binding.Record, m binding.Mapping, fl layout.FieldLayout) string {
	if len(fl.CombinedFields) > 0 {
		var lines []string
		for _, f := range fl.CombinedFields {
			if v, ok := binding.Resolve(rec, m, f); ok && v != "" {
				lines = append(lines, v)
			}
		}
		return strings.Join(lines, "\n")
	}
	v, _ := binding.Resolve(rec, m, fl.Field)
	return v
}

func (e *Engine) drawField(ctx *canvas.Context, fl layout.FieldLayout, text string) error {
	size := fl.FontSizePt
	face, err := e.face(fl.Weight, size)
	if err != nil {
		return err
	}

	lines := wrapGreedy(text, fl.WidthMM, face)
	if fl.Fit == layout.FitShrink {
		// Walk the size down until the wrapped block fits the box.
		for size > 4 {
			if blockFits(lines, face, fl) {
				break
			}
			size -= 0.5
			if face, err = e.face(fl.Weight, size); err != nil {
				return err
			}
			lines = wrapGreedy(text, fl.WidthMM, face)
		}
	}

	metrics := face.Metrics()
	lineH := metrics.LineHeight
	totalH := float64(len(lines)) * lineH

	y := fl.YMM
	switch fl.VAlign {
	case layout.VAlignMiddle:
		y += (fl.HeightMM - totalH) / 2
	case layout.VAlignBottom:
		y += fl.HeightMM - totalH
	}
	if y < fl.YMM {
		y = fl.YMM
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch fl.Align {
	case layout.AlignCenter:
		textAlign = canvas.Center
		anchorX = fl.XMM + fl.WidthMM/2
	case layout.AlignRight:
		textAlign = canvas.Right
		anchorX = fl.XMM + fl.WidthMM
	default:
		textAlign = canvas.Left
		anchorX = fl.XMM
	}

	for _, line := range lines {
		if line != "" {
			tl := canvas.NewTextLine(face, line, textAlign)
			ctx.DrawText(anchorX, y+metrics.Ascent, tl)
		}
		y += lineH
	}
	return nil
}

func blockFits(lines []string, face *canvas.FontFace, fl layout.FieldLayout) bool {
	if float64(len(lines))*face.Metrics().LineHeight > fl.HeightMM {
		return false
	}
	for _, line := range lines {
		if face.TextWidth(line) > fl.WidthMM {
			return false
		}
	}
	return true
}

// MeasureText implements layout.TextMeasurer: the wrapped extent in mm of
// text set at fontSizePt within maxWidthMM.
func (e *Engine) MeasureText(text string, fontSizePt, maxWidthMM float64, weight string) (float64, float64, error) {
	face, err := e.face(weight, fontSizePt)
	if err != nil {
		return 0, 0, err
	}
	lines := wrapGreedy(text, maxWidthMM, face)
	w := 0.0
	for _, line := range lines {
		if lw := face.TextWidth(line); lw > w {
			w = lw
		}
	}
	h := float64(len(lines)) * face.Metrics().LineHeight
	return w, h, nil
}

func (e *Engine) face(weight string, sizePt float64) (*canvas.FontFace, error) {
	family, err := e.family(weight)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, canvas.Black, canvas.FontRegular, canvas.FontNormal), nil
}

func (e *Engine) family(weight string) (*canvas.FontFamily, error) {
	key := fonts.Normalize(weight)
	e.fontMu.Lock()
	defer e.fontMu.Unlock()
	if fam, ok := e.families[key]; ok {
		return fam, nil
	}
	fam := canvas.NewFontFamily("vellum-" + key)
	if err := fam.LoadFont(fonts.Load(key), 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("render: load font %s: %w", key, err)
	}
	e.families[key] = fam
	return fam, nil
}

// wrapGreedy splits text into lines no wider than limit mm, breaking at
// whitespace first and inside a word only when the word alone exceeds the
// limit. Explicit newlines always break.
func wrapGreedy(text string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []string
	var builder strings.Builder
	width := 0.0

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, "")
			}
			return
		}
		lines = append(lines, strings.TrimRight(builder.String(), " \t"))
		builder.Reset()
		width = 0
	}
	push := func(tok string) {
		builder.WriteString(tok)
		width += face.TextWidth(tok)
	}

	for _, tok := range tokenize(text) {
		if tok == "\n" {
			emit(true)
			continue
		}
		tw := face.TextWidth(tok)
		if width > 0 && width+tw > limit {
			emit(false)
		}
		if tw <= limit {
			push(tok)
			continue
		}
		for _, chunk := range splitByWidth(tok, limit, face) {
			if width > 0 && width+face.TextWidth(chunk) > limit {
				emit(false)
			}
			push(chunk)
		}
	}
	emit(false)

	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// tokenize splits into runs of spaces, runs of non-spaces, and newlines.
func tokenize(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastSpace := false
	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, builder.String())
			builder.Reset()
		}
	}
	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastSpace = isSpace
		} else if lastSpace != isSpace {
			flush()
			lastSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(token string, limit float64, face *canvas.FontFace) []string {
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
