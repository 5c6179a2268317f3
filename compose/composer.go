package compose

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/hlpan/vellum/sheet"
)

// defaultChunk bounds how many buffers one merge pass holds resident.
const defaultChunk = 25

var (
	// ErrNoPages means no usable input buffer survived validation.
	ErrNoPages = errors.New("compose: no pages to compose")
)

// Composer owns the output document for the duration of one job. It is not
// safe for concurrent use; the orchestrator runs it sequentially by design.
type Composer struct {
	log *zap.Logger

	// ChunkSize overrides the merge chunk size; zero means defaultChunk.
	ChunkSize int
}

func New(log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{log: log}
}

// FullPage appends each buffer as one finished output page, in input order.
// Nil buffers (skipped records) are dropped. When marks are enabled every
// page is padded and receives bleed/trim boxes and crop marks. Returns the
// document and its page count; the count is authoritative for quota use.
func (c *Composer) FullPage(buffers [][]byte, marks MarkConfig) ([]byte, int, error) {
	present := make([][]byte, 0, len(buffers))
	for _, b := range buffers {
		if len(b) > 0 {
			present = append(present, b)
		}
	}
	if len(present) == 0 {
		return nil, 0, ErrNoPages
	}

	merged, err := c.mergeChunked(present)
	if err != nil {
		return nil, 0, fmt.Errorf("compose: merge: %w", err)
	}

	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(merged), model.NewDefaultConfiguration())
	if err != nil {
		return nil, 0, fmt.Errorf("compose: read merged document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, 0, err
	}

	if marks.Enabled() {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if err := applyMarks(ctx, pageNr, marks); err != nil {
				return nil, 0, fmt.Errorf("compose: marks on page %d: %w", pageNr, err)
			}
		}
	}

	var out bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("compose: write: %w", err)
	}
	return out.Bytes(), ctx.PageCount, nil
}

// Tiled places each buffer's single page onto label sheets at the row-major
// grid position of its index. A new sheet starts whenever the on-page index
// wraps to zero. A buffer that fails validation leaves its position blank;
// the rest of the sheet is still produced.
func (c *Composer) Tiled(buffers [][]byte, p *Placement) ([]byte, int, error) {
	if p == nil {
		return nil, 0, errors.New("compose: tiled mode requires a placement grid")
	}
	n := len(buffers)
	if n == 0 {
		return nil, 0, ErrNoPages
	}

	conf := model.NewDefaultConfiguration()
	valid := make([]bool, n)
	usable := make([][]byte, 0, n)
	for i, b := range buffers {
		if len(b) == 0 {
			continue
		}
		if _, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(b), conf); err != nil {
			c.log.Warn("label failed validation, leaving position blank",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		valid[i] = true
		usable = append(usable, b)
	}
	if len(usable) == 0 {
		return nil, 0, ErrNoPages
	}

	merged, err := c.mergeChunked(usable)
	if err != nil {
		return nil, 0, fmt.Errorf("compose: merge: %w", err)
	}
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(merged), conf)
	if err != nil {
		return nil, 0, fmt.Errorf("compose: read merged document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, 0, err
	}
	if ctx.PageCount != len(usable) {
		return nil, 0, fmt.Errorf("compose: expected %d single-page labels, merged document has %d pages",
			len(usable), ctx.PageCount)
	}

	forms := make([]*types.IndirectRef, ctx.PageCount)
	boxes := make([]*types.Rectangle, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		form, box, err := pageToForm(ctx, pageNr)
		if err != nil {
			return nil, 0, fmt.Errorf("compose: form for label page %d: %w", pageNr, err)
		}
		forms[pageNr-1] = form
		boxes[pageNr-1] = box
	}

	per := p.LabelsPerSheet()
	sheets := sheet.TotalPages(n, per)

	pagesDict := types.Dict{
		"Type":  types.Name("Pages"),
		"Count": types.Integer(sheets),
	}
	pagesRef, err := ctx.IndRefForNewObject(pagesDict)
	if err != nil {
		return nil, 0, err
	}

	sheetBox := types.RectForWidthAndHeight(0, 0, p.SheetWidthPt, p.SheetHeightPt)
	kids := types.Array{}
	next := 0 // index into forms, advances only for valid inputs
	for s := 0; s < sheets; s++ {
		var content strings.Builder
		xobjects := types.Dict{}

		for idx := 0; idx < per; idx++ {
			abs := sheet.ToAbsolute(s, idx, per)
			if abs >= n {
				break
			}
			if !valid[abs] {
				continue
			}
			form, box := forms[next], boxes[next]
			next++

			name := fmt.Sprintf("Lb%d", idx)
			xobjects[name] = *form
			x, y := p.LabelRect(idx)
			sx := p.LabelWidthPt / box.Width()
			sy := p.LabelHeightPt / box.Height()
			fmt.Fprintf(&content, "q %.5f 0 0 %.5f %.5f %.5f cm /%s Do Q ",
				sx, sy, x-sx*box.LL.X, y-sy*box.LL.Y, name)
		}

		sd, _ := ctx.NewStreamDictForBuf([]byte(content.String()))
		if err := sd.Encode(); err != nil {
			return nil, 0, err
		}
		contentRef, err := ctx.IndRefForNewObject(*sd)
		if err != nil {
			return nil, 0, err
		}

		pageDict := types.Dict{
			"Type":      types.Name("Page"),
			"Parent":    *pagesRef,
			"MediaBox":  sheetBox.Array(),
			"Resources": types.Dict{"XObject": xobjects},
			"Contents":  *contentRef,
		}
		pageRef, err := ctx.IndRefForNewObject(pageDict)
		if err != nil {
			return nil, 0, err
		}
		kids = append(kids, *pageRef)
	}

	pagesDict["Kids"] = kids
	pagesDict["Count"] = types.Integer(len(kids))

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, 0, err
	}
	rootDict["Pages"] = *pagesRef
	ctx.PageCount = len(kids)

	var out bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("compose: write: %w", err)
	}
	return out.Bytes(), len(kids), nil
}

// mergeChunked folds buffers into one document a chunk at a time, reusing
// the accumulated output as the first merge input of the next pass so peak
// residency stays bounded by the chunk size.
func (c *Composer) mergeChunked(buffers [][]byte) ([]byte, error) {
	chunk := c.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunk
	}
	conf := model.NewDefaultConfiguration()

	var acc []byte
	for start := 0; start < len(buffers); start += chunk {
		end := start + chunk
		if end > len(buffers) {
			end = len(buffers)
		}
		readers := make([]io.ReadSeeker, 0, end-start+1)
		if acc != nil {
			readers = append(readers, bytes.NewReader(acc))
		}
		for _, b := range buffers[start:end] {
			readers = append(readers, bytes.NewReader(b))
		}
		if len(readers) == 1 && acc == nil {
			acc = buffers[start]
			continue
		}
		var out bytes.Buffer
		if err := pdfapi.MergeRaw(readers, &out, false, conf); err != nil {
			return nil, err
		}
		acc = out.Bytes()
	}
	return acc, nil
}

// pageToForm converts one page of the merged document into a Form XObject
// so sheet pages can stamp it at arbitrary positions and scales.
func pageToForm(ctx *model.Context, pageNr int) (*types.IndirectRef, *types.Rectangle, error) {
	pageDict, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, nil, err
	}
	box := inh.MediaBox
	if inh.CropBox != nil {
		box = inh.CropBox
	}
	if box == nil {
		return nil, nil, fmt.Errorf("page %d has no media box", pageNr)
	}

	content, err := ctx.PageContent(pageDict, pageNr)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if inh.Rotate != 0 {
		buf.WriteString("q ")
		buf.Write(model.ContentBytesForPageRotation(inh.Rotate, box.Width(), box.Height()))
		buf.Write(content)
		buf.WriteString(" Q ")
	} else {
		buf.Write(content)
	}

	sd, _ := ctx.NewStreamDictForBuf(buf.Bytes())
	sd.Insert("Type", types.Name("XObject"))
	sd.Insert("Subtype", types.Name("Form"))
	sd.Insert("BBox", box.Array())
	if inh.Resources != nil {
		sd.Insert("Resources", inh.Resources)
	}
	if err := sd.Encode(); err != nil {
		return nil, nil, err
	}
	indRef, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, nil, err
	}
	return indRef, box, nil
}

// applyMarks pads one page from trim size to the full marked media size,
// shifts the original content inward, and appends the marks.
func applyMarks(ctx *model.Context, pageNr int, marks MarkConfig) error {
	pageDict, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return err
	}
	trim := inh.MediaBox
	if inh.CropBox != nil {
		trim = inh.CropBox
	}
	if trim == nil {
		return fmt.Errorf("page %d has no media box", pageNr)
	}

	b := marks.Boxes(trim.Width(), trim.Height())

	content, err := ctx.PageContent(pageDict, pageNr)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("q ")
	if inh.Rotate != 0 {
		buf.Write(model.ContentBytesForPageRotation(inh.Rotate, trim.Width(), trim.Height()))
	}
	fmt.Fprintf(&buf, "1 0 0 1 %.5f %.5f cm ", b.PadPt-trim.LL.X, b.PadPt-trim.LL.Y)
	buf.Write(content)
	buf.WriteString(" Q ")
	buf.Write(b.MarksContent())

	sd, _ := ctx.NewStreamDictForBuf(buf.Bytes())
	if err := sd.Encode(); err != nil {
		return err
	}
	contentRef, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return err
	}
	pageDict["Contents"] = *contentRef

	media := types.RectForWidthAndHeight(0, 0, b.MediaWidthPt, b.MediaHeightPt)
	pageDict["MediaBox"] = media.Array()
	pageDict["CropBox"] = media.Array()
	pageDict["TrimBox"] = types.NewRectangle(b.TrimLLX, b.TrimLLY, b.TrimURX, b.TrimURY).Array()
	pageDict["BleedBox"] = types.NewRectangle(b.BleedLLX, b.BleedLLY, b.BleedURX, b.BleedURY).Array()
	pageDict.Delete("Rotate")
	return nil
}
