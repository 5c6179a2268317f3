// Package export drives one batch end to end: render each record, optionally
// convert colors, upload in chunks, compose the final document. The whole
// run is deliberately sequential; bounding peak memory of the conversion and
// embedding steps matters more than wall clock here.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hlpan/vellum/binding"
	"github.com/hlpan/vellum/compose"
	"github.com/hlpan/vellum/convert"
	"github.com/hlpan/vellum/layout"
	"github.com/hlpan/vellum/render"
	"github.com/hlpan/vellum/store"
)

var (
	// ErrNoRecords means the request carried an empty record set.
	ErrNoRecords = errors.New("export: no records")
	// ErrNoLayoutGrid means tiled mode was requested without a placement.
	ErrNoLayoutGrid = errors.New("export: tiled mode requires a layout grid")
	// ErrCancelled reports cooperative cancellation between records.
	ErrCancelled = errors.New("export: batch cancelled")
	// ErrBatchActive means a batch is already running for the job id.
	ErrBatchActive = errors.New("export: batch already active for job")
)

// composer is the slice of compose.Composer the orchestrator needs.
type composer interface {
	FullPage(buffers [][]byte, marks compose.MarkConfig) ([]byte, int, error)
	Tiled(buffers [][]byte, p *compose.Placement) ([]byte, int, error)
}

// Request describes one batch.
type Request struct {
	// JobID keys storage and the single-active-batch guard. Empty means a
	// fresh random id.
	JobID string

	Records []binding.Record
	Mapping binding.Mapping
	Fields  []layout.FieldLayout
	Page    render.PageSpec

	// Tiled selects label-sheet composition; Placement must be set.
	Tiled     bool
	Placement *compose.Placement

	Marks compose.MarkConfig

	// CMYK runs every rendered buffer through the converter.
	CMYK        bool
	ConvertOpts convert.Options

	Progress ProgressFunc
}

// Result is the batch outcome.
type Result struct {
	Success        bool   `json:"success"`
	Degraded       bool   `json:"degraded"`
	OutputLocation string `json:"outputLocation,omitempty"`
	PageCount      int    `json:"pageCount"`
	RecordsSkipped int    `json:"recordsSkipped"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// Orchestrator runs batches. Safe for concurrent use across distinct job
// ids; a second batch against an active job id is rejected.
type Orchestrator struct {
	engine    render.Engine
	converter convert.Converter
	store     store.Store
	composer  composer
	log       *zap.Logger

	// UploadChunk is how many buffers one upload call carries. Zero means
	// a sane default.
	UploadChunk int

	mu     sync.Mutex
	active map[string]struct{}
}

const defaultUploadChunk = 25

func New(engine render.Engine, converter convert.Converter, st store.Store, comp *compose.Composer, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		engine:    engine,
		converter: converter,
		store:     st,
		composer:  comp,
		log:       log,
		active:    map[string]struct{}{},
	}
}

// Run executes one batch to completion. Fatal errors return a failed Result
// with the message set; the same error is also returned for callers that
// propagate. Partial artifacts already uploaded are left in place.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	if err := o.acquire(req.JobID); err != nil {
		return Result{ErrorMessage: err.Error()}, err
	}
	defer o.release(req.JobID)

	batchesStarted.Inc()
	res, err := o.run(ctx, req)
	if err != nil {
		o.log.Error("batch failed", zap.String("job", req.JobID), zap.Error(err))
		o.report(req.Progress, Progress{Phase: PhaseError, Message: err.Error()})
		batchesCompleted.WithLabelValues("error").Inc()
		return Result{ErrorMessage: err.Error()}, err
	}
	if res.Degraded {
		batchesCompleted.WithLabelValues("degraded").Inc()
	} else {
		batchesCompleted.WithLabelValues("ok").Inc()
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request) (Result, error) {
	if len(req.Records) == 0 {
		return Result{}, ErrNoRecords
	}
	if req.Tiled && req.Placement == nil {
		return Result{}, ErrNoLayoutGrid
	}

	buffers, skipped, err := o.renderAll(ctx, req)
	if err != nil {
		return Result{}, err
	}

	degraded := false
	if req.CMYK {
		degraded, err = o.convertAll(ctx, req, buffers)
		if err != nil {
			return Result{}, err
		}
	}

	if err := o.uploadChunks(ctx, req, buffers); err != nil {
		return Result{}, err
	}

	o.report(req.Progress, Progress{Phase: PhaseComposing, Current: 0, Total: 1})
	var out []byte
	var pages int
	if req.Tiled {
		out, pages, err = o.composer.Tiled(buffers, req.Placement)
	} else {
		out, pages, err = o.composer.FullPage(buffers, req.Marks)
	}
	if err != nil {
		return Result{}, err
	}
	pagesComposed.Add(float64(pages))

	location, err := o.store.Put(ctx, req.JobID, "output.pdf", out)
	if err != nil {
		return Result{}, fmt.Errorf("export: store output: %w", err)
	}

	o.report(req.Progress, Progress{Phase: PhaseComplete, Current: 1, Total: 1})
	o.log.Info("batch complete",
		zap.String("job", req.JobID),
		zap.Int("pages", pages),
		zap.Int("skipped", skipped),
		zap.Bool("degraded", degraded))

	return Result{
		Success:        true,
		Degraded:       degraded,
		OutputLocation: location,
		PageCount:      pages,
		RecordsSkipped: skipped,
	}, nil
}

// renderAll produces one buffer per record, index-aligned with the input.
// A failed record leaves a nil buffer: blank in tiled mode, dropped in
// full-page mode.
func (o *Orchestrator) renderAll(ctx context.Context, req Request) ([][]byte, int, error) {
	total := len(req.Records)
	buffers := make([][]byte, total)
	skipped := 0
	for i, rec := range req.Records {
		if err := ctx.Err(); err != nil {
			return nil, 0, ErrCancelled
		}
		buf, err := o.engine.RenderRecord(rec, req.Mapping, req.Fields, req.Page)
		if err != nil {
			skipped++
			recordsSkipped.Inc()
			o.log.Warn("record render failed, skipping",
				zap.String("job", req.JobID), zap.Int("record", i), zap.Error(err))
		} else {
			buffers[i] = buf
			recordsRendered.Inc()
		}
		o.report(req.Progress, Progress{Phase: PhaseExporting, Current: i + 1, Total: total})
	}
	if skipped == total {
		return nil, 0, fmt.Errorf("export: all %d records failed to render", total)
	}
	return buffers, skipped, nil
}

// convertAll runs the converter over each buffer strictly one at a time. A
// per-item failure keeps the unconverted buffer and marks the batch
// degraded; it never shortens the output.
func (o *Orchestrator) convertAll(ctx context.Context, req Request, buffers [][]byte) (bool, error) {
	if o.converter == nil {
		return false, errors.New("export: color conversion requested but no converter configured")
	}
	degraded := false
	total := len(buffers)
	for i, buf := range buffers {
		if err := ctx.Err(); err != nil {
			return false, ErrCancelled
		}
		if buf == nil {
			continue
		}
		converted, err := o.converter.Convert(ctx, buf, req.ConvertOpts)
		if err != nil {
			degraded = true
			conversionFallbacks.Inc()
			o.log.Warn("conversion failed, keeping original buffer",
				zap.String("job", req.JobID), zap.Int("item", i), zap.Error(err))
		} else {
			buffers[i] = converted
		}
		o.report(req.Progress, Progress{Phase: PhaseConverting, Current: i + 1, Total: total})
	}
	return degraded, nil
}

// uploadChunks hands rendered buffers to storage in bounded chunks so the
// storage client never sees the whole batch at once.
func (o *Orchestrator) uploadChunks(ctx context.Context, req Request, buffers [][]byte) error {
	chunk := o.UploadChunk
	if chunk <= 0 {
		chunk = defaultUploadChunk
	}
	total := (len(buffers) + chunk - 1) / chunk
	for c := 0; c < total; c++ {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}
		start := c * chunk
		end := start + chunk
		if end > len(buffers) {
			end = len(buffers)
		}
		var payload []byte
		for _, b := range buffers[start:end] {
			payload = append(payload, b...)
		}
		name := fmt.Sprintf("chunk-%04d.bin", c)
		if _, err := o.store.Put(ctx, req.JobID, name, payload); err != nil {
			return fmt.Errorf("export: upload chunk %d: %w", c, err)
		}
		o.report(req.Progress, Progress{Phase: PhaseUploading, Current: c + 1, Total: total})
	}
	return nil
}

func (o *Orchestrator) acquire(jobID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.active[jobID]; ok {
		return ErrBatchActive
	}
	o.active[jobID] = struct{}{}
	return nil
}

func (o *Orchestrator) release(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, jobID)
}
