// Package render defines the per-record rendering contract. The batch
// orchestrator calls an Engine once per record and treats the returned
// buffer as an opaque single-page PDF.
package render

import (
	"github.com/hlpan/vellum/binding"
	"github.com/hlpan/vellum/layout"
)

// PageSpec is the output page size for one rendered record, in mm. For
// tiled jobs this is the label size; for full-page jobs the sheet size.
type PageSpec struct {
	WidthMM  float64
	HeightMM float64
}

// Engine renders one record against resolved field geometry. A failure is
// per-record: callers skip the record and continue the batch.
type Engine interface {
	RenderRecord(rec binding.Record, m binding.Mapping, fields []layout.FieldLayout, page PageSpec) ([]byte, error)
}
