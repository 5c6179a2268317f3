package export

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_export_batches_started_total",
		Help: "Number of export batches started.",
	})
	batchesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vellum_export_batches_completed_total",
		Help: "Number of export batches finished, by outcome.",
	}, []string{"outcome"})
	recordsRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_export_records_rendered_total",
		Help: "Number of records rendered across all batches.",
	})
	recordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_export_records_skipped_total",
		Help: "Number of records skipped due to render failures.",
	})
	conversionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_export_conversion_fallbacks_total",
		Help: "Number of items kept unconverted after a conversion failure.",
	})
	pagesComposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_export_pages_composed_total",
		Help: "Number of output pages produced by the composer.",
	})
)
