package export

// Phase is one stage of the batch state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseExporting  Phase = "exporting"
	PhaseConverting Phase = "converting"
	PhaseUploading  Phase = "uploading"
	PhaseComposing  Phase = "composing"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// Progress is one progress report. Current/Total are per-phase counters.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// ProgressFunc receives progress reports at least once per record or chunk.
// May be nil.
type ProgressFunc func(Progress)

// Phase bands of the overall percentage. Fixed so clients can render one
// bar across the whole run.
const (
	exportingEnd  = 70.0
	convertingEnd = 80.0
	uploadingEnd  = 90.0
	composingEnd  = 100.0
)

// Percent maps the report onto 0..100. Each phase interpolates linearly
// inside its band; only the complete phase reaches exactly 100.
func (p Progress) Percent() float64 {
	frac := 0.0
	if p.Total > 0 {
		frac = float64(p.Current) / float64(p.Total)
		if frac > 1 {
			frac = 1
		}
	}
	switch p.Phase {
	case PhaseExporting:
		return exportingEnd * frac
	case PhaseConverting:
		return exportingEnd + (convertingEnd-exportingEnd)*frac
	case PhaseUploading:
		return convertingEnd + (uploadingEnd-convertingEnd)*frac
	case PhaseComposing:
		return uploadingEnd + (composingEnd-uploadingEnd)*frac
	case PhaseComplete:
		return 100
	default:
		return 0
	}
}

func (o *Orchestrator) report(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
