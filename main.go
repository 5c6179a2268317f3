package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hlpan/vellum/binding"
	"github.com/hlpan/vellum/compose"
	"github.com/hlpan/vellum/convert"
	"github.com/hlpan/vellum/export"
	"github.com/hlpan/vellum/intent"
	"github.com/hlpan/vellum/layout"
	"github.com/hlpan/vellum/render"
	canvasengine "github.com/hlpan/vellum/render/canvas"
	"github.com/hlpan/vellum/sheet"
	"github.com/hlpan/vellum/store"
)

func main() {
	intentPath := flag.String("intent", "", "design intent file (.intent DSL or .json)")
	templatePath := flag.String("template", "", "stock template JSON")
	dataPath := flag.String("data", "", "records CSV (first row is the header)")
	output := flag.String("out", "output/batch.pdf", "output PDF path")
	tiled := flag.Bool("tiled", true, "tile labels onto sheets; false merges full pages")
	cmyk := flag.Bool("cmyk", false, "convert output colors to CMYK via ghostscript")
	gsBin := flag.String("gs", "", "ghostscript binary (default: gs from PATH)")
	bleed := flag.Float64("bleed", 0, "bleed in mm (full-page mode)")
	cropLen := flag.Float64("crop-length", 0, "crop mark length in mm (full-page mode)")
	cropOff := flag.Float64("crop-offset", 0, "crop mark offset from trim in mm")
	markMargin := flag.Float64("mark-margin", 0, "extra margin outside crop marks in mm")
	registration := flag.Bool("registration", false, "draw registration marks (full-page mode)")
	debugPath := flag.String("debug", "", "write the resolved layout as JSON to this path")
	workDir := flag.String("work", "", "work directory for batch artifacts (default: temp)")
	jobID := flag.String("job", "", "job id (default: random)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log := newLogger(*verbose)
	defer log.Sync()

	if err := run(log, options{
		intentPath:   *intentPath,
		templatePath: *templatePath,
		dataPath:     *dataPath,
		output:       *output,
		tiled:        *tiled,
		cmyk:         *cmyk,
		gsBin:        *gsBin,
		jobID:        *jobID,
		workDir:      *workDir,
		debugPath:    *debugPath,
		marks: compose.MarkConfig{
			BleedMM:      *bleed,
			CropLengthMM: *cropLen,
			CropOffsetMM: *cropOff,
			MarginMM:     *markMargin,
			Registration: *registration,
		},
	}); err != nil {
		log.Fatal("batch failed", zap.Error(err))
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	return log
}

type options struct {
	intentPath   string
	templatePath string
	dataPath     string
	output       string
	tiled        bool
	cmyk         bool
	gsBin        string
	jobID        string
	workDir      string
	debugPath    string
	marks        compose.MarkConfig
}

// run wires parsing, layout, rendering and batch export together.
func run(log *zap.Logger, opts options) error {
	tpl, err := loadTemplate(opts.templatePath)
	if err != nil {
		return err
	}
	di, err := loadIntent(opts.intentPath)
	if err != nil {
		return err
	}
	records, err := loadRecords(opts.dataPath)
	if err != nil {
		return err
	}

	grid := sheet.Grid(tpl)
	cfg := layout.DefaultConfig(tpl.LabelWidthMM, tpl.LabelHeightMM)

	var sample binding.Record
	if len(records) > 0 {
		sample = records[0]
	}
	executed, err := layout.Execute(di, cfg, sample, nil)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	log.Info("layout resolved",
		zap.Int("fields", len(executed.Fields)),
		zap.Float64("unusedMm", executed.Diag.UnusedMM))
	if opts.debugPath != "" {
		if err := layout.WriteDebugJSON(executed, opts.debugPath); err != nil {
			return fmt.Errorf("write layout debug: %w", err)
		}
	}

	workDir := opts.workDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "vellum-*")
		if err != nil {
			return err
		}
	}

	var converter convert.Converter
	if opts.cmyk {
		converter = &convert.Ghostscript{Binary: opts.gsBin, Timeout: 2 * time.Minute}
	}

	orch := export.New(canvasengine.New(), converter, &store.FS{Root: workDir}, compose.New(log), log)

	req := export.Request{
		JobID:   opts.jobID,
		Records: records,
		Fields:  executed.Fields,
		Page:    render.PageSpec{WidthMM: tpl.LabelWidthMM, HeightMM: tpl.LabelHeightMM},
		Tiled:   opts.tiled,
		Marks:   opts.marks,
		CMYK:    opts.cmyk,
		ConvertOpts: convert.Options{
			Profile: "cmyk",
		},
		Progress: func(p export.Progress) {
			log.Debug("progress",
				zap.String("phase", string(p.Phase)),
				zap.Float64("percent", p.Percent()))
		},
	}
	if opts.tiled {
		placement, err := compose.NewPlacement(grid, tpl.PageWidthMM, tpl.PageHeightMM)
		if err != nil {
			return err
		}
		req.Placement = placement
	} else {
		req.Page = render.PageSpec{WidthMM: tpl.PageWidthMM, HeightMM: tpl.PageHeightMM}
	}

	res, err := orch.Run(context.Background(), req)
	if err != nil {
		return err
	}

	data, err := (&store.FS{Root: workDir}).Get(context.Background(), res.OutputLocation)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}

	log.Info("batch written",
		zap.String("out", opts.output),
		zap.Int("pages", res.PageCount),
		zap.Int("skipped", res.RecordsSkipped),
		zap.Bool("degraded", res.Degraded))
	return nil
}

func loadTemplate(path string) (sheet.Template, error) {
	var tpl sheet.Template
	if path == "" {
		return tpl, fmt.Errorf("missing -template")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tpl, fmt.Errorf("read template: %w", err)
	}
	if err := json.Unmarshal(data, &tpl); err != nil {
		return tpl, fmt.Errorf("parse template %s: %w", path, err)
	}
	return tpl, nil
}

func loadIntent(path string) (*intent.DesignIntent, error) {
	if path == "" {
		return nil, fmt.Errorf("missing -intent")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return intent.FromJSON(data)
	}
	return intent.Parse(strings.NewReader(string(data)))
}

// loadRecords reads a CSV with a header row into column-keyed records.
func loadRecords(path string) ([]binding.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("missing -data")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records []binding.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rec := binding.Record{}
		for i, col := range header {
			if i < len(row) {
				rec[strings.TrimSpace(col)] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
