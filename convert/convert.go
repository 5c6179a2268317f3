// Package convert wraps the external color-conversion step. Conversion is
// always invoked one buffer at a time; the orchestrator relies on that to
// bound peak memory.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Options selects the conversion target.
type Options struct {
	// Profile is the output color profile, e.g. "cmyk" or an ICC name the
	// converter understands.
	Profile string
	// FlattenTransparency rasterizes transparency groups, which some RIPs
	// require for PDF/X output.
	FlattenTransparency bool
}

// Converter transforms one PDF buffer. A failure is per-item: callers fall
// back to the input buffer and mark the batch degraded.
type Converter interface {
	Convert(ctx context.Context, pdf []byte, opts Options) ([]byte, error)
}

// Ghostscript shells out to a gs binary for CMYK conversion.
type Ghostscript struct {
	// Binary is the gs executable; empty means "gs" from PATH.
	Binary string
	// Timeout bounds one invocation; zero means no extra bound beyond ctx.
	Timeout time.Duration
}

var _ Converter = (*Ghostscript)(nil)

func (g *Ghostscript) Convert(ctx context.Context, pdf []byte, opts Options) ([]byte, error) {
	bin := g.Binary
	if bin == "" {
		bin = "gs"
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	// gs reads the input twice (xref at the end), so it needs a real file.
	tmp, err := os.CreateTemp("", "vellum-convert-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("convert: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("convert: write temp: %w", err)
	}
	tmp.Close()

	outPath := filepath.Join(filepath.Dir(tmp.Name()), filepath.Base(tmp.Name())+".out")
	defer os.Remove(outPath)

	args := []string{
		"-q", "-dBATCH", "-dNOPAUSE", "-dSAFER",
		"-sDEVICE=pdfwrite",
		"-sColorConversionStrategy=CMYK",
		"-dProcessColorModel=/DeviceCMYK",
	}
	if opts.FlattenTransparency {
		args = append(args, "-dHaveTransparency=false")
	}
	args = append(args, "-sOutputFile="+outPath, tmp.Name())

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("convert: %s: %w: %s", bin, err, stderr.String())
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("convert: read output: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("convert: %s produced empty output", bin)
	}
	return out, nil
}
