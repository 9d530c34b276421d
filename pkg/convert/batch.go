package convert

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jpfielding/dcmview/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// Item is the outcome for one batch input.
type Item struct {
	In, Out string
	Result  *Result
	Err     error
}

// FindInputs lists the *.dcm and *.dicom files directly under dir, sorted.
func FindInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".dcm", ".dicom":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

// OutputName maps an input path to <outDir>/<base><ext>.
func OutputName(in, outDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(outDir, base+ext)
}

// Batch converts inputs into outDir with at most workers conversions in
// flight. Per-file failures are reported in the returned items; only context
// cancellation aborts the batch.
func (c *Converter) Batch(ctx context.Context, inputs []string, outDir, ext string, workers int) ([]Item, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	items := make([]Item, len(inputs))
	var failed, written atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		i, in := i, in
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := OutputName(in, outDir, ext)
			fctx := logging.AppendCtx(gctx, slog.String("file", filepath.Base(in)))
			res, err := c.ConvertFile(fctx, in, out)
			items[i] = Item{In: in, Out: out, Result: res, Err: err}
			if err != nil {
				failed.Add(1)
				slog.WarnContext(fctx, "conversion failed", slog.Any("error", err))
				return nil
			}
			written.Add(res.Written)
			slog.DebugContext(fctx, "converted", slog.String("out", out), slog.String("size", humanize.Bytes(uint64(res.Written))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, err
	}
	if err := ctx.Err(); err != nil {
		return items, err
	}
	slog.InfoContext(ctx, "batch complete",
		slog.Int("files", len(inputs)),
		slog.Int64("failed", failed.Load()),
		slog.String("written", humanize.Bytes(uint64(written.Load()))),
		slog.Duration("elapsed", time.Since(start)))
	return items, nil
}
