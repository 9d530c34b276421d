// Package convert wires a DICOM decoder, the imaging pipeline and a raster
// encoder into a stateless Converter.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpfielding/dcmview/pkg/config"
	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/dicom/suyash"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/jpfielding/dcmview/pkg/raster"
)

// ErrUnknownDecoder is returned by DecoderByName.
var ErrUnknownDecoder = errors.New("unknown decoder")

// Decoder turns a DICOM stream into a grayscale image; size may be -1.
type Decoder interface {
	Decode(r io.Reader, size int64) (*dicom.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader, size int64) (*dicom.Image, error)

func (f DecoderFunc) Decode(r io.Reader, size int64) (*dicom.Image, error) {
	return f(r, size)
}

// Native is the built-in reader.
var Native Decoder = DecoderFunc(dicom.Decode)

// DecoderByName maps a configured backend name to a Decoder.
func DecoderByName(name string) (Decoder, error) {
	switch name {
	case config.DecoderNative, "":
		return Native, nil
	case config.DecoderSuyashkumar:
		return suyash.Decoder{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDecoder, name)
}

// Options configures a Converter.
type Options struct {
	Decoder string
	// Window selects the window or VOI LUT when the file defines several.
	Window  int
	Stretch imaging.StretchParameters
	Raster  raster.Options
}

// OptionsFrom builds Options from the [convert] config section.
func OptionsFrom(c config.Convert) (Options, error) {
	ro, err := c.RasterOptions()
	if err != nil {
		return Options{}, err
	}
	return Options{Decoder: c.Decoder, Window: c.Window, Stretch: c.Stretch(), Raster: ro}, nil
}

// Converter runs decode, VOI, stretch and encode. It holds no mutable state
// and is safe for concurrent use.
type Converter struct {
	decoder Decoder
	encoder raster.Encoder
	window  int
	stretch imaging.StretchParameters
}

// New validates o and returns a Converter.
func New(o Options) (*Converter, error) {
	if err := o.Stretch.Validate(); err != nil {
		return nil, err
	}
	if o.Window < 0 {
		return nil, fmt.Errorf("%w: %d", imaging.ErrWindowIndex, o.Window)
	}
	dec, err := DecoderByName(o.Decoder)
	if err != nil {
		return nil, err
	}
	enc, err := raster.New(o.Raster)
	if err != nil {
		return nil, err
	}
	return &Converter{decoder: dec, encoder: enc, window: o.Window, stretch: o.Stretch}, nil
}

// WithDecoder returns a copy of c using d.
func (c *Converter) WithDecoder(d Decoder) *Converter {
	out := *c
	out.decoder = d
	return &out
}

// ContentType is the MIME type of the encoded output.
func (c *Converter) ContentType() string {
	return c.encoder.ContentType()
}

// Result summarizes one conversion.
type Result struct {
	Rows, Cols  int
	Photometric string
	Lo, Hi      float64
	Degenerate  bool
	Written     int64
}

// Normalize windows and stretches img. MONOCHROME1 data is inverted afterwards,
// so its output differs from a plain windowed stretch of the same samples.
func (c *Converter) Normalize(ctx context.Context, img *dicom.Image) (*imaging.NormalizedImage, error) {
	windowed, err := imaging.ApplyVOI(img.Matrix, img.Windowing, c.window)
	if err != nil {
		return nil, fmt.Errorf("windowing: %w", err)
	}
	if img.Windowing.Empty() {
		slog.DebugContext(ctx, "no windowing, using stored values")
	}
	norm, err := imaging.Stretch(windowed, c.stretch)
	if err != nil {
		return nil, fmt.Errorf("stretching: %w", err)
	}
	if err := norm.Fallback(); err != nil {
		slog.DebugContext(ctx, "uniform output", slog.Any("reason", err), slog.Float64("value", norm.Lo))
	}
	if img.Inverted() {
		norm = norm.Invert()
	}
	return norm, nil
}

// Convert decodes r, normalizes it and writes the encoded raster to w.
func (c *Converter) Convert(ctx context.Context, r io.Reader, size int64, w io.Writer) (*Result, error) {
	img, err := c.decoder.Decode(r, size)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	norm, err := c.Normalize(ctx, img)
	if err != nil {
		return nil, err
	}
	cw := &dicom.CountingWriter{Writer: w}
	if err := c.encoder.Encode(cw, norm); err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	return &Result{
		Rows:        img.Rows,
		Cols:        img.Cols,
		Photometric: img.Photometric,
		Lo:          norm.Lo,
		Hi:          norm.Hi,
		Degenerate:  norm.Degenerate,
		Written:     cw.Count.Load(),
	}, nil
}

// ConvertFile converts the file at in and writes out. A failed conversion
// leaves no output file.
func (c *Converter) ConvertFile(ctx context.Context, in, out string) (*Result, error) {
	src, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return nil, err
	}

	dst, err := os.Create(out)
	if err != nil {
		return nil, err
	}
	res, err := c.Convert(ctx, src, info.Size(), dst)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return nil, fmt.Errorf("%s: %w", in, err)
	}
	return res, nil
}
