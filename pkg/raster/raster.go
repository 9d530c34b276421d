// Package raster encodes normalized 8-bit images as PNG or JPEG.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/jpfielding/dcmview/pkg/imaging"
	"golang.org/x/image/draw"
)

// ErrUnknownFormat is returned for output formats other than png and jpeg.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts png, jpeg and jpg in any case; empty means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the HTTP media type.
func (f Format) ContentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Extension includes the leading dot.
func (f Format) Extension() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// Options configures an Encoder.
type Options struct {
	Format Format
	// Quality is the JPEG quality, 1-100; 0 uses jpeg.DefaultQuality.
	Quality int
	// MaxDimension downscales so neither side exceeds it; 0 disables.
	MaxDimension int
}

// Encoder writes a normalized image.
type Encoder interface {
	Encode(w io.Writer, img *imaging.NormalizedImage) error
	ContentType() string
}

// New returns the encoder for o.Format.
func New(o Options) (Encoder, error) {
	if o.Quality < 0 || o.Quality > 100 {
		return nil, fmt.Errorf("jpeg quality %d out of range", o.Quality)
	}
	if o.MaxDimension < 0 {
		return nil, fmt.Errorf("max dimension %d is negative", o.MaxDimension)
	}
	switch o.Format {
	case PNG, "":
		return &pngEncoder{maxDim: o.MaxDimension}, nil
	case JPEG:
		q := o.Quality
		if q == 0 {
			q = jpeg.DefaultQuality
		}
		return &jpegEncoder{quality: q, maxDim: o.MaxDimension}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, o.Format)
}

type pngEncoder struct {
	maxDim int
}

func (e *pngEncoder) ContentType() string { return PNG.ContentType() }

func (e *pngEncoder) Encode(w io.Writer, img *imaging.NormalizedImage) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, Downscale(img.Gray(), e.maxDim))
}

type jpegEncoder struct {
	quality int
	maxDim  int
}

func (e *jpegEncoder) ContentType() string { return JPEG.ContentType() }

func (e *jpegEncoder) Encode(w io.Writer, img *imaging.NormalizedImage) error {
	return jpeg.Encode(w, Downscale(img.Gray(), e.maxDim), &jpeg.Options{Quality: e.quality})
}

// Downscale fits src inside maxDim x maxDim keeping the aspect ratio.
// Images already within bounds, or maxDim <= 0, are returned as is.
func Downscale(src *image.Gray, maxDim int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}
	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}
	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
