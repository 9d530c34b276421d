package imaging

import (
	"image"
)

// NormalizedImage is an immutable rows x cols 8-bit raster.
type NormalizedImage struct {
	rows, cols int
	pix        []uint8

	// Lo and Hi are the effective stretch bounds mapped to 0 and 255.
	Lo, Hi float64
	// Degenerate is set when Lo == Hi and the image is uniform mid-gray.
	Degenerate bool
}

// Dims returns rows and columns.
func (n *NormalizedImage) Dims() (rows, cols int) {
	return n.rows, n.cols
}

// At returns the value at row r, column c.
func (n *NormalizedImage) At(r, c int) uint8 {
	return n.pix[r*n.cols+c]
}

// Pix returns a row-major copy of the samples.
func (n *NormalizedImage) Pix() []uint8 {
	out := make([]uint8, len(n.pix))
	copy(out, n.pix)
	return out
}

// Fallback returns ErrDegenerateStretch when the mid-gray fallback was used.
func (n *NormalizedImage) Fallback() error {
	if n.Degenerate {
		return ErrDegenerateStretch
	}
	return nil
}

// Invert returns 255-v for every sample, used for MONOCHROME1 sources.
func (n *NormalizedImage) Invert() *NormalizedImage {
	out := *n
	out.pix = make([]uint8, len(n.pix))
	for i, v := range n.pix {
		out.pix[i] = 255 - v
	}
	return &out
}

// Gray returns a new image.Gray holding a copy of the samples.
func (n *NormalizedImage) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, n.cols, n.rows))
	for r := 0; r < n.rows; r++ {
		copy(img.Pix[r*img.Stride:r*img.Stride+n.cols], n.pix[r*n.cols:(r+1)*n.cols])
	}
	return img
}
