// Package imaging normalizes decoded DICOM intensities into 8-bit display rasters.
//
// The package is pure: every function takes immutable inputs and returns a new
// value, so conversions can run concurrently without coordination.
//
//	windowed, err := imaging.ApplyVOI(matrix, params, 0)
//	if err != nil {
//		return err
//	}
//	img, err := imaging.Stretch(windowed, imaging.DefaultStretch)
//	if err != nil {
//		return err
//	}
//	png.Encode(w, img.Gray())
//
// ApplyVOI maps stored values through the modality's window or VOI LUT. Stretch
// maps the low/high percentiles of the windowed distribution onto 0/255 after
// replacing the extreme samples with the median for percentile estimation
// only, so a single saturated or dead pixel cannot collapse the range.
package imaging

import "errors"

var (
	// ErrEmptyMatrix is returned for nil or zero sized matrices.
	ErrEmptyMatrix = errors.New("empty intensity matrix")
	// ErrShape is returned when sample count does not match rows*cols.
	ErrShape = errors.New("sample count does not match dimensions")
	// ErrInvalidStretchParameters is returned unless 0 <= low < high <= 100.
	ErrInvalidStretchParameters = errors.New("invalid stretch parameters")
	// ErrDegenerateStretch marks a stretch whose low and high percentiles coincide.
	// Stretch does not return it; NormalizedImage.Fallback reports it.
	ErrDegenerateStretch = errors.New("degenerate stretch range")
	// ErrMissingWindowing means neither a window nor a VOI LUT was supplied.
	// ApplyVOI absorbs it and passes the matrix through.
	ErrMissingWindowing = errors.New("missing windowing parameters")
	// ErrWindowIndex is returned when the requested window/LUT does not exist.
	ErrWindowIndex = errors.New("window index out of range")
	// ErrInvalidWindow is returned for unusable window widths or empty LUTs.
	ErrInvalidWindow = errors.New("invalid window")
)
