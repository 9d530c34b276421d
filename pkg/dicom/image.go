package dicom

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/jpfielding/dcmview/pkg/metadata"
)

// Image is a decoded grayscale frame with its display attributes.
type Image struct {
	Rows, Cols     int
	Matrix         *imaging.IntensityMatrix
	Windowing      imaging.WindowingParameters
	Photometric    string
	TransferSyntax transfer.Syntax
	Fields         metadata.Fields
}

// Inverted reports MONOCHROME1 data, where low values are bright.
func (img *Image) Inverted() bool {
	return img.Photometric == Monochrome1
}

// NewImage decodes the first native frame of ds.
func NewImage(ds *Dataset) (*Image, error) {
	elem, ok := ds.Find(tag.PixelData)
	if !ok {
		return nil, ErrNoPixelData
	}
	pd, ok := elem.GetPixelData()
	if !ok || len(pd.Frames) == 0 {
		return nil, ErrNoPixelData
	}
	if pd.IsEncapsulated {
		return nil, fmt.Errorf("%w: compressed pixel data (%s)", ErrUnsupported, GetTransferSyntax(ds).Name())
	}
	rows, cols, err := checkGrayscale(ds)
	if err != nil {
		return nil, err
	}

	samples, err := decodeSamples(pd.Frames[0].Native, rows*cols,
		GetBitsAllocated(ds), GetBitsStored(ds), GetPixelRepresentation(ds) == 1)
	if err != nil {
		return nil, err
	}
	matrix, err := imaging.IntensityMatrixFromInts(rows, cols, samples)
	if err != nil {
		return nil, err
	}
	return ImageFrom(ds, matrix)
}

// ImageFrom pairs samples decoded elsewhere with the attributes of ds.
func ImageFrom(ds *Dataset, matrix *imaging.IntensityMatrix) (*Image, error) {
	rows, cols, err := checkGrayscale(ds)
	if err != nil {
		return nil, err
	}
	if r, c := matrix.Dims(); r != rows || c != cols {
		return nil, fmt.Errorf("%w: matrix %dx%d for %dx%d image", ErrMalformed, c, r, cols, rows)
	}
	return &Image{
		Rows:           rows,
		Cols:           cols,
		Matrix:         matrix,
		Windowing:      Windowing(ds),
		Photometric:    GetPhotometricInterpretation(ds),
		TransferSyntax: GetTransferSyntax(ds),
		Fields:         ds.Fields(),
	}, nil
}

func checkGrayscale(ds *Dataset) (rows, cols int, err error) {
	if spp := GetSamplesPerPixel(ds); spp != 1 {
		return 0, 0, fmt.Errorf("%w: %d samples per pixel", ErrUnsupported, spp)
	}
	if p := GetPhotometricInterpretation(ds); p != Monochrome1 && p != Monochrome2 {
		return 0, 0, fmt.Errorf("%w: photometric interpretation %s", ErrUnsupported, p)
	}
	rows, cols = GetRows(ds), GetColumns(ds)
	if rows <= 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformed, cols, rows)
	}
	if frames := GetNumberOfFrames(ds); frames > 1 {
		slog.Debug("multi-frame image, decoding first frame", slog.Int("frames", frames))
	}
	return rows, cols, nil
}

// StoredValue masks v to bitsStored and sign-extends it for signed data.
func StoredValue(v uint32, bitsStored int, signed bool) int {
	if bitsStored <= 0 || bitsStored >= 32 {
		if signed {
			return int(int32(v))
		}
		return int(v)
	}
	mask := uint32(1)<<bitsStored - 1
	v &= mask
	if signed && v&(1<<(bitsStored-1)) != 0 {
		return int(int64(v) - int64(mask) - 1)
	}
	return int(v)
}

// decodeSamples reads n little-endian samples at the allocated width.
func decodeSamples(raw []byte, n, bitsAllocated, bitsStored int, signed bool) ([]int, error) {
	width := bitsAllocated / 8
	switch bitsAllocated {
	case 8, 16, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits allocated", ErrUnsupported, bitsAllocated)
	}
	if bitsStored <= 0 || bitsStored > bitsAllocated {
		bitsStored = bitsAllocated
	}
	if len(raw) < n*width {
		return nil, fmt.Errorf("%w: %d bytes of pixel data for %d samples", ErrMalformed, len(raw), n)
	}

	out := make([]int, n)
	for i := range out {
		var v uint32
		switch width {
		case 1:
			v = uint32(raw[i])
		case 2:
			v = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
		default:
			v = binary.LittleEndian.Uint32(raw[i*4:])
		}
		out[i] = StoredValue(v, bitsStored, signed)
	}
	return out, nil
}
