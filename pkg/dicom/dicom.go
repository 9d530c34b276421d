// Package dicom is a native Go reader and writer for single-frame grayscale
// DICOM files.
//
// It parses explicit and implicit VR little endian (and deflated explicit VR)
// datasets, including nested sequences, and converts native pixel data into
// an imaging.IntensityMatrix together with the windowing attributes needed
// to display it:
//
//	img, err := dicom.ReadFile("/path/to/IM000001")
//	if err != nil {
//		log.Fatal(err)
//	}
//	windowed, err := imaging.ApplyVOI(img.Matrix, img.Windowing, 0)
//
// Encapsulated (compressed) pixel data and color images are recognized and
// rejected with ErrUnsupported.
package dicom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
)

var (
	// ErrNotDICOM is returned when the preamble or DICM magic is missing.
	ErrNotDICOM = errors.New("not a DICOM file")
	// ErrMalformed is returned for truncated or inconsistent streams.
	ErrMalformed = errors.New("malformed DICOM stream")
	// ErrUnsupported is returned for encodings outside native grayscale.
	ErrUnsupported = errors.New("unsupported DICOM encoding")
	// ErrNoPixelData is returned when the dataset has no (7FE0,0010).
	ErrNoPixelData = errors.New("no pixel data")
)

// Photometric interpretations handled by the decoder
const (
	Monochrome1 = "MONOCHROME1"
	Monochrome2 = "MONOCHROME2"
)

// Identification written into the file meta group
const (
	ImplementationClassUID = "1.2.826.0.1.3680043.8.498.1"
	ImplementationVersion  = "DCMVIEW_1"
)

// SecondaryCaptureUID is the SOP class used for synthetic images.
const SecondaryCaptureUID = "1.2.840.10008.5.1.4.1.1.7"

// ReadFile parses and decodes a DICOM file from disk
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return Decode(f, info.Size())
}

// ReadBuffer parses and decodes a DICOM file held in memory
func ReadBuffer(data []byte) (*Image, error) {
	return Decode(bytes.NewReader(data), int64(len(data)))
}

// ParseFile parses a dataset from disk without decoding pixels.
func ParseFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return NewReader(f, info.Size()).ReadDataset()
}

// Decode parses r (size <= 0 when unknown) and builds an Image.
func Decode(r io.Reader, size int64) (*Image, error) {
	ds, err := NewReader(r, size).ReadDataset()
	if err != nil {
		return nil, err
	}
	return NewImage(ds)
}

func (ds *Dataset) str(t Tag) string {
	if elem, ok := ds.Find(t); ok {
		if s, ok := elem.GetString(); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (ds *Dataset) integer(t Tag, def int) int {
	if elem, ok := ds.Find(t); ok {
		if v, ok := elem.GetInt(); ok {
			return v
		}
	}
	return def
}

func (ds *Dataset) floats(t Tag) []float64 {
	if elem, ok := ds.Find(t); ok {
		if v, ok := elem.GetFloats(); ok {
			return v
		}
	}
	return nil
}

// GetModality returns the modality string from the dataset
func GetModality(ds *Dataset) string {
	return ds.str(tag.Modality)
}

// GetTransferSyntax returns the transfer syntax, defaulting to explicit VR
// little endian when absent.
func GetTransferSyntax(ds *Dataset) transfer.Syntax {
	if s := ds.str(tag.TransferSyntaxUID); s != "" {
		return transfer.FromUID(s)
	}
	return transfer.ExplicitVRLittleEndian
}

// GetRows returns the number of rows in the image
func GetRows(ds *Dataset) int {
	return ds.integer(tag.Rows, 0)
}

// GetColumns returns the number of columns in the image
func GetColumns(ds *Dataset) int {
	return ds.integer(tag.Columns, 0)
}

// GetNumberOfFrames returns the number of frames, 1 if not specified
func GetNumberOfFrames(ds *Dataset) int {
	return ds.integer(tag.NumberOfFrames, 1)
}

// GetSamplesPerPixel returns the number of channels, 1 if not specified
func GetSamplesPerPixel(ds *Dataset) int {
	return ds.integer(tag.SamplesPerPixel, 1)
}

// GetBitsAllocated returns the bits allocated per sample
func GetBitsAllocated(ds *Dataset) int {
	return ds.integer(tag.BitsAllocated, 16)
}

// GetBitsStored returns the significant bits, defaulting to bits allocated
func GetBitsStored(ds *Dataset) int {
	return ds.integer(tag.BitsStored, GetBitsAllocated(ds))
}

// GetPixelRepresentation returns 0 for unsigned, 1 for signed
func GetPixelRepresentation(ds *Dataset) int {
	return ds.integer(tag.PixelRepresentation, 0)
}

// GetPhotometricInterpretation defaults to MONOCHROME2
func GetPhotometricInterpretation(ds *Dataset) string {
	if s := ds.str(tag.PhotometricInterpretation); s != "" {
		return strings.ToUpper(s)
	}
	return Monochrome2
}

// GetRescale returns slope and intercept, defaulting to 1 and 0
func GetRescale(ds *Dataset) (slope, intercept float64) {
	slope, intercept = 1, 0
	if v := ds.floats(tag.RescaleSlope); len(v) > 0 && v[0] != 0 {
		slope = v[0]
	}
	if v := ds.floats(tag.RescaleIntercept); len(v) > 0 {
		intercept = v[0]
	}
	return slope, intercept
}
