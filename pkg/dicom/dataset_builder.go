package dicom

import (
	"encoding/binary"
	"fmt"

	"github.com/jpfielding/dcmview/pkg/dicom/module"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
)

// Option configures a Dataset during construction
type Option func(*Dataset) error

// NewDataset creates a Dataset with the given options
func NewDataset(opts ...Option) (*Dataset, error) {
	ds := newDataset()
	for _, opt := range opts {
		if err := opt(ds); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// WithElement adds a single element using the dictionary VR
func WithElement(t tag.Tag, value interface{}) Option {
	return WithElementVR(t, t.VR(), value)
}

// WithElementVR adds an element with an explicit VR, for private or
// ambiguous tags.
func WithElementVR(t tag.Tag, vr string, value interface{}) Option {
	return func(ds *Dataset) error {
		ds.Elements[t] = &Element{Tag: t, VR: vr, Value: value}
		return nil
	}
}

// WithSequence adds a sequence element to the dataset
func WithSequence(t tag.Tag, items ...*Dataset) Option {
	return func(ds *Dataset) error {
		ds.Elements[t] = &Element{Tag: t, VR: "SQ", Value: items}
		return nil
	}
}

// WithFileMeta adds standard file meta information elements
func WithFileMeta(sopClassUID, sopInstanceUID string, syntax transfer.Syntax) Option {
	return func(ds *Dataset) error {
		for _, opt := range []Option{
			WithElement(tag.FileMetaInformationVersion, []byte{0x00, 0x01}),
			WithElement(tag.MediaStorageSOPClassUID, sopClassUID),
			WithElement(tag.MediaStorageSOPInstanceUID, sopInstanceUID),
			WithElement(tag.TransferSyntaxUID, string(syntax)),
			WithElement(tag.ImplementationClassUID, ImplementationClassUID),
			WithElement(tag.ImplementationVersionName, ImplementationVersion),
			WithElement(tag.SOPClassUID, sopClassUID),
			WithElement(tag.SOPInstanceUID, sopInstanceUID),
		} {
			if err := opt(ds); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithPixelData stores one native grayscale frame and the image pixel
// attributes describing it. Samples must fit bitsStored.
func WithPixelData(rows, cols, bitsAllocated, bitsStored int, signed bool, samples []int) Option {
	return func(ds *Dataset) error {
		if rows <= 0 || cols <= 0 || len(samples) != rows*cols {
			return fmt.Errorf("%w: %d samples for %dx%d", ErrMalformed, len(samples), rows, cols)
		}
		if bitsStored <= 0 || bitsStored > bitsAllocated {
			return fmt.Errorf("%w: bits stored %d of %d", ErrMalformed, bitsStored, bitsAllocated)
		}
		raw, err := packSamples(samples, bitsAllocated)
		if err != nil {
			return err
		}
		repr := 0
		if signed {
			repr = 1
		}
		vr := "OW"
		if bitsAllocated == 8 {
			vr = "OB"
		}
		opts := []Option{
			WithElement(tag.SamplesPerPixel, uint16(1)),
			WithElement(tag.Rows, uint16(rows)),
			WithElement(tag.Columns, uint16(cols)),
			WithElement(tag.BitsAllocated, uint16(bitsAllocated)),
			WithElement(tag.BitsStored, uint16(bitsStored)),
			WithElement(tag.HighBit, uint16(bitsStored-1)),
			WithElement(tag.PixelRepresentation, uint16(repr)),
			WithElementVR(tag.PixelData, vr, &PixelData{Frames: []Frame{{Native: raw}}}),
		}
		if _, ok := ds.Find(tag.PhotometricInterpretation); !ok {
			opts = append(opts, WithElement(tag.PhotometricInterpretation, Monochrome2))
		}
		for _, opt := range opts {
			if err := opt(ds); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithWindows adds center/width pairs; explanations are optional.
func WithWindows(centers, widths []float64, explanations ...string) Option {
	return func(ds *Dataset) error {
		if len(centers) != len(widths) {
			return fmt.Errorf("%d window centers for %d widths", len(centers), len(widths))
		}
		ds.Elements[tag.WindowCenter] = &Element{Tag: tag.WindowCenter, VR: "DS", Value: centers}
		ds.Elements[tag.WindowWidth] = &Element{Tag: tag.WindowWidth, VR: "DS", Value: widths}
		if len(explanations) > 0 {
			ds.Elements[tag.WindowCenterWidthExplanation] = &Element{
				Tag: tag.WindowCenterWidthExplanation, VR: "LO", Value: explanations,
			}
		}
		return nil
	}
}

// WithRescale adds the modality rescale slope and intercept.
func WithRescale(slope, intercept float64) Option {
	return func(ds *Dataset) error {
		ds.Elements[tag.RescaleSlope] = &Element{Tag: tag.RescaleSlope, VR: "DS", Value: slope}
		ds.Elements[tag.RescaleIntercept] = &Element{Tag: tag.RescaleIntercept, VR: "DS", Value: intercept}
		return nil
	}
}

// WithVOILUT appends one item to the VOI LUT sequence.
func WithVOILUT(firstMapped, bitsPerEntry int, data []uint16, explanation string) Option {
	return func(ds *Dataset) error {
		lut := module.VOILUT{FirstMapped: firstMapped, BitsPerEntry: bitsPerEntry, Data: data, Explanation: explanation}
		item, err := datasetFrom(lut.Item())
		if err != nil {
			return err
		}
		var items []*Dataset
		if elem, ok := ds.Find(tag.VOILUTSequence); ok {
			items, _ = elem.GetSequence()
		}
		return WithSequence(tag.VOILUTSequence, append(items, item)...)(ds)
	}
}

// WithModule adds every present attribute of m; sequence items become
// nested datasets.
func WithModule(m module.Module) Option {
	return func(ds *Dataset) error {
		return addElements(ds, m.Elements())
	}
}

func addElements(ds *Dataset, elems []module.Element) error {
	for _, e := range elems {
		switch v := e.Value.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case []module.Item:
			items := make([]*Dataset, len(v))
			for i, it := range v {
				item, err := datasetFrom(it)
				if err != nil {
					return fmt.Errorf("%s item %d: %w", e.Tag, i, err)
				}
				items[i] = item
			}
			if err := WithSequence(e.Tag, items...)(ds); err != nil {
				return err
			}
			continue
		}
		if err := WithElement(e.Tag, e.Value)(ds); err != nil {
			return err
		}
	}
	return nil
}

func datasetFrom(item module.Item) (*Dataset, error) {
	ds := newDataset()
	if err := addElements(ds, item); err != nil {
		return nil, err
	}
	return ds, nil
}

// packSamples encodes samples little-endian at the allocated width.
func packSamples(samples []int, bitsAllocated int) ([]byte, error) {
	switch bitsAllocated {
	case 8:
		out := make([]byte, len(samples))
		for i, s := range samples {
			out[i] = byte(s)
		}
		return out, nil
	case 16:
		out := make([]byte, 0, len(samples)*2)
		for _, s := range samples {
			out = binary.LittleEndian.AppendUint16(out, uint16(s))
		}
		return out, nil
	case 32:
		out := make([]byte, 0, len(samples)*4)
		for _, s := range samples {
			out = binary.LittleEndian.AppendUint32(out, uint32(s))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %d bits allocated", ErrUnsupported, bitsAllocated)
}
