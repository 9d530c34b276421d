// Package suyash decodes DICOM files with github.com/suyashkumar/dicom and
// converts the result into a dicom.Image, so the library can stand in for
// the native reader.
package suyash

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/imaging"
	sdicom "github.com/suyashkumar/dicom"
	stag "github.com/suyashkumar/dicom/pkg/tag"
)

// Decoder implements the converter's decoder over suyashkumar/dicom.
type Decoder struct{}

// Name identifies the backend in configuration.
func (Decoder) Name() string { return "suyashkumar" }

// Decode parses r; the library needs the exact size, so an unknown size
// (<= 0) buffers the stream first.
func (Decoder) Decode(r io.Reader, size int64) (*dicom.Image, error) {
	if size <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		r, size = bytes.NewReader(data), int64(len(data))
	}
	parsed, err := sdicom.Parse(r, size, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dicom.ErrMalformed, err)
	}
	return Image(parsed)
}

// Image converts a parsed dataset, decoding the first native frame.
func Image(parsed sdicom.Dataset) (*dicom.Image, error) {
	ds := Convert(parsed.Elements)

	pixElem, err := parsed.FindElementByTag(stag.PixelData)
	if err != nil {
		return nil, dicom.ErrNoPixelData
	}
	info := sdicom.MustGetPixelDataInfo(pixElem.Value)
	if len(info.Frames) == 0 {
		return nil, dicom.ErrNoPixelData
	}
	frame := info.Frames[0]
	if frame.Encapsulated {
		return nil, fmt.Errorf("%w: compressed pixel data (%s)", dicom.ErrUnsupported, dicom.GetTransferSyntax(ds).Name())
	}
	img, err := frame.GetImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dicom.ErrUnsupported, err)
	}

	bitsStored := dicom.GetBitsStored(ds)
	signed := dicom.GetPixelRepresentation(ds) == 1
	b := img.Bounds()
	samples := make([]int, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			samples = append(samples, dicom.StoredValue(uint32(gray(img, x, y)), bitsStored, signed))
		}
	}
	matrix, err := imaging.IntensityMatrixFromInts(b.Dy(), b.Dx(), samples)
	if err != nil {
		return nil, err
	}
	return dicom.ImageFrom(ds, matrix)
}

// gray returns the stored value; the library hands back the raw sample bits
// for 8 and 16 bit frames.
func gray(img image.Image, x, y int) uint16 {
	switch g := img.(type) {
	case *image.Gray16:
		return g.Gray16At(x, y).Y
	case *image.Gray:
		return uint16(g.GrayAt(x, y).Y)
	}
	return color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
}

// Convert maps library elements onto a native dataset so windowing and
// field extraction share one implementation. Pixel data is left out.
func Convert(elements []*sdicom.Element) *dicom.Dataset {
	ds := &dicom.Dataset{Elements: make(map[dicom.Tag]*dicom.Element, len(elements))}
	for _, elem := range elements {
		if elem == nil || elem.Value == nil {
			continue
		}
		t := tag.New(elem.Tag.Group, elem.Tag.Element)
		value, ok := convertValue(elem.Value)
		if !ok {
			continue
		}
		vr := elem.RawValueRepresentation
		if vr == "" {
			vr = t.VR()
		}
		ds.Elements[t] = &dicom.Element{Tag: t, VR: vr, Value: value}
	}
	return ds
}

func convertValue(v sdicom.Value) (interface{}, bool) {
	switch v.ValueType() {
	case sdicom.Strings:
		ss, _ := v.GetValue().([]string)
		return strings.Join(ss, `\`), true
	case sdicom.Ints:
		ints, _ := v.GetValue().([]int)
		return ints, true
	case sdicom.Floats:
		fs, _ := v.GetValue().([]float64)
		return fs, true
	case sdicom.Bytes:
		b, _ := v.GetValue().([]byte)
		return b, true
	case sdicom.Sequences:
		seq, _ := v.GetValue().([]*sdicom.SequenceItemValue)
		items := make([]*dicom.Dataset, 0, len(seq))
		for _, item := range seq {
			elems, _ := item.GetValue().([]*sdicom.Element)
			items = append(items, Convert(elems))
		}
		return items, true
	}
	return nil, false
}
