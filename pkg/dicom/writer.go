package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/vr"
	"github.com/klauspost/compress/flate"
)

// WriteFile writes a dataset to a DICOM file
func WriteFile(path string, ds *Dataset) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Write(f, ds)
}

// Write writes the preamble, the file meta group (explicit VR little endian,
// with a computed group length) and the dataset body encoded per its
// TransferSyntaxUID. Implicit VR, explicit VR and deflated explicit VR bodies
// are supported; encapsulated syntaxes are written explicit VR.
func Write(w io.Writer, ds *Dataset) (int64, error) {
	cw := &CountingWriter{Writer: w}

	if _, err := cw.Write(make([]byte, 128)); err != nil {
		return cw.Count.Load(), err
	}
	if _, err := cw.Write([]byte("DICM")); err != nil {
		return cw.Count.Load(), err
	}

	meta, body := splitMeta(ds)
	var metaBuf bytes.Buffer
	if _, err := writeDataSetBody(&metaBuf, meta, true); err != nil {
		return cw.Count.Load(), fmt.Errorf("encoding file meta: %w", err)
	}
	groupLength := &Element{Tag: tag.FileMetaInformationGroupLength, VR: "UL", Value: uint32(metaBuf.Len())}
	if err := writeElement(cw, groupLength, true); err != nil {
		return cw.Count.Load(), err
	}
	if _, err := cw.Write(metaBuf.Bytes()); err != nil {
		return cw.Count.Load(), err
	}

	syntax := GetTransferSyntax(ds)
	if !syntax.IsLittleEndian() {
		return cw.Count.Load(), fmt.Errorf("%w: writing %s", ErrUnsupported, syntax.Name())
	}
	if syntax.IsDeflated() {
		fw, err := flate.NewWriter(cw, flate.DefaultCompression)
		if err != nil {
			return cw.Count.Load(), err
		}
		if _, err := writeDataSetBody(fw, body, true); err != nil {
			return cw.Count.Load(), err
		}
		if err := fw.Close(); err != nil {
			return cw.Count.Load(), err
		}
		return cw.Count.Load(), nil
	}
	if _, err := writeDataSetBody(cw, body, syntax.IsExplicitVR()); err != nil {
		return cw.Count.Load(), err
	}
	return cw.Count.Load(), nil
}

// splitMeta separates group 0002 from the rest; any stored group length is
// dropped so it can be recomputed.
func splitMeta(ds *Dataset) (meta, body *Dataset) {
	meta, body = newDataset(), newDataset()
	for t, elem := range ds.Elements {
		switch {
		case t == tag.FileMetaInformationGroupLength:
		case t.IsFileMeta():
			meta.Elements[t] = elem
		default:
			body.Elements[t] = elem
		}
	}
	return meta, body
}

func writeDataSetBody(w io.Writer, ds *Dataset, explicit bool) (int64, error) {
	elements := make([]*Element, 0, len(ds.Elements))
	for _, elem := range ds.Elements {
		elements = append(elements, elem)
	}
	sort.Slice(elements, func(i, j int) bool {
		return elements[i].Tag.Less(elements[j].Tag)
	})

	cw := &CountingWriter{Writer: w}
	for _, elem := range elements {
		if err := writeElement(cw, elem, explicit); err != nil {
			return cw.Count.Load(), fmt.Errorf("failed to write element %v: %w", elem.Tag, err)
		}
	}
	return cw.Count.Load(), nil
}

func writeElement(w io.Writer, elem *Element, explicit bool) error {
	v := elem.VR
	if !vr.Valid(v) {
		slog.Warn("invalid VR, defaulting to UN", slog.String("vr", v), slog.String("tag", elem.Tag.String()))
		v = string(vr.UN)
	}

	valBytes, undefined, err := encodeValue(elem.Value, v, explicit)
	if err != nil {
		return err
	}

	var hdr []byte
	hdr = binary.LittleEndian.AppendUint16(hdr, elem.Tag.Group)
	hdr = binary.LittleEndian.AppendUint16(hdr, elem.Tag.Element)

	length := uint32(len(valBytes))
	if undefined {
		length = undefinedLength
	}
	switch {
	case !explicit:
		hdr = binary.LittleEndian.AppendUint32(hdr, length)
	case vr.VR(v).HasLongLength():
		hdr = append(hdr, v...)
		hdr = append(hdr, 0, 0)
		hdr = binary.LittleEndian.AppendUint32(hdr, length)
	default:
		if undefined || len(valBytes) > math.MaxUint16 {
			return fmt.Errorf("value of %d bytes does not fit VR %s", len(valBytes), v)
		}
		hdr = append(hdr, v...)
		hdr = binary.LittleEndian.AppendUint16(hdr, uint16(length))
	}

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(valBytes)
	return err
}

// encodeValue returns encoded bytes and whether the element uses undefined
// length (sequences and encapsulated pixel data).
func encodeValue(value interface{}, v string, explicit bool) ([]byte, bool, error) {
	if value == nil {
		return []byte{}, false, nil
	}

	switch val := value.(type) {
	case *PixelData:
		if val.IsEncapsulated {
			return encodeEncapsulatedPixelData(val), true, nil
		}
		var buf []byte
		for _, f := range val.Frames {
			buf = append(buf, f.Native...)
		}
		return pad(buf, 0x00), false, nil
	case []*Dataset:
		if v != string(vr.SQ) {
			return nil, false, fmt.Errorf("unexpected sequence for VR %s", v)
		}
		b, err := encodeSequence(val, explicit)
		return b, true, err
	case []byte:
		return pad(val, 0x00), false, nil
	case string:
		return pad([]byte(val), vr.VR(v).Padding()), false, nil
	case []string:
		return pad([]byte(strings.Join(val, `\`)), vr.VR(v).Padding()), false, nil
	}

	if vr.VR(v).IsString() {
		s, err := formatNumbers(value)
		if err != nil {
			return nil, false, fmt.Errorf("VR %s: %w", v, err)
		}
		return pad([]byte(s), ' '), false, nil
	}
	b, err := encodeBinary(value, vr.VR(v))
	if err != nil {
		return nil, false, err
	}
	return b, false, nil
}

// formatNumbers renders numeric values for DS/IS elements.
func formatNumbers(value interface{}) (string, error) {
	var parts []string
	switch val := value.(type) {
	case int:
		parts = []string{strconv.Itoa(val)}
	case []int:
		for _, i := range val {
			parts = append(parts, strconv.Itoa(i))
		}
	case float64:
		parts = []string{strconv.FormatFloat(val, 'g', 10, 64)}
	case []float64:
		for _, f := range val {
			parts = append(parts, strconv.FormatFloat(f, 'g', 10, 64))
		}
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
	return strings.Join(parts, `\`), nil
}

func encodeBinary(value interface{}, v vr.VR) ([]byte, error) {
	var nums []float64
	switch val := value.(type) {
	case uint16:
		nums = []float64{float64(val)}
	case []uint16:
		for _, n := range val {
			nums = append(nums, float64(n))
		}
	case int16:
		nums = []float64{float64(val)}
	case uint32:
		nums = []float64{float64(val)}
	case int32:
		nums = []float64{float64(val)}
	case int:
		nums = []float64{float64(val)}
	case []int:
		for _, n := range val {
			nums = append(nums, float64(n))
		}
	case float32:
		nums = []float64{float64(val)}
	case []float32:
		for _, n := range val {
			nums = append(nums, float64(n))
		}
	case float64:
		nums = []float64{val}
	case []float64:
		nums = val
	default:
		return nil, fmt.Errorf("unsupported value type %T for VR %s", value, v)
	}

	var b []byte
	for _, n := range nums {
		switch v {
		case vr.US, vr.SS:
			b = binary.LittleEndian.AppendUint16(b, uint16(int64(n)))
		case vr.UL, vr.SL:
			b = binary.LittleEndian.AppendUint32(b, uint32(int64(n)))
		case vr.FL:
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(n)))
		case vr.FD:
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(n))
		default:
			return nil, fmt.Errorf("numeric value for VR %s not implemented", v)
		}
	}
	return b, nil
}

func encodeSequence(items []*Dataset, explicit bool) ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range items {
		var body bytes.Buffer
		if _, err := writeDataSetBody(&body, item, explicit); err != nil {
			return nil, fmt.Errorf("failed to encode sequence item: %w", err)
		}
		writeItemHeader(&buf, tag.Item, uint32(body.Len()))
		buf.Write(body.Bytes())
	}
	writeItemHeader(&buf, tag.SequenceDelimitationItem, 0)
	return buf.Bytes(), nil
}

func encodeEncapsulatedPixelData(pd *PixelData) []byte {
	var buf bytes.Buffer
	writeItemHeader(&buf, tag.Item, uint32(len(pd.Offsets)*4))
	for _, off := range pd.Offsets {
		binary.Write(&buf, binary.LittleEndian, off)
	}
	for _, frame := range pd.Frames {
		data := pad(frame.CompressedData, 0x00)
		writeItemHeader(&buf, tag.Item, uint32(len(data)))
		buf.Write(data)
	}
	writeItemHeader(&buf, tag.SequenceDelimitationItem, 0)
	return buf.Bytes()
}

func writeItemHeader(buf *bytes.Buffer, t Tag, length uint32) {
	var hdr [8]byte
	binary.LittleEndian.PutUint16(hdr[0:], t.Group)
	binary.LittleEndian.PutUint16(hdr[2:], t.Element)
	binary.LittleEndian.PutUint32(hdr[4:], length)
	buf.Write(hdr[:])
}

func pad(b []byte, with byte) []byte {
	if len(b)%2 == 0 {
		return b
	}
	out := make([]byte, len(b), len(b)+1)
	copy(out, b)
	return append(out, with)
}

// CountingWriter counts bytes successfully written
type CountingWriter struct {
	Count  atomic.Int64
	Writer io.Writer
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.Writer.Write(p)
	c.Count.Add(int64(n))
	return n, err
}
