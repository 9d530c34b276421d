package dicom

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
	"github.com/jpfielding/dcmview/pkg/dicom/vr"
	"github.com/klauspost/compress/flate"
)

const undefinedLength = 0xFFFFFFFF

// Reader reads DICOM files
type Reader struct {
	br  *bufio.Reader
	src io.Reader // br, or an inflater over it for deflated datasets
	pos int64
	// limit is the number of readable bytes, <= 0 when unknown
	limit int64

	syntax     transfer.Syntax
	explicitVR bool
	metaDone   bool
	// metaEnd is the offset after the file meta group when its length is known
	metaEnd int64
}

// NewReader creates a reader; size bounds element lengths when known (> 0).
func NewReader(r io.Reader, size int64) *Reader {
	br := bufio.NewReader(r)
	return &Reader{
		br:         br,
		src:        br,
		limit:      size,
		explicitVR: true,
	}
}

// Parse reads a complete DICOM file of unknown size
func Parse(r io.Reader) (*Dataset, error) {
	return NewReader(r, -1).ReadDataset()
}

// TransferSyntax is the syntax in effect after the file meta group.
func (r *Reader) TransferSyntax() transfer.Syntax {
	return r.syntax
}

// ReadDataset reads the preamble, file meta group and dataset.
func (r *Reader) ReadDataset() (*Dataset, error) {
	var head [132]byte
	if err := r.readFull(head[:]); err != nil {
		return nil, fmt.Errorf("%w: reading preamble: %v", ErrNotDICOM, err)
	}
	if string(head[128:]) != "DICM" {
		return nil, fmt.Errorf("%w: missing DICM magic", ErrNotDICOM)
	}

	ds := newDataset()
	for {
		if !r.metaDone && r.atMetaEnd() {
			if err := r.endMeta(); err != nil {
				return nil, err
			}
		}

		t, err := r.readTag()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tag: %w", err)
		}

		elem, err := r.readElement(t)
		if err != nil {
			return nil, fmt.Errorf("reading element %v: %w", t, err)
		}
		ds.Elements[t] = elem

		switch t {
		case tag.FileMetaInformationGroupLength:
			if n, ok := elem.GetInt(); ok && n > 0 {
				r.metaEnd = r.pos + int64(n)
			}
		case tag.TransferSyntaxUID:
			if s, ok := elem.GetString(); ok {
				r.syntax = transfer.FromUID(s)
			}
		}
	}
	return ds, nil
}

// atMetaEnd uses the group length when present, otherwise peeks at the next
// group number.
func (r *Reader) atMetaEnd() bool {
	if r.metaEnd > 0 {
		return r.pos >= r.metaEnd
	}
	peek, err := r.br.Peek(2)
	return err == nil && binary.LittleEndian.Uint16(peek) != 0x0002
}

// endMeta switches decoding to the dataset's transfer syntax.
func (r *Reader) endMeta() error {
	r.metaDone = true
	if r.syntax == "" {
		r.syntax = transfer.ImplicitVRLittleEndian
	}
	if !r.syntax.IsLittleEndian() {
		return fmt.Errorf("%w: %s", ErrUnsupported, r.syntax.Name())
	}
	r.explicitVR = r.syntax.IsExplicitVR()
	if r.syntax.IsDeflated() {
		r.src = flate.NewReader(r.br)
		r.limit = -1
	}
	return nil
}

func (r *Reader) readFull(p []byte) error {
	n, err := io.ReadFull(r.src, p)
	r.pos += int64(n)
	return err
}

func (r *Reader) u16() (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, unexpected(err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (r *Reader) u32() (uint32, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, unexpected(err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// readTag returns io.EOF only on a clean element boundary.
func (r *Reader) readTag() (Tag, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		if err == io.EOF {
			return Tag{}, io.EOF
		}
		return Tag{}, unexpected(err)
	}
	return Tag{
		Group:   binary.LittleEndian.Uint16(b[0:]),
		Element: binary.LittleEndian.Uint16(b[2:]),
	}, nil
}

// readHeader reads the VR and value length following a tag.
func (r *Reader) readHeader(t Tag) (string, uint32, error) {
	if !r.explicitVR {
		vl, err := r.u32()
		return t.VR(), vl, err
	}
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return "", 0, unexpected(err)
	}
	v := string(b[:])
	if !vr.Valid(v) {
		return "", 0, fmt.Errorf("%w: invalid VR %q", ErrMalformed, v)
	}
	if vr.VR(v).HasLongLength() {
		if _, err := r.u16(); err != nil {
			return "", 0, err
		}
		vl, err := r.u32()
		return v, vl, err
	}
	vl, err := r.u16()
	return v, uint32(vl), err
}

// readElement reads a DICOM element after the tag has been read
func (r *Reader) readElement(t Tag) (*Element, error) {
	v, vl, err := r.readHeader(t)
	if err != nil {
		return nil, err
	}

	switch {
	case t == tag.PixelData:
		pd, err := r.readPixelData(vl)
		if err != nil {
			return nil, err
		}
		return &Element{Tag: t, VR: v, Value: pd}, nil
	case v == string(vr.SQ):
		items, err := r.readSequence(vl)
		if err != nil {
			return nil, err
		}
		return &Element{Tag: t, VR: v, Value: items}, nil
	case v == string(vr.UN) && vl == undefinedLength:
		// an undefined length UN is a sequence encoded implicit VR
		explicit := r.explicitVR
		r.explicitVR = false
		items, err := r.readSequence(vl)
		r.explicitVR = explicit
		if err != nil {
			return nil, err
		}
		return &Element{Tag: t, VR: string(vr.SQ), Value: items}, nil
	case vl == undefinedLength:
		return nil, fmt.Errorf("%w: undefined length for VR %s", ErrMalformed, v)
	}

	data, err := r.readValue(vl)
	if err != nil {
		return nil, err
	}
	return &Element{Tag: t, VR: v, Value: parseValue(v, data)}, nil
}

// readValue reads vl bytes. With an unknown limit the buffer grows with the
// data actually read rather than trusting the declared length.
func (r *Reader) readValue(vl uint32) ([]byte, error) {
	if r.limit > 0 {
		if remaining := r.limit - r.pos; int64(vl) > remaining {
			return nil, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformed, vl, remaining)
		}
		data := make([]byte, vl)
		if err := r.readFull(data); err != nil {
			return nil, unexpected(err)
		}
		return data, nil
	}
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r.src, int64(vl))
	r.pos += n
	if err != nil {
		return nil, unexpected(err)
	}
	return buf.Bytes(), nil
}

// readSequence reads items until the delimiter or the declared length.
func (r *Reader) readSequence(vl uint32) ([]*Dataset, error) {
	items := []*Dataset{}
	end := r.pos + int64(vl)
	for vl == undefinedLength || r.pos < end {
		t, err := r.readTag()
		if err != nil {
			return nil, unexpected(err)
		}
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		switch t {
		case tag.SequenceDelimitationItem:
			return items, nil
		case tag.Item:
			item, err := r.readItem(length)
			if err != nil {
				return nil, fmt.Errorf("sequence item %d: %w", len(items), err)
			}
			items = append(items, item)
		default:
			return nil, fmt.Errorf("%w: unexpected %v in sequence", ErrMalformed, t)
		}
	}
	return items, nil
}

func (r *Reader) readItem(length uint32) (*Dataset, error) {
	ds := newDataset()
	end := r.pos + int64(length)
	for length == undefinedLength || r.pos < end {
		t, err := r.readTag()
		if err != nil {
			return nil, unexpected(err)
		}
		if t == tag.ItemDelimitationItem {
			if _, err := r.u32(); err != nil {
				return nil, err
			}
			break
		}
		elem, err := r.readElement(t)
		if err != nil {
			return nil, fmt.Errorf("element %v: %w", t, err)
		}
		ds.Elements[t] = elem
	}
	return ds, nil
}

func (r *Reader) readPixelData(vl uint32) (*PixelData, error) {
	if vl == undefinedLength {
		return r.readEncapsulatedPixelData()
	}
	data, err := r.readValue(vl)
	if err != nil {
		return nil, err
	}
	return &PixelData{Frames: []Frame{{Native: data}}}, nil
}

// readEncapsulatedPixelData reads the offset table and fragments; the
// fragments are kept so the dataset can be dumped, not decoded.
func (r *Reader) readEncapsulatedPixelData() (*PixelData, error) {
	pd := &PixelData{IsEncapsulated: true}

	bot, err := r.readTag()
	if err != nil {
		return nil, unexpected(err)
	}
	if bot != tag.Item {
		return nil, fmt.Errorf("%w: expected offset table item, got %v", ErrMalformed, bot)
	}
	botLength, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < botLength/4; i++ {
		off, err := r.u32()
		if err != nil {
			return nil, err
		}
		pd.Offsets = append(pd.Offsets, off)
	}

	for {
		t, err := r.readTag()
		if err != nil {
			return nil, unexpected(err)
		}
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		if t == tag.SequenceDelimitationItem {
			return pd, nil
		}
		if t != tag.Item {
			return nil, fmt.Errorf("%w: expected fragment item, got %v", ErrMalformed, t)
		}
		data, err := r.readValue(length)
		if err != nil {
			return nil, err
		}
		pd.Frames = append(pd.Frames, Frame{CompressedData: data})
	}
}

// parseValue converts raw bytes to typed value based on VR. Single values
// are returned as scalars, multiple values as slices.
func parseValue(v string, data []byte) interface{} {
	switch vr.VR(v) {
	case vr.US:
		return words(data, 2, func(b []byte) uint16 { return binary.LittleEndian.Uint16(b) })
	case vr.SS:
		return words(data, 2, func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })
	case vr.UL:
		return words(data, 4, func(b []byte) uint32 { return binary.LittleEndian.Uint32(b) })
	case vr.SL:
		return words(data, 4, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
	case vr.FL:
		return words(data, 4, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })
	case vr.FD:
		return words(data, 8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })
	}
	if vr.VR(v).IsString() {
		return string(bytes.TrimRight(data, "\x00 "))
	}
	return data
}

func words[T any](data []byte, size int, conv func([]byte) T) interface{} {
	n := len(data) / size
	if n == 1 {
		return conv(data)
	}
	values := make([]T, n)
	for i := range values {
		values[i] = conv(data[i*size:])
	}
	return values
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated stream", ErrMalformed)
	}
	return err
}

func newDataset() *Dataset {
	return &Dataset{Elements: make(map[Tag]*Element)}
}
