package dicom

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
)

// Dataset represents a complete DICOM dataset
type Dataset struct {
	Elements map[Tag]*Element
}

// Element represents a single DICOM element
type Element struct {
	Tag   Tag
	VR    string      // Value Representation
	Value interface{} // Parsed value
}

// Tag alias to avoid duplication
type Tag = tag.Tag

// PixelData represents pixel data (native or encapsulated)
type PixelData struct {
	IsEncapsulated bool
	Frames         []Frame
	Offsets        []uint32 // Basic Offset Table for encapsulated data
}

// Frame represents a single frame of pixel data
type Frame struct {
	// Native holds little-endian packed samples of uncompressed data.
	Native []byte

	// For encapsulated (compressed) data
	CompressedData []byte
}

// Len returns the payload size in bytes.
func (pd *PixelData) Len() int {
	n := 0
	for _, f := range pd.Frames {
		n += len(f.Native) + len(f.CompressedData)
	}
	return n
}

// FindElement returns an element by tag
func (ds *Dataset) FindElement(group, element uint16) (*Element, bool) {
	return ds.Find(Tag{Group: group, Element: element})
}

// Find returns the element for t.
func (ds *Dataset) Find(t Tag) (*Element, bool) {
	if ds == nil {
		return nil, false
	}
	elem, ok := ds.Elements[t]
	return elem, ok
}

// GetString returns a string value from an element
func (elem *Element) GetString() (string, bool) {
	if s, ok := elem.Value.(string); ok {
		return s, true
	}
	return "", false
}

// GetStrings splits a multi-valued string on backslash.
func (elem *Element) GetStrings() ([]string, bool) {
	switch v := elem.Value.(type) {
	case string:
		parts := strings.Split(v, `\`)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, true
	case []string:
		return v, true
	}
	return nil, false
}

// GetInt returns the first value as an int
func (elem *Element) GetInt() (int, bool) {
	vs, ok := elem.GetInts()
	if !ok || len(vs) == 0 {
		return 0, false
	}
	return vs[0], true
}

// GetInts returns a slice of ints from an element; IS strings are parsed and
// OW payloads are read as little-endian words.
func (elem *Element) GetInts() ([]int, bool) {
	switch v := elem.Value.(type) {
	case uint16:
		return []int{int(v)}, true
	case uint32:
		return []int{int(v)}, true
	case int16:
		return []int{int(v)}, true
	case int32:
		return []int{int(v)}, true
	case int:
		return []int{v}, true
	case []uint16:
		return convertInts(v), true
	case []uint32:
		return convertInts(v), true
	case []int16:
		return convertInts(v), true
	case []int32:
		return convertInts(v), true
	case []int:
		return v, true
	case string:
		parts, _ := elem.GetStrings()
		res := make([]int, 0, len(parts))
		for _, p := range parts {
			i, err := strconv.Atoi(p)
			if err != nil {
				// IS values are occasionally written as decimals
				f, ferr := strconv.ParseFloat(p, 64)
				if ferr != nil {
					return nil, false
				}
				i = int(f)
			}
			res = append(res, i)
		}
		return res, true
	case []byte:
		if len(v)%2 == 0 {
			res := make([]int, len(v)/2)
			for i := range res {
				res[i] = int(binary.LittleEndian.Uint16(v[i*2:]))
			}
			return res, true
		}
	}
	return nil, false
}

// GetFloats returns a slice of float64s from an element; DS strings are parsed.
func (elem *Element) GetFloats() ([]float64, bool) {
	switch v := elem.Value.(type) {
	case []float32:
		res := make([]float64, len(v))
		for i, val := range v {
			res[i] = float64(val)
		}
		return res, true
	case []float64:
		return v, true
	case float32:
		return []float64{float64(v)}, true
	case float64:
		return []float64{v}, true
	case string:
		parts, _ := elem.GetStrings()
		res := make([]float64, 0, len(parts))
		for _, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil || math.IsNaN(f) {
				return nil, false
			}
			res = append(res, f)
		}
		return res, true
	}
	if ints, ok := elem.GetInts(); ok {
		res := make([]float64, len(ints))
		for i, val := range ints {
			res[i] = float64(val)
		}
		return res, true
	}
	return nil, false
}

// GetSequence returns the items of an SQ element.
func (elem *Element) GetSequence() ([]*Dataset, bool) {
	items, ok := elem.Value.([]*Dataset)
	return items, ok
}

// GetPixelData returns pixel data from an element
func (elem *Element) GetPixelData() (*PixelData, bool) {
	if pd, ok := elem.Value.(*PixelData); ok {
		return pd, true
	}
	return nil, false
}

func convertInts[T uint16 | uint32 | int16 | int32](vs []T) []int {
	res := make([]int, len(vs))
	for i, v := range vs {
		res[i] = int(v)
	}
	return res
}
