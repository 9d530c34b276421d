package dicom

import (
	"encoding/json"
	"fmt"

	"github.com/jpfielding/dcmview/pkg/metadata"
)

// Fields converts the dataset into a metadata field set. Numeric strings
// stay strings; multi-valued strings are split; single numbers are scalars;
// pixel data is summarized.
func (ds *Dataset) Fields() metadata.Fields {
	fs := metadata.Fields{}
	if ds == nil {
		return fs
	}
	for t, elem := range ds.Elements {
		fs.Add(metadata.NewField(t, elem.VR, fieldValue(elem)))
	}
	return fs
}

func fieldValue(elem *Element) interface{} {
	switch v := elem.Value.(type) {
	case *PixelData:
		if v.IsEncapsulated {
			return fmt.Sprintf("<encapsulated pixel data, %d fragments>", len(v.Frames))
		}
		return fmt.Sprintf("<pixel data, %d bytes>", v.Len())
	case []*Dataset:
		items := make([]metadata.Fields, len(v))
		for i, item := range v {
			items[i] = item.Fields()
		}
		return items
	case string:
		parts, _ := elem.GetStrings()
		if len(parts) == 1 {
			return v
		}
		return parts
	case []byte:
		return v
	case float32, float64, []float32, []float64:
		f, _ := elem.GetFloats()
		if len(f) == 1 {
			return f[0]
		}
		return f
	}
	if ints, ok := elem.GetInts(); ok {
		if len(ints) == 1 {
			return ints[0]
		}
		return ints
	}
	return fmt.Sprint(elem.Value)
}

// String returns a string representation of the Element
func (e *Element) String() string {
	return metadata.NewField(e.Tag, e.VR, fieldValue(e)).String()
}

// MarshalJSON returns a JSON representation of the Element
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(metadata.NewField(e.Tag, e.VR, fieldValue(e)))
}

// String returns a string representation of the Dataset
func (ds *Dataset) String() string {
	if ds == nil {
		return "<nil>"
	}
	return ds.Fields().String()
}

// MarshalJSON returns a sorted array of elements instead of a map
func (ds *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(ds.Fields())
}
