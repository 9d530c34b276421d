// Package metadata holds decoded attributes keyed by tag and answers
// single-field lookups for the header endpoints.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
)

// ErrNotFound is returned when a tag is absent from the field set.
var ErrNotFound = errors.New("tag not found")

// Field is one decoded attribute.
type Field struct {
	Tag     tag.Tag
	VR      string
	Keyword string
	// Value is one of string, []string, int, []int, float64, []float64,
	// []byte or []Fields (sequence items).
	Value interface{}
}

// NewField fills the keyword from the dictionary.
func NewField(t tag.Tag, vr string, value interface{}) Field {
	return Field{Tag: t, VR: vr, Keyword: t.Keyword(), Value: value}
}

// Name returns the keyword, or a placeholder for private and unknown tags.
func (f Field) Name() string {
	switch {
	case f.Keyword != "":
		return f.Keyword
	case f.Tag.IsPrivate():
		return "PrivateTag"
	}
	return "Unknown"
}

// ValueString renders the value for display. Multi-valued attributes are
// printed as a bracketed list, binary payloads by size.
func (f Field) ValueString() string {
	switch v := f.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 1 {
			return v[0]
		}
		return "[" + strings.Join(v, ", ") + "]"
	case []int:
		if len(v) == 1 {
			return fmt.Sprint(v[0])
		}
		return list(v)
	case []float64:
		if len(v) == 1 {
			return fmt.Sprint(v[0])
		}
		return list(v)
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	case []Fields:
		return fmt.Sprintf("<sequence of %d items>", len(v))
	}
	return fmt.Sprint(f.Value)
}

func list[T any](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Describe renders "Tag (0008,0080) : InstitutionName has value X".
func (f Field) Describe() string {
	return fmt.Sprintf("Tag %s : %s has value %s", f.Tag, f.Name(), f.ValueString())
}

// String returns a one-line dump entry.
func (f Field) String() string {
	return fmt.Sprintf("%s %s %s: %s", f.Tag, f.VR, f.Name(), f.ValueString())
}

// MarshalJSON emits the tag in (GGGG,EEEE) form; binary values are
// summarized rather than base64 encoded.
func (f Field) MarshalJSON() ([]byte, error) {
	var value interface{} = f.Value
	if b, ok := f.Value.([]byte); ok {
		value = fmt.Sprintf("<%d bytes>", len(b))
	}
	return json.Marshal(&struct {
		Tag     string      `json:"tag"`
		VR      string      `json:"vr"`
		Keyword string      `json:"keyword,omitempty"`
		Value   interface{} `json:"value"`
	}{
		Tag:     f.Tag.String(),
		VR:      f.VR,
		Keyword: f.Keyword,
		Value:   value,
	})
}

// Fields maps tags to fields; keys are unique by construction.
type Fields map[tag.Tag]Field

// Add inserts or replaces f.
func (fs Fields) Add(f Field) {
	fs[f.Tag] = f
}

// Lookup returns the field for (group, element).
func (fs Fields) Lookup(group, element uint16) (Field, error) {
	return fs.LookupTag(tag.New(group, element))
}

// LookupTag returns the field for t or ErrNotFound.
func (fs Fields) LookupTag(t tag.Tag) (Field, error) {
	f, ok := fs[t]
	if !ok {
		return Field{}, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	return f, nil
}

// Sorted returns the fields in tag order.
func (fs Fields) Sorted() []Field {
	out := make([]Field, 0, len(fs))
	for _, f := range fs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag.Less(out[j].Tag) })
	return out
}

// String dumps every field, one per line, in tag order.
func (fs Fields) String() string {
	var b strings.Builder
	for _, f := range fs.Sorted() {
		b.WriteString(f.String())
		b.WriteString("\n")
	}
	return b.String()
}

// MarshalJSON returns a tag-ordered array instead of an object.
func (fs Fields) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.Sorted())
}
