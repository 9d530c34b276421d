package module

import (
	"testing"
	"time"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonName(t *testing.T) {
	assert.Equal(t, "Doe^Jane", PersonName{FamilyName: "Doe", GivenName: "Jane"}.String())
	assert.Equal(t, "Doe^^^Dr", PersonName{FamilyName: "Doe", Prefix: "Dr"}.String())
	assert.Equal(t, "", PersonName{}.String())
}

func TestDateTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 3, 120000000, time.UTC)
	assert.Equal(t, "20240309", NewDate(ts).String())
	assert.Equal(t, "070503.120000", NewTime(ts).String())
	assert.Equal(t, "", Date{}.String())
}

func TestVOILUTModule(t *testing.T) {
	m := NewVOILUTModuleForCT()
	m.VOILUTFunction = "SIGMOID"
	m.LUTs = []VOILUT{{FirstMapped: 10, BitsPerEntry: 16, Data: []uint16{1, 0x0203}}}

	byTag := map[tag.Tag]interface{}{}
	for _, e := range m.Elements() {
		byTag[e.Tag] = e.Value
	}
	assert.Equal(t, []float64{40, 400, -600, 50}, byTag[tag.WindowCenter])
	assert.Equal(t, []float64{400, 2000, 1500, 350}, byTag[tag.WindowWidth])
	assert.Equal(t, []string{"SOFT_TISSUE", "BONE", "LUNG", "BRAIN"}, byTag[tag.WindowCenterWidthExplanation])
	assert.Equal(t, "SIGMOID", byTag[tag.VOILUTFunction])

	items, ok := byTag[tag.VOILUTSequence].([]Item)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, []uint16{2, 10, 16}, items[0][0].Value)
	assert.Equal(t, []byte{1, 0, 3, 2}, items[0][2].Value)
}

func TestVOILUTModule_LinearDefaultOmitted(t *testing.T) {
	m := &VOILUTModule{VOILUTFunction: "LINEAR"}
	m.AddWindow(100, 50, "")
	elems := m.Elements()
	require.Len(t, elems, 2, "no explanation and no function for plain LINEAR")
	assert.Equal(t, tag.WindowCenter, elems[0].Tag)
	assert.Equal(t, tag.WindowWidth, elems[1].Tag)
}
