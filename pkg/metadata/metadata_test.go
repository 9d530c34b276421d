package metadata

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Fields {
	fs := Fields{}
	fs.Add(NewField(tag.InstitutionName, "LO", "General Hospital"))
	fs.Add(NewField(tag.Rows, "US", []int{512}))
	fs.Add(NewField(tag.WindowCenter, "DS", []float64{40, 400}))
	fs.Add(NewField(tag.New(0x0009, 0x0010), "LO", "ACME"))
	fs.Add(NewField(tag.LUTData, "OW", []byte{1, 2, 3, 4}))
	return fs
}

func TestLookup(t *testing.T) {
	fs := sample()

	f, err := fs.Lookup(0x0008, 0x0080)
	require.NoError(t, err)
	assert.Equal(t, "InstitutionName", f.Keyword)
	assert.Equal(t, "Tag (0008,0080) : InstitutionName has value General Hospital", f.Describe())

	_, err = fs.Lookup(0x0010, 0x0010)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestValueString(t *testing.T) {
	fs := sample()
	f, _ := fs.LookupTag(tag.Rows)
	assert.Equal(t, "512", f.ValueString())
	f, _ = fs.LookupTag(tag.WindowCenter)
	assert.Equal(t, "[40, 400]", f.ValueString())
	f, _ = fs.LookupTag(tag.LUTData)
	assert.Equal(t, "<4 bytes>", f.ValueString())
	f, _ = fs.Lookup(0x0009, 0x0010)
	assert.Equal(t, "PrivateTag", f.Name())

	seq := NewField(tag.VOILUTSequence, "SQ", []Fields{{}, {}})
	assert.Equal(t, "<sequence of 2 items>", seq.ValueString())
}

func TestSortedAndJSON(t *testing.T) {
	fs := sample()
	sorted := fs.Sorted()
	require.Len(t, sorted, 5)
	for i := 1; i < len(sorted); i++ {
		assert.True(t, sorted[i-1].Tag.Less(sorted[i].Tag))
	}

	b, err := json.Marshal(fs)
	require.NoError(t, err)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 5)
	assert.Equal(t, "(0008,0080)", out[0]["tag"])
	assert.Equal(t, "General Hospital", out[0]["value"])
	assert.Equal(t, "<4 bytes>", out[4]["value"])

	assert.Contains(t, fs.String(), "(0028,1050) DS WindowCenter: [40, 400]")
}
