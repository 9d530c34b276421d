package dicom

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInstanceUID = "1.2.826.0.1.3680043.8.498.99"

func build(t *testing.T, syntax transfer.Syntax, opts ...Option) []byte {
	t.Helper()
	base := []Option{
		WithFileMeta(SecondaryCaptureUID, testInstanceUID, syntax),
		WithElement(tag.Modality, "OT"),
		WithElement(tag.InstitutionName, "General Hospital"),
		WithElement(tag.PatientName, "Doe^Jane"),
	}
	ds, err := NewDataset(append(base, opts...)...)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Write(&buf, ds)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func grid() []int {
	return []int{
		0, 100, 200, 300,
		400, 500, 600, 700,
		800, 900, 1000, 4095,
	}
}

func TestRoundTrip(t *testing.T) {
	for _, syntax := range []transfer.Syntax{
		transfer.ExplicitVRLittleEndian,
		transfer.ImplicitVRLittleEndian,
		transfer.DeflatedExplicitVR,
	} {
		t.Run(syntax.Name(), func(t *testing.T) {
			data := build(t, syntax,
				WithPixelData(3, 4, 16, 12, false, grid()),
				WithWindows([]float64{40, 400}, []float64{400, 2000}, "SOFT", "BONE"),
				WithRescale(1, -1024),
			)

			img, err := ReadBuffer(data)
			require.NoError(t, err)
			assert.Equal(t, syntax, img.TransferSyntax)
			assert.Equal(t, 3, img.Rows)
			assert.Equal(t, 4, img.Cols)
			assert.Equal(t, Monochrome2, img.Photometric)
			assert.False(t, img.Inverted())

			want := make([]float64, 0, 12)
			for _, v := range grid() {
				want = append(want, float64(v))
			}
			assert.Equal(t, want, img.Matrix.Values())

			w := img.Windowing
			require.Len(t, w.Windows, 2)
			assert.Equal(t, imaging.Window{Center: 40, Width: 400, Explanation: "SOFT"}, w.Windows[0])
			assert.Equal(t, imaging.Window{Center: 400, Width: 2000, Explanation: "BONE"}, w.Windows[1])
			assert.Equal(t, imaging.Rescale{Slope: 1, Intercept: -1024}, w.Rescale)
			assert.Equal(t, imaging.DisplayRange{Min: 0, Max: 4095}, w.Range)
			assert.Equal(t, imaging.VOILinear, w.Function)

			f, err := img.Fields.Lookup(0x0008, 0x0080)
			require.NoError(t, err)
			assert.Equal(t, "Tag (0008,0080) : InstitutionName has value General Hospital", f.Describe())
		})
	}
}

func TestFileMetaGroupLength(t *testing.T) {
	data := build(t, transfer.ExplicitVRLittleEndian, WithPixelData(1, 1, 8, 8, false, []int{7}))
	ds, err := NewReader(bytes.NewReader(data), int64(len(data))).ReadDataset()
	require.NoError(t, err)

	elem, ok := ds.Find(tag.FileMetaInformationGroupLength)
	require.True(t, ok)
	length, ok := elem.GetInt()
	require.True(t, ok)

	// preamble + magic + group length element (12 bytes) + meta body
	body := data[132+12+length:]
	assert.Equal(t, []byte{0x08, 0x00}, body[:2], "dataset starts right after the meta group")
}

func TestSignedPixels(t *testing.T) {
	samples := []int{-2048, -1, 0, 2047}
	data := build(t, transfer.ExplicitVRLittleEndian, WithPixelData(2, 2, 16, 12, true, samples))

	img, err := ReadBuffer(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{-2048, -1, 0, 2047}, img.Matrix.Values())
	assert.Equal(t, imaging.DisplayRange{Min: -2048, Max: 2047}, img.Windowing.Range)
}

func TestDecodeSamplesMasksHighBits(t *testing.T) {
	// 12 bits stored with garbage in the top nibble
	raw := []byte{0xFB, 0xFF, 0x05, 0xA0}
	got, err := decodeSamples(raw, 2, 16, 12, true)
	require.NoError(t, err)
	assert.Equal(t, []int{-5, 5}, got)

	got, err = decodeSamples(raw, 2, 16, 12, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0xFFB, 5}, got)

	_, err = decodeSamples(raw, 4, 16, 12, false)
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = decodeSamples(raw, 1, 12, 12, false)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestMonochrome1(t *testing.T) {
	data := build(t, transfer.ExplicitVRLittleEndian,
		WithElement(tag.PhotometricInterpretation, Monochrome1),
		WithPixelData(1, 2, 8, 8, false, []int{0, 255}),
	)
	img, err := ReadBuffer(data)
	require.NoError(t, err)
	assert.True(t, img.Inverted())
}

func TestVOILUTSequence(t *testing.T) {
	for _, syntax := range []transfer.Syntax{transfer.ExplicitVRLittleEndian, transfer.ImplicitVRLittleEndian} {
		t.Run(syntax.Name(), func(t *testing.T) {
			data := build(t, syntax,
				WithPixelData(1, 4, 16, 16, false, []int{0, 10, 11, 500}),
				WithWindows([]float64{100}, []float64{50}),
				WithVOILUT(10, 16, []uint16{1000, 2000, 3000}, "CUSTOM"),
			)
			img, err := ReadBuffer(data)
			require.NoError(t, err)

			require.Len(t, img.Windowing.LUTs, 1)
			lut := img.Windowing.LUTs[0]
			assert.Equal(t, 10, lut.FirstMapped)
			assert.Equal(t, 16, lut.BitsPerEntry)
			assert.Equal(t, []float64{1000, 2000, 3000}, lut.Data)
			assert.Equal(t, "CUSTOM", lut.Explanation)

			out, err := imaging.ApplyVOI(img.Matrix, img.Windowing, 0)
			require.NoError(t, err)
			assert.Equal(t, []float64{1000, 1000, 2000, 3000}, out.Values())

			seq, err := img.Fields.LookupTag(tag.VOILUTSequence)
			require.NoError(t, err)
			assert.Equal(t, "<sequence of 1 items>", seq.ValueString())
		})
	}
}

func TestUnsupported(t *testing.T) {
	encapsulated := &PixelData{
		IsEncapsulated: true,
		Frames:         []Frame{{CompressedData: []byte{0xFF, 0xD8, 0xFF, 0xD9}}},
	}
	data := build(t, transfer.JPEGBaseline,
		WithPixelData(2, 2, 8, 8, false, []int{1, 2, 3, 4}),
		WithElementVR(tag.PixelData, "OB", encapsulated),
	)
	_, err := ReadBuffer(data)
	assert.True(t, errors.Is(err, ErrUnsupported))

	// the dataset itself is still readable
	ds, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	elem, ok := ds.Find(tag.PixelData)
	require.True(t, ok)
	pd, ok := elem.GetPixelData()
	require.True(t, ok)
	assert.True(t, pd.IsEncapsulated)
	require.Len(t, pd.Frames, 1)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, pd.Frames[0].CompressedData)

	color := build(t, transfer.ExplicitVRLittleEndian,
		WithPixelData(1, 1, 8, 8, false, []int{1}),
		WithElement(tag.SamplesPerPixel, uint16(3)),
	)
	_, err = ReadBuffer(color)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestErrors(t *testing.T) {
	_, err := ReadBuffer([]byte("short"))
	assert.True(t, errors.Is(err, ErrNotDICOM))

	_, err = ReadBuffer(make([]byte, 200))
	assert.True(t, errors.Is(err, ErrNotDICOM))

	noPixels := build(t, transfer.ExplicitVRLittleEndian)
	_, err = ReadBuffer(noPixels)
	assert.True(t, errors.Is(err, ErrNoPixelData))

	full := build(t, transfer.ExplicitVRLittleEndian, WithPixelData(8, 8, 16, 16, false, make([]int, 64)))
	truncated := full[:len(full)-20]
	_, err = ReadBuffer(truncated)
	assert.True(t, errors.Is(err, ErrMalformed))
	_, err = Parse(bytes.NewReader(truncated))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestWriteReadFile(t *testing.T) {
	ds, err := NewDataset(
		WithFileMeta(SecondaryCaptureUID, testInstanceUID, transfer.ExplicitVRLittleEndian),
		WithPixelData(2, 2, 16, 16, false, []int{1, 2, 3, 65535}),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "IM000001")
	_, err = WriteFile(path, ds)
	require.NoError(t, err)

	img, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 65535}, img.Matrix.Values())

	parsed, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, GetRows(parsed))
	assert.Contains(t, parsed.String(), "(0028,0010) US Rows: 2")
}

func TestStoredValue(t *testing.T) {
	assert.Equal(t, -1, StoredValue(0xFFFF, 16, true))
	assert.Equal(t, 0xFFFF, StoredValue(0xFFFF, 16, false))
	assert.Equal(t, -128, StoredValue(0x80, 8, true))
	assert.Equal(t, 0x7F, StoredValue(0xF07F, 8, true))
	assert.Equal(t, -1, StoredValue(0xFFFFFFFF, 32, true))
}
