package dicom

import (
	"encoding/binary"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/imaging"
)

// Windowing collects the VOI attributes of ds: center/width pairs, VOI LUT
// sequence items, the VOI LUT function, the stored value range and the
// modality rescale.
func Windowing(ds *Dataset) imaging.WindowingParameters {
	signed := GetPixelRepresentation(ds) == 1
	slope, intercept := GetRescale(ds)
	p := imaging.WindowingParameters{
		Function: imaging.ParseVOIFunction(ds.str(tag.VOILUTFunction)),
		Range:    imaging.RangeForBits(GetBitsStored(ds), signed),
		Rescale:  imaging.Rescale{Slope: slope, Intercept: intercept},
	}

	centers, widths := ds.floats(tag.WindowCenter), ds.floats(tag.WindowWidth)
	var explanations []string
	if elem, ok := ds.Find(tag.WindowCenterWidthExplanation); ok {
		explanations, _ = elem.GetStrings()
	}
	for i := 0; i < len(centers) && i < len(widths); i++ {
		w := imaging.Window{Center: centers[i], Width: widths[i]}
		if i < len(explanations) {
			w.Explanation = explanations[i]
		}
		p.Windows = append(p.Windows, w)
	}

	if elem, ok := ds.Find(tag.VOILUTSequence); ok {
		items, _ := elem.GetSequence()
		for _, item := range items {
			if lut, ok := voiLUT(item, signed); ok {
				p.LUTs = append(p.LUTs, lut)
			}
		}
	}
	return p
}

// voiLUT reads one VOI LUT item. The descriptor is (entries, first mapped,
// bits); 0 entries means 65536, and the first mapped value is signed when
// the pixel data is.
func voiLUT(item *Dataset, signed bool) (imaging.LUT, bool) {
	descElem, ok := item.Find(tag.LUTDescriptor)
	if !ok {
		return imaging.LUT{}, false
	}
	desc, ok := descElem.GetInts()
	if !ok || len(desc) < 3 {
		return imaging.LUT{}, false
	}
	entries, first, bits := desc[0], desc[1], desc[2]
	if entries == 0 {
		entries = 1 << 16
	}
	if signed && first > 0x7FFF {
		first -= 1 << 16
	}

	dataElem, ok := item.Find(tag.LUTData)
	if !ok {
		return imaging.LUT{}, false
	}
	var data []float64
	switch v := dataElem.Value.(type) {
	case []byte:
		if bits <= 8 && len(v) < 2*entries {
			// 8-bit entries packed one per byte
			for _, b := range v[:min(len(v), entries)] {
				data = append(data, float64(b))
			}
		} else {
			for i := 0; i+1 < len(v) && len(data) < entries; i += 2 {
				data = append(data, float64(binary.LittleEndian.Uint16(v[i:])))
			}
		}
	default:
		ints, ok := dataElem.GetInts()
		if !ok {
			return imaging.LUT{}, false
		}
		for _, d := range ints {
			data = append(data, float64(d))
		}
	}
	if len(data) == 0 {
		return imaging.LUT{}, false
	}

	return imaging.LUT{
		FirstMapped:  first,
		BitsPerEntry: bits,
		Data:         data,
		Explanation:  item.str(tag.LUTExplanation),
	}, true
}
