package module

import (
	"encoding/binary"
	"strings"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
)

// VOILUTModule is the VOI LUT Module (C.11.2): linear windows, an optional
// VOI LUT sequence and the window function.
type VOILUTModule struct {
	// Windows are the display presets, first one is the default
	Windows []WindowLevel
	LUTs    []VOILUT
	// VOILUTFunction is LINEAR (default), LINEAR_EXACT or SIGMOID
	VOILUTFunction string
}

// WindowLevel is one center/width preset
type WindowLevel struct {
	Center      float64
	Width       float64
	Explanation string // e.g. BONE, SOFT_TISSUE
}

// VOILUT is one item of the VOI LUT Sequence.
type VOILUT struct {
	// FirstMapped is the first stored value mapped by Data[0]
	FirstMapped  int
	BitsPerEntry int
	Data         []uint16
	Explanation  string
}

// NewVOILUTModuleForCT returns common CT presets in Hounsfield units.
func NewVOILUTModuleForCT() *VOILUTModule {
	return &VOILUTModule{
		Windows: []WindowLevel{
			{Center: 40, Width: 400, Explanation: "SOFT_TISSUE"},
			{Center: 400, Width: 2000, Explanation: "BONE"},
			{Center: -600, Width: 1500, Explanation: "LUNG"},
			{Center: 50, Width: 350, Explanation: "BRAIN"},
		},
		VOILUTFunction: "LINEAR",
	}
}

// NewVOILUTModuleForDX returns a full range 16-bit preset.
func NewVOILUTModuleForDX() *VOILUTModule {
	return &VOILUTModule{
		Windows:        []WindowLevel{{Center: 32768, Width: 65535, Explanation: "DEFAULT"}},
		VOILUTFunction: "LINEAR",
	}
}

// AddWindow appends a preset
func (m *VOILUTModule) AddWindow(center, width float64, explanation string) {
	m.Windows = append(m.Windows, WindowLevel{Center: center, Width: width, Explanation: explanation})
}

func (m *VOILUTModule) Elements() []Element {
	var elements []Element
	if len(m.Windows) > 0 {
		centers := make([]float64, len(m.Windows))
		widths := make([]float64, len(m.Windows))
		explanations := make([]string, len(m.Windows))
		for i, w := range m.Windows {
			centers[i], widths[i], explanations[i] = w.Center, w.Width, w.Explanation
		}
		elements = append(elements,
			Element{Tag: tag.WindowCenter, Value: centers},
			Element{Tag: tag.WindowWidth, Value: widths},
		)
		if strings.Join(explanations, "") != "" {
			elements = append(elements, Element{Tag: tag.WindowCenterWidthExplanation, Value: explanations})
		}
	}
	if m.VOILUTFunction != "" && m.VOILUTFunction != "LINEAR" {
		elements = append(elements, Element{Tag: tag.VOILUTFunction, Value: m.VOILUTFunction})
	}
	if len(m.LUTs) > 0 {
		items := make([]Item, len(m.LUTs))
		for i, l := range m.LUTs {
			items[i] = l.Item()
		}
		elements = append(elements, Element{Tag: tag.VOILUTSequence, Value: items})
	}
	return elements
}

// Item encodes the LUT descriptor and little endian LUT data.
func (l VOILUT) Item() Item {
	words := make([]byte, 0, len(l.Data)*2)
	for _, d := range l.Data {
		words = binary.LittleEndian.AppendUint16(words, d)
	}
	return Item{
		// 65536 entries are written as 0
		{Tag: tag.LUTDescriptor, Value: []uint16{uint16(len(l.Data)), uint16(l.FirstMapped), uint16(l.BitsPerEntry)}},
		{Tag: tag.LUTExplanation, Value: l.Explanation},
		{Tag: tag.LUTData, Value: words},
	}
}
