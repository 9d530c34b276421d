package module

import (
	"strconv"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
)

// GeneralSeriesModule is the General Series Module (C.7.3.1)
type GeneralSeriesModule struct {
	Modality          string
	SeriesInstanceUID string
	SeriesNumber      int
	SeriesDescription string
}

func (m *GeneralSeriesModule) Elements() []Element {
	return []Element{
		{Tag: tag.Modality, Value: m.Modality},
		{Tag: tag.SeriesInstanceUID, Value: m.SeriesInstanceUID},
		{Tag: tag.SeriesNumber, Value: strconv.Itoa(m.SeriesNumber)},
		{Tag: tag.SeriesDescription, Value: m.SeriesDescription},
	}
}
