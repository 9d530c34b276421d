package module

import (
	"time"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
)

// GeneralStudyModule is the General Study Module (C.7.2.1)
type GeneralStudyModule struct {
	StudyInstanceUID string
	StudyDate        Date
	StudyTime        Time
	StudyID          string
	AccessionNumber  string
	StudyDescription string
}

// NewGeneralStudyModule stamps the study with the current date and time.
func NewGeneralStudyModule(uid string) GeneralStudyModule {
	t := time.Now()
	return GeneralStudyModule{
		StudyInstanceUID: uid,
		StudyDate:        NewDate(t),
		StudyTime:        NewTime(t),
	}
}

func (m *GeneralStudyModule) Elements() []Element {
	return []Element{
		{Tag: tag.StudyInstanceUID, Value: m.StudyInstanceUID},
		{Tag: tag.StudyDate, Value: m.StudyDate.String()},
		{Tag: tag.StudyTime, Value: m.StudyTime.String()},
		{Tag: tag.StudyID, Value: m.StudyID},
		{Tag: tag.AccessionNumber, Value: m.AccessionNumber},
		{Tag: tag.StudyDescription, Value: m.StudyDescription},
	}
}
