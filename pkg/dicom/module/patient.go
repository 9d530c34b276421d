package module

import "github.com/jpfielding/dcmview/pkg/dicom/tag"

// PatientModule is the Patient Module (C.7.1.1)
type PatientModule struct {
	PatientName      PersonName
	PatientID        string
	PatientBirthDate Date
	PatientSex       string // M, F, O
	PatientAge       string
}

func (m *PatientModule) Elements() []Element {
	return []Element{
		{Tag: tag.PatientName, Value: m.PatientName.String()},
		{Tag: tag.PatientID, Value: m.PatientID},
		{Tag: tag.PatientBirthDate, Value: m.PatientBirthDate.String()},
		{Tag: tag.PatientSex, Value: m.PatientSex},
		{Tag: tag.PatientAge, Value: m.PatientAge},
	}
}
