package module

import "github.com/jpfielding/dcmview/pkg/dicom/tag"

// GeneralEquipmentModule is the General Equipment Module (C.7.5.1)
type GeneralEquipmentModule struct {
	Manufacturer      string
	InstitutionName   string
	StationName       string
	ManufacturerModel string
}

func (m *GeneralEquipmentModule) Elements() []Element {
	return []Element{
		{Tag: tag.Manufacturer, Value: m.Manufacturer},
		{Tag: tag.InstitutionName, Value: m.InstitutionName},
		{Tag: tag.StationName, Value: m.StationName},
		{Tag: tag.ManufacturerModel, Value: m.ManufacturerModel},
	}
}
