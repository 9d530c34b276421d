package tag

// Info describes a dictionary entry.
type Info struct {
	Keyword string
	VR      string
}

var dictionary = map[Tag]Info{
	FileMetaInformationGroupLength: {"FileMetaInformationGroupLength", "UL"},
	FileMetaInformationVersion:     {"FileMetaInformationVersion", "OB"},
	MediaStorageSOPClassUID:        {"MediaStorageSOPClassUID", "UI"},
	MediaStorageSOPInstanceUID:     {"MediaStorageSOPInstanceUID", "UI"},
	TransferSyntaxUID:              {"TransferSyntaxUID", "UI"},
	ImplementationClassUID:         {"ImplementationClassUID", "UI"},
	ImplementationVersionName:      {"ImplementationVersionName", "SH"},

	SpecificCharacterSet: {"SpecificCharacterSet", "CS"},
	ImageType:            {"ImageType", "CS"},
	SOPClassUID:          {"SOPClassUID", "UI"},
	SOPInstanceUID:       {"SOPInstanceUID", "UI"},
	StudyDate:            {"StudyDate", "DA"},
	SeriesDate:           {"SeriesDate", "DA"},
	ContentDate:          {"ContentDate", "DA"},
	StudyTime:            {"StudyTime", "TM"},
	SeriesTime:           {"SeriesTime", "TM"},
	ContentTime:          {"ContentTime", "TM"},
	AccessionNumber:      {"AccessionNumber", "SH"},
	Modality:             {"Modality", "CS"},
	Manufacturer:         {"Manufacturer", "LO"},
	InstitutionName:      {"InstitutionName", "LO"},
	ReferringPhysician:   {"ReferringPhysicianName", "PN"},
	StationName:          {"StationName", "SH"},
	StudyDescription:     {"StudyDescription", "LO"},
	SeriesDescription:    {"SeriesDescription", "LO"},
	ManufacturerModel:    {"ManufacturerModelName", "LO"},

	PatientName:      {"PatientName", "PN"},
	PatientID:        {"PatientID", "LO"},
	PatientBirthDate: {"PatientBirthDate", "DA"},
	PatientSex:       {"PatientSex", "CS"},
	PatientAge:       {"PatientAge", "AS"},

	BodyPartExamined: {"BodyPartExamined", "CS"},
	SliceThickness:   {"SliceThickness", "DS"},
	KVP:              {"KVP", "DS"},

	StudyInstanceUID:        {"StudyInstanceUID", "UI"},
	SeriesInstanceUID:       {"SeriesInstanceUID", "UI"},
	StudyID:                 {"StudyID", "SH"},
	SeriesNumber:            {"SeriesNumber", "IS"},
	InstanceNumber:          {"InstanceNumber", "IS"},
	ImagePositionPatient:    {"ImagePositionPatient", "DS"},
	ImageOrientationPatient: {"ImageOrientationPatient", "DS"},
	ImageComments:           {"ImageComments", "LT"},

	SamplesPerPixel:              {"SamplesPerPixel", "US"},
	PhotometricInterpretation:    {"PhotometricInterpretation", "CS"},
	PlanarConfiguration:          {"PlanarConfiguration", "US"},
	NumberOfFrames:               {"NumberOfFrames", "IS"},
	Rows:                         {"Rows", "US"},
	Columns:                      {"Columns", "US"},
	PixelSpacing:                 {"PixelSpacing", "DS"},
	BitsAllocated:                {"BitsAllocated", "US"},
	BitsStored:                   {"BitsStored", "US"},
	HighBit:                      {"HighBit", "US"},
	PixelRepresentation:          {"PixelRepresentation", "US"},
	SmallestImagePixelValue:      {"SmallestImagePixelValue", "US"},
	LargestImagePixelValue:       {"LargestImagePixelValue", "US"},
	WindowCenter:                 {"WindowCenter", "DS"},
	WindowWidth:                  {"WindowWidth", "DS"},
	RescaleIntercept:             {"RescaleIntercept", "DS"},
	RescaleSlope:                 {"RescaleSlope", "DS"},
	RescaleType:                  {"RescaleType", "LO"},
	WindowCenterWidthExplanation: {"WindowCenterWidthExplanation", "LO"},
	VOILUTFunction:               {"VOILUTFunction", "CS"},
	LUTDescriptor:                {"LUTDescriptor", "US"},
	LUTExplanation:               {"LUTExplanation", "LO"},
	LUTData:                      {"LUTData", "OW"},
	ModalityLUTSequence:          {"ModalityLUTSequence", "SQ"},
	VOILUTSequence:               {"VOILUTSequence", "SQ"},

	PixelData: {"PixelData", "OW"},

	Item:                     {"Item", ""},
	ItemDelimitationItem:     {"ItemDelimitationItem", ""},
	SequenceDelimitationItem: {"SequenceDelimitationItem", ""},
}

// Find returns the dictionary entry for t.
func Find(t Tag) (Info, bool) {
	info, ok := dictionary[t]
	return info, ok
}

// Keyword returns the dictionary keyword, or "" for unknown and private tags.
func (t Tag) Keyword() string {
	return dictionary[t].Keyword
}

// VR returns the dictionary value representation used for implicit VR
// streams and when building datasets. Unknown tags are UN; group length
// elements (gggg,0000) are always UL.
func (t Tag) VR() string {
	if info, ok := dictionary[t]; ok && info.VR != "" {
		return info.VR
	}
	if t.Element == 0x0000 {
		return "UL"
	}
	return "UN"
}
