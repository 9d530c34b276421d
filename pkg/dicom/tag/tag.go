// Package tag defines DICOM attribute tags and a small keyword dictionary
package tag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a tag identifier cannot be parsed.
var ErrMalformed = errors.New("malformed tag")

// Tag represents a DICOM tag with Group and Element
type Tag struct {
	Group   uint16
	Element uint16
}

// New creates a new Tag
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Parse reads a tag written as (GGGG,EEEE), GGGG,EEEE or GGGGEEEE in hex.
func Parse(s string) (Tag, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "(")
	raw = strings.TrimSuffix(raw, ")")
	raw = strings.ReplaceAll(raw, " ", "")

	var g, e string
	if i := strings.IndexByte(raw, ','); i >= 0 {
		g, e = raw[:i], raw[i+1:]
	} else if len(raw) == 8 {
		g, e = raw[:4], raw[4:]
	} else {
		return Tag{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	g = strings.TrimPrefix(strings.ToLower(g), "0x")
	e = strings.TrimPrefix(strings.ToLower(e), "0x")
	if g == "" || e == "" || len(g) > 4 || len(e) > 4 {
		return Tag{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	group, err := strconv.ParseUint(g, 16, 16)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	element, err := strconv.ParseUint(e, 16, 16)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return Tag{Group: uint16(group), Element: uint16(element)}, nil
}

// IsPrivate returns true if this is a private tag (odd group number)
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsFileMeta returns true if this tag is in the File Meta Information group
func (t Tag) IsFileMeta() bool {
	return t.Group == 0x0002
}

// Less orders tags by group then element, the on-disk order.
func (t Tag) Less(o Tag) bool {
	if t.Group != o.Group {
		return t.Group < o.Group
	}
	return t.Element < o.Element
}

// File Meta Information (Group 0002)
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	FileMetaInformationVersion     = Tag{0x0002, 0x0001}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}
)

// Patient / Study / Series
var (
	SpecificCharacterSet = Tag{0x0008, 0x0005}
	ImageType            = Tag{0x0008, 0x0008}
	SOPClassUID          = Tag{0x0008, 0x0016}
	SOPInstanceUID       = Tag{0x0008, 0x0018}
	StudyDate            = Tag{0x0008, 0x0020}
	SeriesDate           = Tag{0x0008, 0x0021}
	ContentDate          = Tag{0x0008, 0x0023}
	StudyTime            = Tag{0x0008, 0x0030}
	SeriesTime           = Tag{0x0008, 0x0031}
	ContentTime          = Tag{0x0008, 0x0033}
	AccessionNumber      = Tag{0x0008, 0x0050}
	Modality             = Tag{0x0008, 0x0060}
	Manufacturer         = Tag{0x0008, 0x0070}
	InstitutionName      = Tag{0x0008, 0x0080}
	ReferringPhysician   = Tag{0x0008, 0x0090}
	StationName          = Tag{0x0008, 0x1010}
	StudyDescription     = Tag{0x0008, 0x1030}
	SeriesDescription    = Tag{0x0008, 0x103E}
	ManufacturerModel    = Tag{0x0008, 0x1090}

	PatientName      = Tag{0x0010, 0x0010}
	PatientID        = Tag{0x0010, 0x0020}
	PatientBirthDate = Tag{0x0010, 0x0030}
	PatientSex       = Tag{0x0010, 0x0040}
	PatientAge       = Tag{0x0010, 0x1010}

	BodyPartExamined = Tag{0x0018, 0x0015}
	SliceThickness   = Tag{0x0018, 0x0050}
	KVP              = Tag{0x0018, 0x0060}

	StudyInstanceUID        = Tag{0x0020, 0x000D}
	SeriesInstanceUID       = Tag{0x0020, 0x000E}
	StudyID                 = Tag{0x0020, 0x0010}
	SeriesNumber            = Tag{0x0020, 0x0011}
	InstanceNumber          = Tag{0x0020, 0x0013}
	ImagePositionPatient    = Tag{0x0020, 0x0032}
	ImageOrientationPatient = Tag{0x0020, 0x0037}
	ImageComments           = Tag{0x0020, 0x4000}
)

// Image Pixel, Modality LUT and VOI LUT modules (Group 0028)
var (
	SamplesPerPixel              = Tag{0x0028, 0x0002}
	PhotometricInterpretation    = Tag{0x0028, 0x0004}
	PlanarConfiguration          = Tag{0x0028, 0x0006}
	NumberOfFrames               = Tag{0x0028, 0x0008}
	Rows                         = Tag{0x0028, 0x0010}
	Columns                      = Tag{0x0028, 0x0011}
	PixelSpacing                 = Tag{0x0028, 0x0030}
	BitsAllocated                = Tag{0x0028, 0x0100}
	BitsStored                   = Tag{0x0028, 0x0101}
	HighBit                      = Tag{0x0028, 0x0102}
	PixelRepresentation          = Tag{0x0028, 0x0103}
	SmallestImagePixelValue      = Tag{0x0028, 0x0106}
	LargestImagePixelValue       = Tag{0x0028, 0x0107}
	WindowCenter                 = Tag{0x0028, 0x1050}
	WindowWidth                  = Tag{0x0028, 0x1051}
	RescaleIntercept             = Tag{0x0028, 0x1052}
	RescaleSlope                 = Tag{0x0028, 0x1053}
	RescaleType                  = Tag{0x0028, 0x1054}
	WindowCenterWidthExplanation = Tag{0x0028, 0x1055}
	VOILUTFunction               = Tag{0x0028, 0x1056}
	LUTDescriptor                = Tag{0x0028, 0x3002}
	LUTExplanation               = Tag{0x0028, 0x3003}
	LUTData                      = Tag{0x0028, 0x3006}
	ModalityLUTSequence          = Tag{0x0028, 0x3000}
	VOILUTSequence               = Tag{0x0028, 0x3010}

	PixelData = Tag{0x7FE0, 0x0010}
)

// Sequence delimiters
var (
	Item                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)
