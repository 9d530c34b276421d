package dicom

import (
	"github.com/jpfielding/dcmview/pkg/dicom/module"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
	"github.com/jpfielding/dcmview/pkg/util"
)

// PhantomOutlier is the saturated value Phantom writes at the first pixel.
const PhantomOutlier = 60000

// Phantom builds a 16-bit secondary capture whose samples rise linearly from
// 100 to 200 in raster order, except the first pixel which holds
// PhantomOutlier. Extra options are applied last.
func Phantom(rows, cols int, syntax transfer.Syntax, opts ...Option) (*Dataset, error) {
	n := rows * cols
	samples := make([]int, n)
	for i := range samples {
		if n > 1 {
			samples[i] = 100 + 100*i/(n-1)
		} else {
			samples[i] = 100
		}
	}
	if n > 0 {
		samples[0] = PhantomOutlier
	}
	study := module.NewGeneralStudyModule(util.DicomUID())
	study.StudyDescription = "Outlier phantom"
	base := []Option{
		WithFileMeta(SecondaryCaptureUID, util.DicomUID(), syntax),
		WithModule(&module.PatientModule{
			PatientName: module.PersonName{FamilyName: "Phantom", GivenName: "Outlier"},
			PatientID:   "PHANTOM",
		}),
		WithModule(&study),
		WithModule(&module.GeneralSeriesModule{
			Modality:          "OT",
			SeriesInstanceUID: util.DicomUID(),
			SeriesNumber:      1,
		}),
		WithModule(&module.GeneralEquipmentModule{Manufacturer: "dcmview", ManufacturerModel: ImplementationVersion}),
		WithElement(tag.ImageComments, "synthetic ramp with one saturated pixel"),
		WithPixelData(rows, cols, 16, 16, false, samples),
	}
	return NewDataset(append(base, opts...)...)
}
