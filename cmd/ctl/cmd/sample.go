package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/dicom/module"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/jpfielding/dcmview/pkg/dicom/transfer"
	"github.com/spf13/cobra"
)

// NewSampleCmd writes a synthetic DICOM file with a saturated outlier pixel.
func NewSampleCmd(ctx context.Context, settings *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "write a synthetic DICOM test image",
		Long:  "Writes a 16-bit ramp from 100 to 200 whose first pixel is saturated, useful to check that the stretch ignores outliers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			out, _ := f.GetString("out")
			rows, _ := f.GetInt("rows")
			cols, _ := f.GetInt("cols")
			name, _ := f.GetString("syntax")
			centers, _ := f.GetFloat64Slice("center")
			widths, _ := f.GetFloat64Slice("width")
			mono1, _ := f.GetBool("monochrome1")
			preset, _ := f.GetString("preset")
			function, _ := f.GetString("function")

			syntax, ok := map[string]transfer.Syntax{
				"explicit": transfer.ExplicitVRLittleEndian,
				"implicit": transfer.ImplicitVRLittleEndian,
				"deflated": transfer.DeflatedExplicitVR,
			}[name]
			if !ok {
				return fmt.Errorf("unknown syntax %q (explicit|implicit|deflated)", name)
			}

			var opts []dicom.Option
			if len(centers) > 0 || len(widths) > 0 {
				opts = append(opts, dicom.WithWindows(centers, widths))
			}
			var voi *module.VOILUTModule
			switch preset {
			case "":
			case "ct":
				voi = module.NewVOILUTModuleForCT()
			case "dx":
				voi = module.NewVOILUTModuleForDX()
			default:
				return fmt.Errorf("unknown preset %q (ct|dx)", preset)
			}
			if function != "" {
				if voi == nil {
					voi = &module.VOILUTModule{}
				}
				voi.VOILUTFunction = function
			}
			if voi != nil {
				opts = append(opts, dicom.WithModule(voi))
			}
			if mono1 {
				opts = append(opts, dicom.WithElement(tag.PhotometricInterpretation, dicom.Monochrome1))
			}
			ds, err := dicom.Phantom(rows, cols, syntax, opts...)
			if err != nil {
				return err
			}
			n, err := dicom.WriteFile(out, ds)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote sample",
				slog.String("out", out),
				slog.String("syntax", syntax.Name()),
				slog.String("size", humanize.Bytes(uint64(n))))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "sample.dcm", "output file")
	f.Int("rows", 256, "rows")
	f.Int("cols", 256, "columns")
	f.String("syntax", "explicit", "transfer syntax (explicit|implicit|deflated)")
	f.Float64Slice("center", nil, "window centers")
	f.Float64Slice("width", nil, "window widths")
	f.Bool("monochrome1", false, "mark the image MONOCHROME1")
	f.String("preset", "", "window presets to add (ct|dx)")
	f.String("function", "", "VOI LUT function (LINEAR|LINEAR_EXACT|SIGMOID)")
	return cmd
}
