package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/imaging"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context, settings *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <in>",
		Short: "Analyze DICOM image structure and intensity statistics",
		Long:  "Parses a DICOM file and prints its key metadata, windowing definitions, pixel range and the stretch bounds the converter would use.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := converterOptions(cmd, settings.Config.Convert)
			if err != nil {
				return err
			}
			in, size, err := openFromFlags(ctx, cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			return runAnalyze(cmd.OutOrStdout(), in, size, opts.Window, opts.Stretch)
		},
	}
	convertFlags(cmd)
	inputFlags(cmd)
	return cmd
}

func runAnalyze(out io.Writer, in io.Reader, size int64, window int, stretch imaging.StretchParameters) error {
	ds, err := dicom.NewReader(in, size).ReadDataset()
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Fprintf(out, "Total elements: %d\n\n", len(ds.Elements))
	fmt.Fprintln(out, "=== Key Metadata ===")
	fmt.Fprintf(out, "Modality: %s\n", dicom.GetModality(ds))
	fmt.Fprintf(out, "Rows: %d\n", dicom.GetRows(ds))
	fmt.Fprintf(out, "Columns: %d\n", dicom.GetColumns(ds))
	fmt.Fprintf(out, "BitsAllocated: %d\n", dicom.GetBitsAllocated(ds))
	fmt.Fprintf(out, "BitsStored: %d\n", dicom.GetBitsStored(ds))
	fmt.Fprintf(out, "PixelRepresentation: %d (0=unsigned, 1=signed)\n", dicom.GetPixelRepresentation(ds))
	fmt.Fprintf(out, "PhotometricInterpretation: %s\n", dicom.GetPhotometricInterpretation(ds))
	fmt.Fprintf(out, "NumberOfFrames: %d\n", dicom.GetNumberOfFrames(ds))
	syntax := dicom.GetTransferSyntax(ds)
	fmt.Fprintf(out, "TransferSyntax: %s (%s)\n", syntax, syntax.Name())
	slope, intercept := dicom.GetRescale(ds)
	fmt.Fprintf(out, "Rescale: slope=%g intercept=%g\n\n", slope, intercept)

	w := dicom.Windowing(ds)
	fmt.Fprintln(out, "=== Windowing ===")
	fmt.Fprintf(out, "Function: %s\n", w.Function)
	fmt.Fprintf(out, "Display range: %g..%g\n", w.Range.Min, w.Range.Max)
	for i, win := range w.Windows {
		fmt.Fprintf(out, "Window %d: center=%g width=%g %s\n", i, win.Center, win.Width, win.Explanation)
	}
	for i, lut := range w.LUTs {
		fmt.Fprintf(out, "LUT %d: first=%d entries=%d bits=%d %s\n", i, lut.FirstMapped, len(lut.Data), lut.BitsPerEntry, lut.Explanation)
	}
	if w.Empty() {
		fmt.Fprintln(out, "none (stored values pass through)")
	}
	fmt.Fprintln(out)

	img, err := dicom.NewImage(ds)
	if errors.Is(err, dicom.ErrNoPixelData) || errors.Is(err, dicom.ErrUnsupported) {
		fmt.Fprintf(out, "No decodable pixel data: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Pixel Data ===")
	fmt.Fprintf(out, "Samples: %s\n", humanize.Comma(int64(img.Matrix.Len())))
	lo, hi := img.Matrix.MinMax()
	fmt.Fprintf(out, "Stored range: min=%g, max=%g\n", lo, hi)

	windowed, err := imaging.ApplyVOI(img.Matrix, img.Windowing, window)
	if err != nil {
		return err
	}
	lo, hi = windowed.MinMax()
	fmt.Fprintf(out, "Windowed range (index %d): min=%g, max=%g\n", window, lo, hi)

	plo, phi, err := imaging.Percentiles(windowed, stretch)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stretch %g/%g (ignore extremes %v): lo=%g, hi=%g\n", stretch.Low, stretch.High, stretch.IgnoreExtremes, plo, phi)
	if plo == phi {
		fmt.Fprintln(out, "Stretch is degenerate, output is uniform gray")
	}
	return nil
}
