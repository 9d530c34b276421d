package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jpfielding/dcmview/pkg/config"
	"github.com/jpfielding/dcmview/pkg/convert"
	"github.com/jpfielding/dcmview/pkg/logging"
	"github.com/spf13/cobra"
)

// NewConvertCmd converts one DICOM file to PNG or JPEG.
func NewConvertCmd(ctx context.Context, settings *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in>",
		Short: "convert a DICOM image to PNG/JPEG",
		Long:  "Windows the image with its VOI window or LUT, applies the percentile stretch and writes an 8-bit raster. The input may be a path, - for stdin or an http(s) URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := converterOptions(cmd, settings.Config.Convert)
			if err != nil {
				return err
			}
			conv, err := convert.New(opts)
			if err != nil {
				return err
			}
			in, size, err := openFromFlags(ctx, cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = convert.OutputName(path.Base(args[0]), ".", opts.Raster.Format.Extension())
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			cctx := logging.AppendCtx(ctx, slog.String("file", args[0]))
			res, err := conv.Convert(cctx, in, size, w)
			if err != nil {
				if out != "-" {
					os.Remove(out)
				}
				return err
			}
			slog.InfoContext(cctx, "converted",
				slog.String("out", out),
				slog.String("dims", fmt.Sprintf("%dx%d", res.Cols, res.Rows)),
				slog.Float64("lo", res.Lo),
				slog.Float64("hi", res.Hi),
				slog.Bool("uniform", res.Degenerate),
				slog.String("size", humanize.Bytes(uint64(res.Written))))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "", "output file, - for stdout (default <input>.<format>)")
	convertFlags(cmd)
	inputFlags(cmd)
	return cmd
}

// convertFlags registers the flags that override the [convert] section.
func convertFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", "png", "output format (png|jpeg)")
	f.Int("window", 0, "window or VOI LUT index")
	f.Float64("low", 0.1, "low percentile mapped to 0")
	f.Float64("high", 99.9, "high percentile mapped to 255")
	f.Bool("ignore-extremes", true, "replace min/max samples with the median when estimating percentiles")
	f.Int("quality", 0, "jpeg quality (1-100)")
	f.Int("max", 0, "downscale so neither side exceeds this")
	f.String("decoder", config.DecoderNative, "decoder backend (native|suyashkumar)")
}

func converterOptions(cmd *cobra.Command, c config.Convert) (convert.Options, error) {
	f := cmd.Flags()
	if f.Changed("format") {
		c.Format, _ = f.GetString("format")
		c.Format = strings.TrimPrefix(c.Format, ".")
	}
	if f.Changed("window") {
		c.Window, _ = f.GetInt("window")
	}
	if f.Changed("low") {
		c.Low, _ = f.GetFloat64("low")
	}
	if f.Changed("high") {
		c.High, _ = f.GetFloat64("high")
	}
	if f.Changed("ignore-extremes") {
		c.IgnoreExtremes, _ = f.GetBool("ignore-extremes")
	}
	if f.Changed("quality") {
		c.Quality, _ = f.GetInt("quality")
	}
	if f.Changed("max") {
		c.MaxDimension, _ = f.GetInt("max")
	}
	if f.Changed("decoder") {
		c.Decoder, _ = f.GetString("decoder")
	}
	return convert.OptionsFrom(c)
}
