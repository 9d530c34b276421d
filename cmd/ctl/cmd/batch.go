package cmd

import (
	"context"
	"fmt"

	"github.com/jpfielding/dcmview/pkg/convert"
	"github.com/spf13/cobra"
)

// NewBatchCmd converts every DICOM file in a directory.
func NewBatchCmd(ctx context.Context, settings *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "convert every *.dcm in a directory",
		Long:  "Converts the *.dcm and *.dicom files directly under dir in parallel. Failed files are listed and make the command exit non-zero.",
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
			workers := settings.Config.Batch.Workers
			if cmd.Flags().Changed("workers") {
				workers, _ = cmd.Flags().GetInt("workers")
			}
			outDir, _ := cmd.Flags().GetString("out")
			if outDir == "" {
				outDir = args[0]
			}

			inputs, err := convert.FindInputs(args[0])
			if err != nil {
				return err
			}
			items, err := conv.Batch(ctx, inputs, outDir, opts.Raster.Format.Extension(), workers)
			if err != nil {
				return err
			}
			var failed int
			for _, it := range items {
				if it.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", it.In, it.Err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), it.Out)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(items))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "", "output directory (default: the input directory)")
	f.IntP("workers", "w", 0, "parallel conversions (default from config: one per CPU)")
	convertFlags(cmd)
	return cmd
}
