package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jpfielding/dcmview/pkg/dicom"
	"github.com/jpfielding/dcmview/pkg/dicom/tag"
	"github.com/spf13/cobra"
)

// NewHeaderCmd prints one header field or the whole header.
func NewHeaderCmd(ctx context.Context, settings *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header <in>",
		Short: "DICOM header lookup",
		Long:  "Prints the field named by --tag (GGGG,EEEE), or every field when no tag is given. The input may be a path, - for stdin or an http(s) URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, size, err := openFromFlags(ctx, cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			ds, err := dicom.NewReader(in, size).ReadDataset()
			if err != nil {
				return err
			}
			fields := ds.Fields()

			var v interface{} = fields
			if q, _ := cmd.Flags().GetString("tag"); q != "" {
				t, err := tag.Parse(q)
				if err != nil {
					return err
				}
				field, err := fields.Lookup(t.Group, t.Element)
				if err != nil {
					return fmt.Errorf("tag %s: %w", t, err)
				}
				v = field
			}

			out := cmd.OutOrStdout()
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				if d, ok := v.(interface{ Describe() string }); ok {
					fmt.Fprintln(out, d.Describe())
				} else {
					fmt.Fprint(out, v)
				}
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			default:
				return fmt.Errorf("unknown format %q (text|json)", format)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("tag", "t", "", "tag to look up, e.g. (0008,0080)")
	f.StringP("format", "f", "text", "output format (text|json)")
	inputFlags(cmd)
	return cmd
}
