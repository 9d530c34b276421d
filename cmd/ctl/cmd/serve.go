package cmd

import (
	"context"

	"github.com/jpfielding/dcmview/pkg/server"
	"github.com/jpfielding/dcmview/pkg/storage"
	"github.com/spf13/cobra"
)

// NewServeCmd runs the HTTP service until interrupted.
func NewServeCmd(ctx context.Context, settings *Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the upload/header/convert HTTP service",
		Long:  "Serves POST /upload, GET /header/:filename?tag=(GGGG,EEEE), GET /convert/:filename and GET /healthz.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *settings.Config
			if cmd.Flags().Changed("address") {
				cfg.Server.Address, _ = cmd.Flags().GetString("address")
			}
			if cmd.Flags().Changed("bucket") {
				cfg.Storage.BucketURL, _ = cmd.Flags().GetString("bucket")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, err := storage.Open(ctx, cfg.Storage.BucketURL, cfg.Storage.Prefix)
			if err != nil {
				return err
			}
			defer store.Close()
			srv, err := server.New(&cfg, store)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}
	f := cmd.Flags()
	f.StringP("address", "a", "", "listen address (default from config: localhost:5000)")
	f.String("bucket", "", "blob bucket URL for uploads, e.g. file:///var/lib/dcmview or mem://")
	return cmd
}
