package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jpfielding/dcmview/pkg/config"
	"github.com/jpfielding/dcmview/pkg/logging"
	"github.com/spf13/cobra"
)

// Settings is filled in before any subcommand runs.
type Settings struct {
	Config *config.Config
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	settings := &Settings{Config: config.Default()}
	cmd := &cobra.Command{
		Use:           "dcmview",
		Short:         "DICOM to PNG/JPEG conversion and tag lookup",
		Long:          "dcmview normalizes grayscale DICOM images into 8-bit rasters with an outlier robust percentile stretch, and looks up header fields.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				cfg, err := config.Load(path)
				if err != nil {
					return err
				}
				settings.Config = cfg
			}
			lc := &settings.Config.Logging
			if cmd.Flags().Changed("log-level") {
				lc.Level, _ = cmd.Flags().GetString("log-level")
			}
			if cmd.Flags().Changed("log-json") {
				lc.JSON, _ = cmd.Flags().GetBool("log-json")
			}
			out := logging.Output(*lc)
			if lc.File == "" {
				// stdout carries command output
				out = cmd.ErrOrStderr()
			}
			slog.SetDefault(logging.Logger(out, lc.JSON, logging.ParseLevel(lc.Level)))
			slog.DebugContext(ctx, "configured", slog.String("level", lc.Level), slog.String("decoder", settings.Config.Convert.Decoder))
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewConvertCmd(ctx, settings),
		NewBatchCmd(ctx, settings),
		NewHeaderCmd(ctx, settings),
		NewServeCmd(ctx, settings),
		NewSampleCmd(ctx, settings),
		NewAnalyzeCmd(ctx, settings),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "Log as JSON")
	pf.StringP("config", "c", "", "TOML or YAML config file")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Fprintln(cmd.OutOrStdout(), strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
