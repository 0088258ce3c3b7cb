package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/deps"
	"subgen/internal/hardware"
	"subgen/internal/modelcache"
	"subgen/internal/preflight"
	"subgen/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and engine settings",
		Args:  exactArgs(0, "no arguments"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := colorEnabled(out)

			writeLines(out, renderSectionHeader("Configuration", colorize))
			path := ctx.configPath
			if !ctx.configExists {
				path += " (not found, using defaults)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, path, colorize))
			fmt.Fprintln(out, renderStatusLine("Output directory", statusInfo, cfg.Paths.OutputDir, colorize))
			fmt.Fprintln(out)

			results := preflight.RunAll(cmd.Context(), cfg, false)
			writeLines(out, renderSectionHeader("Checks", colorize))
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			for _, status := range optionalDependencies(cfg) {
				kind := statusOK
				detail := status.Path
				if !status.Available {
					kind = statusWarn
					detail = fmt.Sprintf("%s (%s)", status.Detail, status.Description)
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}
			fmt.Fprintln(out)

			writeLines(out, renderSectionHeader("Engine", colorize))
			for _, result := range []preflight.Result{
				preflight.CheckModel(cfg.Transcription.Model, hardware.AvailableMemory),
				preflight.CheckDevice(cfg.Transcription.Device, cfg.Transcription.ComputeType),
			} {
				fmt.Fprintln(out, renderStatusLine(result.Name, statusInfo, result.Detail, colorize))
			}
			entries, err := modelcache.New(cfg.Paths.ModelCacheDir).List()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Cached models", statusWarn, err.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Cached models", statusInfo, fmt.Sprintf("%d", len(entries)), colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "checks", fmt.Sprintf("%d check(s) failed", len(failed)), nil)
			}
			return nil
		},
	}
}

// optionalDependencies returns statuses for binaries only some commands need.
func optionalDependencies(cfg *config.Config) []deps.Status {
	var optional []deps.Status
	for _, status := range preflight.CheckSystemDeps(cfg, false) {
		if status.Optional {
			optional = append(optional, status)
		}
	}
	return optional
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
