package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subgen/internal/services"
	"subgen/internal/workflow"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "render <whisperx.json>",
		Short: "Render subtitle files from an existing WhisperX JSON transcript",
		Args:  exactArgs(1, "a WhisperX JSON file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.prepare()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return services.Wrap(services.ErrConfiguration, cmd.Name(), "directories", "", err)
			}
			written, err := workflow.RenderTranscript(cfg, logger, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Subtitles written:")
			for _, path := range written {
				fmt.Fprintf(out, "  %s\n", path)
			}
			return nil
		},
	}

	overrides.registerOutput(cmd)
	return cmd
}
