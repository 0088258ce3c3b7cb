package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/services"
	"subgen/internal/watch"
	"subgen/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides
	var settleSeconds int
	var existing bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Generate subtitles for media files added to a directory",
		Long: `Watch a directory tree and transcribe every new media file once it has
stopped changing for the settle period. Files are processed one at a time.
The output directory is never watched.`,
		Args: exactArgs(1, "a directory"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.prepare()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("settle") {
				if settleSeconds < 0 {
					return services.Wrap(services.ErrValidation, "watch", "settle", "must be non-negative", nil)
				}
				cfg.Watch.SettleSeconds = settleSeconds
			}

			dir, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return services.Wrap(services.ErrValidation, "watch", "dir", "", err)
			}
			info, err := os.Stat(dir)
			if err != nil {
				return services.Wrap(services.ErrNotFound, "watch", "dir", dir, err)
			}
			if !info.IsDir() {
				return services.Wrap(services.ErrValidation, "watch", "dir", dir+" is not a directory", nil)
			}

			if err := cfg.EnsureDirectories(); err != nil {
				return services.Wrap(services.ErrConfiguration, cmd.Name(), "directories", "", err)
			}
			if err := runPreflight(cmd, cfg, false); err != nil {
				return err
			}

			runner := workflow.NewRunner(cfg, logger)
			defer runner.Close()

			watcher := watch.New(watch.Options{
				Dir:             dir,
				Extensions:      cfg.Watch.Extensions,
				Settle:          time.Duration(cfg.Watch.SettleSeconds) * time.Second,
				IgnoreDirs:      []string{cfg.Paths.OutputDir, cfg.Paths.ModelCacheDir},
				ProcessExisting: existing,
			}, runner, logger)

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", dir)
			if err := watcher.Run(cmd.Context()); err != nil {
				return services.Wrap(services.ErrTransient, "watch", "run", dir, err)
			}
			stats := watcher.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files (%d failed)\n", stats.Processed+stats.Failed, stats.Failed)
			return nil
		},
	}

	overrides.register(cmd, false)
	cmd.Flags().IntVar(&settleSeconds, "settle", 0, "Seconds a file must stay unchanged before processing")
	cmd.Flags().BoolVar(&existing, "existing", false, "Also process matching files already in the directory")
	return cmd
}
