package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/deps"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/youtube"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var fileName string
	var resolution string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a YouTube video as MP4 without transcribing it",
		Args:  exactArgs(1, "a YouTube URL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.prepare()
			if err != nil {
				return err
			}
			url := strings.TrimSpace(args[0])
			if !youtube.IsYouTubeURL(url) {
				return services.Wrap(services.ErrValidation, "download", "url", fmt.Sprintf("%q is not a YouTube URL", url), nil)
			}

			dir := cfg.Paths.OutputDir
			if cmd.Flags().Changed("output-dir") {
				if dir, err = config.ExpandPath(strings.TrimSpace(outputDir)); err != nil {
					return services.Wrap(services.ErrValidation, "download", "output-dir", "", err)
				}
			}
			res := cfg.YouTube.Resolution
			if cmd.Flags().Changed("resolution") {
				res = strings.ToLower(strings.TrimSpace(resolution))
			}

			statuses := deps.CheckBinaries([]deps.Requirement{{
				Name:        "yt-dlp",
				Command:     cfg.YTDLPBinary(),
				Description: "Required to download YouTube videos",
			}})
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return services.Wrap(services.ErrConfiguration, "download", "preflight", "yt-dlp unavailable: "+missing[0].Detail, nil)
			}

			progress := newDownloadProgress(cmd.ErrOrStderr(), shouldColorize(cmd.ErrOrStderr()), logger)
			path, err := youtube.NewDownloader(cfg.YTDLPBinary()).Download(cmd.Context(), youtube.Request{
				URL:        youtube.NormalizeURL(url),
				OutputDir:  dir,
				FileName:   fileName,
				Resolution: res,
				Progress:   progress.Update,
			})
			progress.Finish()
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "", err)
			}
			logger.Info("video downloaded", logging.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&fileName, "filename", "", "Output file name without extension (default: video id)")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", "", "Maximum video height such as 720p")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the downloaded video")
	return cmd
}
