package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/preflight"
	"subgen/internal/services"
	"subgen/internal/subtitles"
	"subgen/internal/workflow"
	"subgen/internal/youtube"
)

// runOverrides are command-line values that replace configuration for one
// invocation. Only flags the user set are applied.
type runOverrides struct {
	outputDir   string
	model       string
	language    string
	resolution  string
	device      string
	computeType string
	formats     string
	color       string
	keepVideo   bool
	noKeepVideo bool
	karaoke     bool
}

func (o *runOverrides) register(cmd *cobra.Command, withDownload bool) {
	o.registerOutput(cmd)
	flags := cmd.Flags()
	flags.StringVarP(&o.model, "model", "m", "", "Whisper model (auto, tiny, base, small, medium, large, large-v2, large-v3, distil-large-v3)")
	flags.StringVarP(&o.language, "language", "l", "", "Language hint such as en or de (default: detect)")
	flags.StringVar(&o.device, "device", "", "Execution device (auto, cpu, cuda)")
	flags.StringVar(&o.computeType, "compute-type", "", "Compute type (auto, float32, float16, int8)")
	if withDownload {
		flags.StringVarP(&o.resolution, "resolution", "r", "", "Maximum YouTube video height such as 720p")
		flags.BoolVar(&o.keepVideo, "keep-video", false, "Keep downloaded YouTube videos")
		flags.BoolVar(&o.noKeepVideo, "no-keep-video", false, "Delete downloaded YouTube videos after transcription")
	}
}

// registerOutput adds the flags that shape subtitle files.
func (o *runOverrides) registerOutput(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.outputDir, "output-dir", "o", "", "Directory for subtitle files")
	flags.StringVarP(&o.formats, "formats", "f", "", "Comma separated subtitle formats (srt, ass)")
	flags.StringVar(&o.color, "color", "", "ASS text colour")
	flags.BoolVar(&o.karaoke, "karaoke", false, "Add word-level karaoke highlighting to ASS output")
}

func (o *runOverrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("output-dir") {
		dir, err := config.ExpandPath(strings.TrimSpace(o.outputDir))
		if err != nil || dir == "" {
			return services.Wrap(services.ErrValidation, cmd.Name(), "output-dir", "invalid output directory", err)
		}
		cfg.Paths.OutputDir = dir
	}
	if changed("model") {
		cfg.Transcription.Model = strings.ToLower(strings.TrimSpace(o.model))
	}
	if changed("language") {
		if _, err := config.NormalizeLanguage(o.language); err != nil {
			return services.Wrap(services.ErrValidation, cmd.Name(), "language", "", err)
		}
		cfg.Transcription.Language = strings.TrimSpace(o.language)
	}
	if changed("device") {
		cfg.Transcription.Device = strings.ToLower(strings.TrimSpace(o.device))
	}
	if changed("compute-type") {
		cfg.Transcription.ComputeType = strings.ToLower(strings.TrimSpace(o.computeType))
	}
	if changed("formats") {
		formats := subtitles.SplitFormatList(o.formats)
		if len(formats) == 0 {
			return services.Wrap(services.ErrValidation, cmd.Name(), "formats", "at least one format is required", nil)
		}
		cfg.Subtitles.Formats = formats
	}
	if changed("color") {
		cfg.Subtitles.ASSColor = strings.ToLower(strings.TrimSpace(o.color))
	}
	if changed("karaoke") {
		cfg.Subtitles.Karaoke = o.karaoke
	}
	if changed("resolution") {
		cfg.YouTube.Resolution = strings.ToLower(strings.TrimSpace(o.resolution))
	}
	if changed("keep-video") && changed("no-keep-video") {
		return services.Wrap(services.ErrValidation, cmd.Name(), "flags", "--keep-video and --no-keep-video are mutually exclusive", nil)
	}
	if changed("keep-video") {
		cfg.YouTube.KeepVideo = o.keepVideo
	}
	if changed("no-keep-video") {
		cfg.YouTube.KeepVideo = !o.noKeepVideo
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, cmd.Name(), "flags", "", err)
	}
	return nil
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides
	var forceDownload bool

	cmd := &cobra.Command{
		Use:   "transcribe <file-or-url>",
		Short: "Generate subtitles for a media file or YouTube URL",
		Long: `Generate subtitles for a local video or audio file, or a YouTube URL.

Video inputs have their primary audio track extracted with ffmpeg. Audio is
transcribed with WhisperX and the subtitles are written to the output
directory as <name>.srt and/or <name>.ass.`,
		Args: exactArgs(1, "a file path or URL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.prepare()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}

			input := strings.TrimSpace(args[0])
			isURL := youtube.IsYouTubeURL(input)
			if isURL {
				input = youtube.NormalizeURL(input)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return services.Wrap(services.ErrConfiguration, cmd.Name(), "directories", "", err)
			}
			if err := runPreflight(cmd, cfg, isURL); err != nil {
				return err
			}

			progress := newDownloadProgress(cmd.ErrOrStderr(), isURL && shouldColorize(cmd.ErrOrStderr()), logger)
			runner := workflow.NewRunner(cfg, logger, workflow.WithDownloadProgress(progress.Update))
			defer runner.Close()

			res, err := runner.Process(cmd.Context(), workflow.Request{Input: input, ForceDownload: forceDownload})
			progress.Finish()
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	overrides.register(cmd, true)
	cmd.Flags().BoolVar(&forceDownload, "force-download", false, "Discard the cached model and download it again")
	return cmd
}

// runPreflight fails when a required binary or directory is unavailable.
func runPreflight(cmd *cobra.Command, cfg *config.Config, needDownload bool) error {
	failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, needDownload))
	if len(failed) == 0 {
		return nil
	}
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(errOut)
	names := make([]string, 0, len(failed))
	for _, result := range failed {
		fmt.Fprintln(errOut, renderStatusLine(result.Name, statusError, result.Detail, colorize))
		names = append(names, result.Name)
	}
	fmt.Fprintln(errOut, "Run 'subgen doctor' for details.")
	return services.Wrap(services.ErrConfiguration, "preflight", "checks", strings.Join(names, ", ")+" unavailable", nil)
}

func printRunSummary(out io.Writer, res workflow.Result) {
	fmt.Fprintln(out, "Subtitles written:")
	for _, path := range res.Subtitles {
		fmt.Fprintf(out, "  %s\n", path)
	}
	model := res.Model
	if res.ModelAuto {
		model += " (auto)"
	}
	language := res.DetectedLanguage
	if language == "" {
		language = "unknown"
	}
	fmt.Fprintf(out, "Model: %s  Device: %s/%s  Language: %s  Segments: %d  Cached transcript: %s\n",
		model, res.Device, res.ComputeType, language, res.Segments, yesNo(res.TranscriptCached))
	if res.Downloaded != "" {
		if _, err := os.Stat(res.Downloaded); err == nil {
			fmt.Fprintf(out, "Video: %s\n", res.Downloaded)
		} else if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "Video: %s (removed)\n", filepath.Base(res.Downloaded))
		}
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	fmt.Fprintf(out, "Done in %s\n", res.Elapsed.Round(time.Millisecond))
}
