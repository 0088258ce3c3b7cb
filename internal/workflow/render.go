package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/services/whisperx"
	"subgen/internal/subtitles"
)

// RenderTranscript writes subtitle files from an existing WhisperX JSON file
// without running the engine. Files are named after the JSON file.
func RenderTranscript(cfg *config.Config, logger *slog.Logger, jsonPath string) ([]string, error) {
	logger = logging.NewComponentLogger(logger, "render")

	transcript, err := whisperx.LoadTranscript(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "render", "load", jsonPath, err)
		}
		return nil, services.Wrap(services.ErrValidation, "render", "load", jsonPath, err)
	}
	if cfg.Subtitles.Karaoke && !subtitles.HasWordTiming(transcript.Segments) {
		logging.WarnWithContext(logger, "transcript has no word timing", "karaoke_unavailable",
			logging.String("path", jsonPath),
			logging.String(logging.FieldErrorHint, "re-run transcribe with --karaoke so words are aligned"),
			logging.String(logging.FieldImpact, "ASS events render without karaoke tags"),
		)
	}

	outDir := cfg.Paths.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "mkdir", outDir, err)
	}
	stem := strings.TrimSuffix(filepath.Base(jsonPath), filepath.Ext(jsonPath))
	written, err := subtitles.WriteFiles(filepath.Join(outDir, sanitizeBase(stem)), cfg.Subtitles.Formats, subtitles.ASSOptions{
		Title:    stem,
		Karaoke:  cfg.Subtitles.Karaoke,
		Color:    cfg.Subtitles.ASSColor,
		Font:     cfg.Subtitles.ASSFont,
		FontSize: cfg.Subtitles.ASSFontSize,
	}, transcript.Segments)
	if err != nil {
		return written, fmt.Errorf("write subtitles: %w", err)
	}
	logger.Info("subtitles rendered",
		logging.String("source", jsonPath),
		logging.Int("segments", len(transcript.Segments)),
		logging.Strings("files", written),
	)
	return written, nil
}
