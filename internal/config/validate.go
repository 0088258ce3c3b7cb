package config

import (
	"errors"
	"fmt"
	"strings"

	"subgen/internal/hardware"
	"subgen/internal/subtitles"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.Model != defaultModel {
		if _, err := hardware.ParseModel(t.Model); err != nil {
			return fmt.Errorf("transcription.model: %w", err)
		}
	}
	switch t.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("transcription.device must be one of auto, cpu, cuda (got %q)", t.Device)
	}
	switch t.ComputeType {
	case "auto", "float32", "float16", "int8":
	default:
		return fmt.Errorf("transcription.compute_type must be one of auto, float32, float16, int8 (got %q)", t.ComputeType)
	}
	if t.BeamSize < 1 {
		return errors.New("transcription.beam_size must be at least 1")
	}
	switch t.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote (got %q)", t.VADMethod)
	}
	if t.VADMethod == "pyannote" && t.HuggingFaceToken == "" {
		return errors.New("transcription.hf_token is required when vad_method is pyannote. Set HF_TOKEN or edit the config")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	for _, id := range c.Subtitles.Formats {
		if _, err := subtitles.ParseFormat(id); err != nil {
			supported := make([]string, 0, 2)
			for _, f := range subtitles.SupportedFormats() {
				supported = append(supported, f.Extension())
			}
			return fmt.Errorf("subtitles.formats must be drawn from %s: %w", strings.Join(supported, ", "), err)
		}
	}
	if !subtitles.IsKnownColor(c.Subtitles.ASSColor) {
		return fmt.Errorf("subtitles.ass_color must be one of %s (got %q)", strings.Join(subtitles.ColorNames(), ", "), c.Subtitles.ASSColor)
	}
	if strings.Contains(c.Subtitles.ASSFont, ",") {
		return errors.New("subtitles.ass_font must not contain commas")
	}
	if c.Subtitles.ASSFontSize < 1 {
		return errors.New("subtitles.ass_font_size must be positive")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if strings.ContainsAny(c.YouTube.Resolution, " \t") {
		return fmt.Errorf("youtube.resolution must be a single token such as 720p (got %q)", c.YouTube.Resolution)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
