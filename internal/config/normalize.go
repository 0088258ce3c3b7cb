package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"subgen/internal/subtitles"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeSubtitles()
	c.normalizeYouTube()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ModelCacheDir) == "" {
		c.Paths.ModelCacheDir = defaultModelCacheDir
	}
	if c.Paths.ModelCacheDir, err = expandPath(c.Paths.ModelCacheDir); err != nil {
		return fmt.Errorf("paths.model_cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TranscriptCache) == "" {
		c.Paths.TranscriptCache = defaultTranscriptCache
	}
	if c.Paths.TranscriptCache, err = expandPath(c.Paths.TranscriptCache); err != nil {
		return fmt.Errorf("paths.transcript_cache: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	t := &c.Transcription
	t.Model = strings.ToLower(strings.TrimSpace(t.Model))
	if t.Model == "" || t.Model == defaultModel {
		if value, ok := os.LookupEnv("SUBGEN_MODEL"); ok && strings.TrimSpace(value) != "" {
			t.Model = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if t.Model == "" {
		t.Model = defaultModel
	}

	if strings.TrimSpace(t.Language) == "" {
		if value, ok := os.LookupEnv("SUBGEN_LANGUAGE"); ok {
			t.Language = value
		}
	}
	lang, err := NormalizeLanguage(t.Language)
	if err != nil {
		return fmt.Errorf("transcription.language: %w", err)
	}
	t.Language = lang

	t.Device = strings.ToLower(strings.TrimSpace(t.Device))
	if t.Device == "" {
		t.Device = defaultDevice
	}
	t.ComputeType = strings.ToLower(strings.TrimSpace(t.ComputeType))
	if t.ComputeType == "" {
		t.ComputeType = defaultComputeType
	}
	if t.BeamSize == 0 {
		t.BeamSize = defaultBeamSize
	}
	t.VADMethod = strings.ToLower(strings.TrimSpace(t.VADMethod))
	if t.VADMethod == "" {
		t.VADMethod = defaultVADMethod
	}
	t.HuggingFaceToken = strings.TrimSpace(t.HuggingFaceToken)
	if t.HuggingFaceToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			t.HuggingFaceToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			t.HuggingFaceToken = strings.TrimSpace(value)
		}
	}
	t.EngineCommand = strings.TrimSpace(t.EngineCommand)
	if t.EngineCommand == "" {
		t.EngineCommand = defaultEngineCommand
	}
	return nil
}

func (c *Config) normalizeSubtitles() {
	formats := make([]string, 0, len(c.Subtitles.Formats))
	for _, entry := range c.Subtitles.Formats {
		formats = append(formats, subtitles.SplitFormatList(entry)...)
	}
	formats = subtitles.SplitFormatList(strings.Join(formats, ","))
	if len(formats) == 0 {
		formats = []string{defaultFormat}
	}
	c.Subtitles.Formats = formats

	c.Subtitles.ASSColor = strings.ToLower(strings.TrimSpace(c.Subtitles.ASSColor))
	if c.Subtitles.ASSColor == "" {
		c.Subtitles.ASSColor = defaultASSColor
	}
	c.Subtitles.ASSFont = strings.TrimSpace(c.Subtitles.ASSFont)
	if c.Subtitles.ASSFont == "" {
		c.Subtitles.ASSFont = defaultASSFont
	}
	if c.Subtitles.ASSFontSize == 0 {
		c.Subtitles.ASSFontSize = defaultASSFontSize
	}
}

func (c *Config) normalizeYouTube() {
	c.YouTube.Resolution = strings.ToLower(strings.TrimSpace(c.YouTube.Resolution))
	if c.YouTube.Resolution == "" {
		c.YouTube.Resolution = defaultResolution
	}
	c.YouTube.Command = strings.TrimSpace(c.YouTube.Command)
	if c.YouTube.Command == "" {
		c.YouTube.Command = defaultYTDLPCommand
	}
}

func (c *Config) normalizeWatch() {
	exts := make([]string, 0, len(c.Watch.Extensions))
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultWatchExtensions...)
	}
	c.Watch.Extensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeLanguage reduces a language hint such as "en-US" or "EN" to the
// ISO 639-1 base code WhisperX expects. Empty and "auto" mean detect.
func NormalizeLanguage(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "auto") {
		return "", nil
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", value, err)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("unrecognized language %q", value)
	}
	return base.String(), nil
}
