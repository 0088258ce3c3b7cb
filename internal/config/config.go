package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and cache locations.
type Paths struct {
	OutputDir       string `toml:"output_dir"`
	ModelCacheDir   string `toml:"model_cache_dir"`
	TranscriptCache string `toml:"transcript_cache"`
	LogDir          string `toml:"log_dir"`
}

// Transcription contains speech recognition engine settings.
type Transcription struct {
	Model            string `toml:"model"`
	Language         string `toml:"language"`
	Device           string `toml:"device"`
	ComputeType      string `toml:"compute_type"`
	BeamSize         int    `toml:"beam_size"`
	VADMethod        string `toml:"vad_method"`
	HuggingFaceToken string `toml:"hf_token"`
	EngineCommand    string `toml:"engine_command"`
	CUDAIndex        bool   `toml:"cuda_index"`
}

// Subtitles contains output format settings.
type Subtitles struct {
	Formats     []string `toml:"formats"`
	Karaoke     bool     `toml:"karaoke"`
	ASSColor    string   `toml:"ass_color"`
	ASSFont     string   `toml:"ass_font"`
	ASSFontSize int      `toml:"ass_font_size"`
}

// YouTube contains download settings for URL inputs.
type YouTube struct {
	Resolution string `toml:"resolution"`
	KeepVideo  bool   `toml:"keep_video"`
	Command    string `toml:"command"`
}

// Cache contains transcript cache settings.
type Cache struct {
	TranscriptsEnabled bool `toml:"transcripts_enabled"`
}

// Watch contains settings for the directory watcher.
type Watch struct {
	Extensions    []string `toml:"extensions"`
	SettleSeconds int      `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subgen.
//
// Configuration sections by subsystem:
//   - Paths: output directory, model cache, transcript cache, log file
//   - Transcription: WhisperX model, device, decoding and VAD settings
//   - Subtitles: formats and ASS styling
//   - YouTube: yt-dlp download settings
//   - Cache: transcript reuse
//   - Watch: directory watcher behaviour
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Subtitles     Subtitles     `toml:"subtitles"`
	YouTube       YouTube       `toml:"youtube"`
	Cache         Cache         `toml:"cache"`
	Watch         Watch         `toml:"watch"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output directory and the parents of cache
// locations so the pipeline can write into them.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.ModelCacheDir}
	if c.Cache.TranscriptsEnabled && c.Paths.TranscriptCache != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.TranscriptCache))
	}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// YTDLPBinary returns the yt-dlp executable used for URL inputs.
func (c *Config) YTDLPBinary() string {
	if cmd := strings.TrimSpace(c.YouTube.Command); cmd != "" {
		return cmd
	}
	return defaultYTDLPCommand
}

// EngineBinary returns the launcher used to run WhisperX.
func (c *Config) EngineBinary() string {
	if cmd := strings.TrimSpace(c.Transcription.EngineCommand); cmd != "" {
		return cmd
	}
	return defaultEngineCommand
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
