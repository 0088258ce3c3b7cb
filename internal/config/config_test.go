package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subgen/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"SUBGEN_MODEL", "SUBGEN_LANGUAGE", "HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(home, ".config", "subgen", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	wantOutput, _ := filepath.Abs("subtitles")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.ModelCacheDir != filepath.Join(home, ".cache", "whisper-models") {
		t.Fatalf("unexpected model cache dir: %q", cfg.Paths.ModelCacheDir)
	}
	if cfg.Paths.TranscriptCache != filepath.Join(home, ".cache", "subgen", "transcripts.db") {
		t.Fatalf("unexpected transcript cache: %q", cfg.Paths.TranscriptCache)
	}
	if cfg.Transcription.Model != "auto" {
		t.Fatalf("expected auto model, got %q", cfg.Transcription.Model)
	}
	if cfg.Transcription.BeamSize != 5 || cfg.Transcription.VADMethod != "silero" {
		t.Fatalf("unexpected decoding defaults: %+v", cfg.Transcription)
	}
	if cfg.Transcription.Language != "" {
		t.Fatalf("expected language detection by default, got %q", cfg.Transcription.Language)
	}
	if !reflect.DeepEqual(cfg.Subtitles.Formats, []string{"srt"}) {
		t.Fatalf("unexpected formats %v", cfg.Subtitles.Formats)
	}
	if !cfg.YouTube.KeepVideo || cfg.YouTube.Resolution != "720p" {
		t.Fatalf("unexpected youtube defaults: %+v", cfg.YouTube)
	}
	if !cfg.Cache.TranscriptsEnabled {
		t.Fatal("expected transcript cache enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
[paths]
output_dir = "~/subs"

[transcription]
model = "Large-V3"
language = "en-US"
device = "CPU"
vad_method = "pyannote"
hf_token = "token"

[subtitles]
formats = ["SRT, ass", "srt"]
karaoke = true
ass_color = "Yellow"

[youtube]
keep_video = false
resolution = "1080P"

[watch]
extensions = ["MKV", ".mp4", "mkv"]

[logging]
format = "JSON"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config path to be used, got %q exists=%v", resolved, exists)
	}
	home, _ := os.UserHomeDir()
	if cfg.Paths.OutputDir != filepath.Join(home, "subs") {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.Transcription.Model != "large-v3" || cfg.Transcription.Language != "en" || cfg.Transcription.Device != "cpu" {
		t.Fatalf("unexpected transcription settings: %+v", cfg.Transcription)
	}
	if !reflect.DeepEqual(cfg.Subtitles.Formats, []string{"srt", "ass"}) {
		t.Fatalf("unexpected formats %v", cfg.Subtitles.Formats)
	}
	if cfg.Subtitles.ASSColor != "yellow" || !cfg.Subtitles.Karaoke {
		t.Fatalf("unexpected subtitle settings: %+v", cfg.Subtitles)
	}
	if cfg.YouTube.KeepVideo || cfg.YouTube.Resolution != "1080p" {
		t.Fatalf("unexpected youtube settings: %+v", cfg.YouTube)
	}
	if !reflect.DeepEqual(cfg.Watch.Extensions, []string{".mkv", ".mp4"}) {
		t.Fatalf("unexpected watch extensions %v", cfg.Watch.Extensions)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, "[transcription]\nmodle = \"small\"\n")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	} else if !strings.Contains(err.Error(), "modle") {
		t.Fatalf("expected error to name the key, got %v", err)
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SUBGEN_MODEL", "Small")
	t.Setenv("SUBGEN_LANGUAGE", "vi")
	t.Setenv("HF_TOKEN", "hf-secret")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.Model != "small" {
		t.Fatalf("expected model from env, got %q", cfg.Transcription.Model)
	}
	if cfg.Transcription.Language != "vi" {
		t.Fatalf("expected language from env, got %q", cfg.Transcription.Language)
	}
	if cfg.Transcription.HuggingFaceToken != "hf-secret" {
		t.Fatalf("expected token from env, got %q", cfg.Transcription.HuggingFaceToken)
	}
}

func TestFileModelWinsOverEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SUBGEN_MODEL", "tiny")
	path := writeConfig(t, "[transcription]\nmodel = \"medium\"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.Model != "medium" {
		t.Fatalf("expected file model to win, got %q", cfg.Transcription.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	isolateEnv(t)
	cases := map[string]string{
		"model":          "[transcription]\nmodel = \"huge\"\n",
		"device":         "[transcription]\ndevice = \"tpu\"\n",
		"compute":        "[transcription]\ncompute_type = \"int4\"\n",
		"vad":            "[transcription]\nvad_method = \"webrtc\"\n",
		"pyannote token": "[transcription]\nvad_method = \"pyannote\"\n",
		"beam":           "[transcription]\nbeam_size = -1\n",
		"language":       "[transcription]\nlanguage = \"not a language\"\n",
		"format":         "[subtitles]\nformats = [\"srt\", \"xml\"]\n",
		"color":          "[subtitles]\nass_color = \"chartreuse\"\n",
		"font":           "[subtitles]\nass_font = \"Bad,Font\"\n",
		"log format":     "[logging]\nformat = \"xml\"\n",
		"log level":      "[logging]\nlevel = \"verbose\"\n",
		"settle":         "[watch]\nsettle_seconds = -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, _, err := config.Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"auto":  "",
		"en":    "en",
		"EN":    "en",
		"en-US": "en",
		"pt-BR": "pt",
		"vi":    "vi",
	}
	for input, want := range cases {
		got, err := config.NormalizeLanguage(input)
		if err != nil {
			t.Fatalf("NormalizeLanguage(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := config.NormalizeLanguage("not a language"); err == nil {
		t.Fatal("expected error for garbage language")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Transcription.BeamSize != 5 {
		t.Fatalf("unexpected sample beam size %d", decoded.Transcription.BeamSize)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.ModelCacheDir = filepath.Join(base, "models")
	cfg.Paths.TranscriptCache = filepath.Join(base, "cache", "transcripts.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{"out", "models", "cache", "logs"} {
		if info, err := os.Stat(filepath.Join(base, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, got %v", dir, err)
		}
	}
}
