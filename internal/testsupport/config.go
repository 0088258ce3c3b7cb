package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subgen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The output and model cache directories exist on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "subtitles")
	cfgVal.Paths.ModelCacheDir = filepath.Join(base, "models")
	cfgVal.Paths.TranscriptCache = filepath.Join(base, "cache", "transcripts.db")
	cfgVal.Paths.LogDir = ""
	cfgVal.Transcription.Model = "tiny"
	cfgVal.Transcription.Device = "cpu"

	for _, dir := range []string{cfgVal.Paths.OutputDir, cfgVal.Paths.ModelCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFormats sets the subtitle formats on the test config.
func WithFormats(formats ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Subtitles.Formats = formats
	}
}

// WithoutTranscriptCache disables the SQLite transcript cache.
func WithoutTranscriptCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.TranscriptsEnabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default subgen external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx", "yt-dlp"}
		}
		for _, name := range names {
			writeStub(b, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithStubScript installs a single executable with the given shell body on PATH.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b, name, "#!/bin/sh\n"+body+"\n")
	}
}

func writeStub(b *configBuilder, name, script string) {
	b.t.Helper()

	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}

	path := os.Getenv("PATH")
	if parts := filepath.SplitList(path); len(parts) > 0 && parts[0] == binDir {
		return
	}
	b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
