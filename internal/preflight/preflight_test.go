package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/config"
	"subgen/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckHuggingFace_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/whoami-v2" || r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckHuggingFace(context.Background(), srv.URL, "good-token")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckHuggingFace_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckHuggingFace(context.Background(), srv.URL, "bad-token")
	if result.Passed || !strings.Contains(result.Detail, "invalid token") {
		t.Fatalf("expected auth failure, got %#v", result)
	}
}

func TestCheckHuggingFace_MissingToken(t *testing.T) {
	result := CheckHuggingFace(context.Background(), "http://localhost", " ")
	if result.Passed {
		t.Fatal("expected failure for missing token")
	}
}

func TestCheckModel(t *testing.T) {
	const gib = 1 << 30
	result := CheckModel("auto", func() (uint64, error) { return 16 * gib, nil })
	if !result.Passed || !strings.HasPrefix(result.Detail, "large (auto, 16 GiB available)") {
		t.Fatalf("unexpected auto result %#v", result)
	}

	result = CheckModel("auto", func() (uint64, error) { return 0, errors.New("no sysinfo") })
	if !result.Passed || !strings.HasPrefix(result.Detail, "medium (auto, memory probe failed") {
		t.Fatalf("unexpected fallback result %#v", result)
	}

	result = CheckModel("small", nil)
	if !result.Passed || result.Detail != "small" {
		t.Fatalf("unexpected explicit result %#v", result)
	}

	result = CheckModel("gigantic", nil)
	if result.Passed {
		t.Fatalf("expected unknown model to fail, got %#v", result)
	}
}

func TestCheckDevice(t *testing.T) {
	result := CheckDevice("cpu", "float32")
	if !result.Passed || !strings.HasPrefix(result.Detail, "cpu/float32") {
		t.Fatalf("unexpected device result %#v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, false); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(context.Background(), cfg, true)
	// output dir, model cache, ffmpeg, ffprobe, uvx, yt-dlp
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %#v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %#v", failed)
	}
}

func TestRunAll_ReportsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	cfg.Transcription.EngineCommand = "subgen-test-missing-uvx"

	failed := Failed(RunAll(context.Background(), cfg, false))
	if len(failed) != 1 || failed[0].Name != "WhisperX launcher" {
		t.Fatalf("expected launcher failure, got %#v", failed)
	}
}

func TestRunAll_ChecksTokenForPyannote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	original := huggingFaceBaseURL
	huggingFaceBaseURL = srv.URL
	t.Cleanup(func() { huggingFaceBaseURL = original })

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Transcription.VADMethod = "pyannote"
	cfg.Transcription.HuggingFaceToken = "token"

	failed := Failed(RunAll(context.Background(), cfg, false))
	if len(failed) != 1 || failed[0].Name != "Hugging Face token" {
		t.Fatalf("expected token failure, got %#v", failed)
	}
}

func TestCheckSystemDepsHonoursConfig(t *testing.T) {
	cfg := config.Default()
	cfg.YouTube.Command = "subgen-test-missing-ytdlp"
	statuses := CheckSystemDeps(&cfg, false)
	last := statuses[len(statuses)-1]
	if last.Available || !last.Optional {
		t.Fatalf("expected optional missing yt-dlp, got %#v", last)
	}
}
