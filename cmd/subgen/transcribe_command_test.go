package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/services"
	"subgen/internal/testsupport"
	"subgen/internal/workflow"
)

func TestTranscribeMissingInputIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	_, _, err := runCLI(t, env, "transcribe", filepath.Join(env.baseDir, "absent.mp4"))
	requireExitCode(t, err, services.ExitNotFound)
}

func TestTranscribePreflightFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())
	input := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, input, 64)

	_, stderr, err := runCLI(t, env, "transcribe", input)
	requireExitCode(t, err, services.ExitConfiguration)
	requireContains(t, stderr, "FFmpeg")
	requireContains(t, stderr, "subgen doctor")
}

func TestTranscribeRejectsInvalidFlags(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	input := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, input, 64)

	cases := [][]string{
		{"--formats", "srt,xml"},
		{"--formats", " , "},
		{"--model", "gigantic"},
		{"--language", "not a language"},
		{"--device", "tpu"},
		{"--color", "chartreuse"},
		{"--keep-video", "--no-keep-video"},
	}
	for _, flags := range cases {
		t.Run(strings.Join(flags, " "), func(t *testing.T) {
			args := append([]string{"transcribe", input}, flags...)
			_, _, err := runCLI(t, env, args...)
			requireExitCode(t, err, services.ExitUsage)
		})
	}
}

func TestTranscribeUnknownFormatFailsBeforeWriting(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	input := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, input, 64)

	_, _, err := runCLI(t, env, "transcribe", input, "--formats", "srt,xml")
	requireExitCode(t, err, services.ExitUsage)
	matches, globErr := filepath.Glob(filepath.Join(env.cfg.Paths.OutputDir, "*.srt"))
	if globErr != nil {
		t.Fatalf("glob: %v", globErr)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no subtitles written, got %v", matches)
	}
}

func TestRunOverridesApply(t *testing.T) {
	var o runOverrides
	cmd := &cobra.Command{Use: "transcribe"}
	o.register(cmd, true)
	if err := cmd.ParseFlags([]string{
		"--model", "Small", "--language", "de", "--formats", "ass,SRT",
		"--karaoke", "--no-keep-video", "--resolution", "1080P", "--output-dir", "/tmp/subs",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfgVal := config.Default()
	cfg := &cfgVal
	if err := o.apply(cmd, cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Transcription.Model != "small" || cfg.Transcription.Language != "de" {
		t.Fatalf("unexpected transcription settings %#v", cfg.Transcription)
	}
	if strings.Join(cfg.Subtitles.Formats, ",") != "ass,srt" || !cfg.Subtitles.Karaoke {
		t.Fatalf("unexpected subtitle settings %#v", cfg.Subtitles)
	}
	if cfg.YouTube.KeepVideo || cfg.YouTube.Resolution != "1080p" {
		t.Fatalf("unexpected youtube settings %#v", cfg.YouTube)
	}
	if cfg.Paths.OutputDir != "/tmp/subs" {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.Transcription.Device != config.Default().Transcription.Device {
		t.Fatalf("unset flag changed device to %q", cfg.Transcription.Device)
	}
}

func TestPrintRunSummary(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder
	printRunSummary(&out, workflow.Result{
		Subtitles:        []string{filepath.Join(dir, "clip.srt")},
		Model:            "small",
		ModelAuto:        true,
		Device:           "cpu",
		ComputeType:      "int8",
		DetectedLanguage: "en",
		Segments:         12,
		Downloaded:       filepath.Join(dir, "abc.mp4"),
		Warnings:         []string{"clip.srt: cue_past_media_end: overrun=2.0s"},
		Elapsed:          1500 * time.Millisecond,
	})
	got := out.String()
	for _, want := range []string{"clip.srt", "small (auto)", "cpu/int8", "Segments: 12", "abc.mp4 (removed)", "Warning: clip.srt", "Done in 1.5s"} {
		requireContains(t, got, want)
	}
}
