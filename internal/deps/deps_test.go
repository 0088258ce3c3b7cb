package deps

import (
	"os"
	"path/filepath"
	"testing"

	"subgen/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("unexpected missing set %#v", missing)
	}
}

func TestRequirementsMarkDownloaderOptional(t *testing.T) {
	cfg := config.Default()
	cfg.YouTube.Command = "my-yt-dlp"

	local := Requirements(&cfg, false)
	remote := Requirements(&cfg, true)
	if len(local) != 4 || len(remote) != 4 {
		t.Fatalf("unexpected requirement counts %d %d", len(local), len(remote))
	}
	if !local[3].Optional || remote[3].Optional {
		t.Fatalf("expected yt-dlp optional only for local input: %#v %#v", local[3], remote[3])
	}
	if remote[3].Command != "my-yt-dlp" {
		t.Fatalf("expected configured yt-dlp command, got %q", remote[3].Command)
	}
	if local[2].Command != "uvx" {
		t.Fatalf("expected uvx launcher, got %q", local[2].Command)
	}
}
