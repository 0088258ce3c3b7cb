package modelcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subgen/internal/testsupport"
)

func seedCache(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "medium", "model.bin"), 3000)
	testsupport.WriteFile(t, filepath.Join(dir, "medium", "config.json"), 10)
	testsupport.WriteFile(t, filepath.Join(dir, "tiny", "pytorch_model.bin"), 500)
	hub := filepath.Join(dir, "models--Systran--faster-whisper-large-v3")
	testsupport.WriteFile(t, filepath.Join(hub, "blobs", "abc"), 8000)
	if err := os.MkdirAll(filepath.Join(hub, "snapshots", "rev"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(hub, "blobs", "abc"), filepath.Join(hub, "snapshots", "rev", "model.bin")); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "partial", "vocabulary.txt"), 5)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 5)
	return dir
}

func TestListRecognisesLayouts(t *testing.T) {
	cache := New(seedCache(t))
	models, err := cache.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("expected 3 models, got %#v", models)
	}
	wantNames := []string{"large-v3", "medium", "tiny"}
	wantSizes := []int64{8000, 3010, 500}
	for i, m := range models {
		if m.Name != wantNames[i] || m.Size != wantSizes[i] {
			t.Fatalf("model %d = %s/%d, want %s/%d", i, m.Name, m.Size, wantNames[i], wantSizes[i])
		}
	}
	if got := models[0].HumanSize(); got != "8.0 kB" {
		t.Fatalf("HumanSize = %q", got)
	}
}

func TestListMissingDir(t *testing.T) {
	models, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(models) != 0 {
		t.Fatalf("expected empty list, got %v %v", models, err)
	}
}

func TestIsCached(t *testing.T) {
	cache := New(seedCache(t))
	for name, want := range map[string]bool{
		"medium":   true,
		"large-v3": true,
		"models--Systran--faster-whisper-large-v3": true,
		"small":   false,
		"partial": false,
	} {
		got, err := cache.IsCached(name)
		if err != nil {
			t.Fatalf("IsCached(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("IsCached(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRemove(t *testing.T) {
	dir := seedCache(t)
	cache := New(dir)

	entry, err := cache.Remove(context.Background(), "large-v3")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if entry.Size != 8000 {
		t.Fatalf("unexpected removed entry %#v", entry)
	}
	if _, err := os.Stat(entry.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected directory removed, got %v", err)
	}

	if _, err := cache.Remove(context.Background(), "partial"); err != nil {
		t.Fatalf("expected partial download dir to be removable: %v", err)
	}

	if _, err := cache.Remove(context.Background(), "small"); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
	if _, err := cache.Remove(context.Background(), LockFileName); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected lock file to be protected, got %v", err)
	}
}

func TestClearKeepsLockFile(t *testing.T) {
	dir := seedCache(t)
	cache := New(dir)

	removed, err := cache.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(removed) != 5 {
		t.Fatalf("expected 5 removed paths, got %v", removed)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != LockFileName {
		t.Fatalf("expected only lock file to remain, got %v", entries)
	}
	if total, err := cache.TotalSize(); err != nil || total != 0 {
		t.Fatalf("expected empty cache, got %d %v", total, err)
	}
}

func TestClearMissingDir(t *testing.T) {
	removed, err := New(filepath.Join(t.TempDir(), "absent")).Clear(context.Background())
	if err != nil || removed != nil {
		t.Fatalf("expected no-op, got %v %v", removed, err)
	}
}

func TestSharedLockBlocksRemoval(t *testing.T) {
	cache := New(seedCache(t))
	release, err := cache.AcquireShared(context.Background())
	if err != nil {
		t.Fatalf("AcquireShared: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if _, err := cache.Remove(ctx, "tiny"); err == nil {
		t.Fatal("expected removal to wait for the shared lock")
	}

	release()
	if _, err := cache.Remove(context.Background(), "tiny"); err != nil {
		t.Fatalf("Remove after release: %v", err)
	}
}

func TestModelName(t *testing.T) {
	cases := map[string]string{
		"medium": "medium",
		"models--Systran--faster-whisper-medium":          "medium",
		"models--Systran--faster-distil-whisper-large-v3": "distil-large-v3",
		"models--openai--whisper-small":                   "small",
		"models--org--custom-model":                       "custom-model",
	}
	for in, want := range cases {
		if got := ModelName(in); got != want {
			t.Fatalf("ModelName(%q) = %q, want %q", in, got, want)
		}
	}
}
