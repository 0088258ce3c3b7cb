package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"subgen/internal/workflow"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
	done  chan string
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{fail: map[string]bool{}, done: make(chan string, 16)}
}

func (p *recordingProcessor) Process(_ context.Context, req workflow.Request) (workflow.Result, error) {
	p.mu.Lock()
	p.paths = append(p.paths, req.Input)
	fail := p.fail[filepath.Base(req.Input)]
	p.mu.Unlock()
	defer func() { p.done <- req.Input }()
	if fail {
		return workflow.Result{}, errors.New("boom")
	}
	return workflow.Result{Subtitles: []string{req.Input + ".srt"}}, nil
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case path := <-ch:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for processing")
		return ""
	}
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
	// Give fsnotify a moment to register the directories.
	time.Sleep(100 * time.Millisecond)
}

func TestWatcherProcessesSettledMedia(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "subtitles")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	proc := newRecordingProcessor()
	w := New(Options{Dir: dir, Extensions: []string{"MP4", ".wav"}, Settle: 50 * time.Millisecond, IgnoreDirs: []string{outDir}}, proc, nil)
	startWatcher(t, w)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "clip_temp.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(target, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := waitFor(t, proc.done); got != target {
		t.Fatalf("processed %q, want %q", got, target)
	}
	time.Sleep(200 * time.Millisecond)
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.paths) != 1 {
		t.Fatalf("expected exactly one processed file, got %v", proc.paths)
	}
	if stats := w.Stats(); stats.Processed != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestWatcherProcessesExistingFilesAndCountsFailures(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	proc := newRecordingProcessor()
	proc.fail["b.wav"] = true
	w := New(Options{Dir: dir, Extensions: []string{".wav"}, ProcessExisting: true}, proc, nil)
	startWatcher(t, w)

	first := waitFor(t, proc.done)
	second := waitFor(t, proc.done)
	if filepath.Base(first) != "a.wav" || filepath.Base(second) != "b.wav" {
		t.Fatalf("unexpected processing order %q, %q", first, second)
	}
	deadline := time.Now().Add(time.Second)
	for w.Stats().Failed != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if stats := w.Stats(); stats.Processed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestRunRejectsMissingDir(t *testing.T) {
	w := New(Options{Dir: filepath.Join(t.TempDir(), "missing")}, newRecordingProcessor(), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestMatchesAndIgnored(t *testing.T) {
	dir := t.TempDir()
	w := New(Options{Dir: dir, Extensions: []string{"mkv", " .MP3 ", ""}, IgnoreDirs: []string{filepath.Join(dir, "out")}}, nil, nil)
	if !w.matches("/x/a.MKV") || !w.matches("b.mp3") || w.matches("c.mp4") {
		t.Fatal("unexpected extension matching")
	}
	if !w.ignored(filepath.Join(dir, "out", "a.mkv")) || w.ignored(filepath.Join(dir, "outside", "a.mkv")) {
		t.Fatal("unexpected ignore matching")
	}
}
