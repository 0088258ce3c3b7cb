package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"subgen/internal/logging"
	"subgen/internal/workflow"
)

// Processor handles one settled file.
type Processor interface {
	Process(ctx context.Context, req workflow.Request) (workflow.Result, error)
}

// Options configures a Watcher.
type Options struct {
	Dir string
	// Extensions are lower-case with a leading dot.
	Extensions []string
	Settle     time.Duration
	// IgnoreDirs are skipped along with everything below them.
	IgnoreDirs []string
	// ProcessExisting queues matching files already present at start.
	ProcessExisting bool
}

// Stats counts processed files.
type Stats struct {
	Processed int64
	Failed    int64
}

// Watcher monitors a directory tree for new media.
type Watcher struct {
	opts   Options
	proc   Processor
	logger *slog.Logger

	queue chan string

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	processed atomic.Int64
	failed    atomic.Int64
}

// New builds a Watcher.
func New(opts Options, proc Processor, logger *slog.Logger) *Watcher {
	exts := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	opts.Extensions = exts
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	ignore := make([]string, 0, len(opts.IgnoreDirs))
	for _, dir := range opts.IgnoreDirs {
		if abs, err := filepath.Abs(dir); err == nil && strings.TrimSpace(dir) != "" {
			ignore = append(ignore, abs)
		}
	}
	opts.IgnoreDirs = ignore
	return &Watcher{
		opts:           opts,
		proc:           proc,
		logger:         logging.NewComponentLogger(logger, "watcher"),
		queue:          make(chan string, 64),
		debounceTimers: make(map[string]*time.Timer),
	}
}

// Stats returns processing counters.
func (w *Watcher) Stats() Stats {
	return Stats{Processed: w.processed.Load(), Failed: w.failed.Load()}
}

// Run watches until ctx is cancelled. Files are processed sequentially on
// the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.opts.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New(w.opts.Dir + " is not a directory")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	var existing []string
	dirCount := 0
	err = filepath.WalkDir(w.opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("error walking directory", logging.String("path", path), logging.Error(err))
			return nil
		}
		if d.IsDir() {
			if w.ignored(path) {
				return filepath.SkipDir
			}
			if addErr := fsw.Add(path); addErr != nil {
				w.logger.Warn("failed to watch directory", logging.String("path", path), logging.Error(addErr))
			} else {
				dirCount++
			}
			return nil
		}
		if w.opts.ProcessExisting && w.matches(path) {
			existing = append(existing, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Info("file watcher initialized",
		logging.String("watch_dir", w.opts.Dir),
		logging.Int("directories", dirCount),
		logging.Strings("extensions", w.opts.Extensions),
		logging.Duration("settle", w.opts.Settle),
	)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.watchLoop(loopCtx, fsw)

	sort.Strings(existing)
	go func() {
		for _, path := range existing {
			select {
			case w.queue <- path:
			case <-loopCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			stats := w.Stats()
			w.logger.Info("file watcher stopped",
				logging.Int64("files_processed", stats.Processed),
				logging.Int64("files_failed", stats.Failed),
			)
			return nil
		case path := <-w.queue:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if w.ignored(event.Name) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := fsw.Add(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", logging.String("path", event.Name), logging.Error(err))
				} else {
					w.logger.Debug("watching new directory", logging.String("path", event.Name))
				}
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify error", logging.Error(err))
		}
	}
}

// schedule restarts the settle timer for path; the file is queued once no
// event has arrived for the settle period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(w.opts.Settle)
		return
	}
	w.debounceTimers[path] = time.AfterFunc(w.opts.Settle, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		select {
		case w.queue <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		w.logger.Debug("file vanished before processing", logging.String("path", path))
		return
	}
	w.logger.Info("processing new file", logging.String("path", path))
	res, err := w.proc.Process(ctx, workflow.Request{Input: path})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.failed.Add(1)
		logging.ErrorWithContext(w.logger, "file processing failed", "watch_process_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'subgen transcribe' on the file to see full output"),
		)
		return
	}
	w.processed.Add(1)
	w.logger.Info("file processed",
		logging.String("path", path),
		logging.Strings("subtitles", res.Subtitles),
	)
}

func (w *Watcher) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.opts.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.opts.IgnoreDirs {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
