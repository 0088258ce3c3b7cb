package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subgen/internal/logging"
)

const (
	// WorkDirPrefix names per-run WhisperX output directories.
	WorkDirPrefix = "subgen-whisperx-"
	// TempAudioSuffix marks audio extracted from video inputs.
	TempAudioSuffix = "_temp.wav"
)

// CleanStaleResult contains the outcome of a stale file cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes entries of dir whose names match pattern (a
// filepath.Match glob) and that were last modified before maxAge ago.
// Directories are removed recursively.
func CleanStale(ctx context.Context, dir, pattern string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	dir = strings.TrimSpace(dir)
	if dir == "" || pattern == "" {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale scratch file",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "delete the file manually"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed stale scratch file",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime()).Round(time.Second)),
				logging.String(logging.FieldEventType, "scratch_cleanup"),
			)
		}
	}

	return result
}

// CleanLeftovers sweeps both scratch locations: temp audio in outputDir and
// WhisperX work directories in tempDir.
func CleanLeftovers(ctx context.Context, outputDir, tempDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	audio := CleanStale(ctx, outputDir, "*"+TempAudioSuffix, maxAge, logger)
	work := CleanStale(ctx, tempDir, WorkDirPrefix+"*", maxAge, logger)
	return CleanStaleResult{
		Removed: append(audio.Removed, work.Removed...),
		Errors:  append(audio.Errors, work.Errors...),
	}
}
