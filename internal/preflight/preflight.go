package preflight

import (
	"context"

	"subgen/internal/config"
	"subgen/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a transcription run needs. needDownload adds
// yt-dlp to the required binaries.
func RunAll(ctx context.Context, cfg *config.Config, needDownload bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Model cache", cfg.Paths.ModelCacheDir))

	for _, status := range CheckSystemDeps(cfg, needDownload) {
		if status.Optional {
			continue
		}
		results = append(results, StatusResult(status))
	}

	if cfg.Transcription.VADMethod == "pyannote" {
		results = append(results, CheckHuggingFace(ctx, huggingFaceBaseURL, cfg.Transcription.HuggingFaceToken))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// StatusResult converts a dependency status into a check result.
func StatusResult(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Path}
	}
	return Result{Name: status.Name, Detail: status.Detail}
}
