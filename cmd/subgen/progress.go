package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"subgen/internal/logging"
)

// downloadProgress shows yt-dlp progress as a bar on a terminal and as
// sampled log lines otherwise.
type downloadProgress struct {
	bar     *progressbar.ProgressBar
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newDownloadProgress(w io.Writer, interactive bool, logger *slog.Logger) *downloadProgress {
	p := &downloadProgress{logger: logger}
	if interactive {
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Downloading"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		return p
	}
	p.sampler = logging.NewProgressSampler(5)
	return p
}

// Update records a percentage between 0 and 100.
func (p *downloadProgress) Update(percent float64) {
	if p == nil {
		return
	}
	if p.bar != nil {
		_ = p.bar.Set(int(percent))
		return
	}
	if p.logger != nil && p.sampler.ShouldLog(percent, "download") {
		p.logger.Info("download progress", logging.Float64("percent", percent))
	}
}

// Finish clears the bar.
func (p *downloadProgress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
