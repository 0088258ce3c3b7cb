package whisperx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// VideoExtensions lists the containers whose audio is extracted before
// transcription. Other inputs are handed to the engine unchanged.
var VideoExtensions = []string{".mp4", ".avi", ".mkv", ".mov"}

// NeedsExtraction reports whether path has a video container extension.
func NeedsExtraction(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range VideoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ExtractAudio extracts an audio stream from a source file. A negative
// audioIndex lets ffmpeg pick the default stream. The output is a mono
// 16 kHz WAV file suitable for WhisperX.
func ExtractAudio(ctx context.Context, ffmpegBinary, source string, audioIndex int, dest string) error {
	cmd := exec.CommandContext(ctx, ffmpegBinary, buildFFmpegExtractArgs(source, audioIndex, dest)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func buildFFmpegExtractArgs(source string, audioIndex int, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
	}
	if audioIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", audioIndex))
	}
	return append(args,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", SampleRate,
		"-c:a", "pcm_s16le",
		dest,
	)
}
