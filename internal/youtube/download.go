package youtube

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultBinary is the downloader executable.
const DefaultBinary = "yt-dlp"

// ErrOutputNotFound reports that yt-dlp finished but the file could not be located.
var ErrOutputNotFound = errors.New("could not determine the downloaded file path")

var (
	mergerPattern      = regexp.MustCompile(`\[Merger\] Merging formats into "(.*?)"`)
	destinationPattern = regexp.MustCompile(`\[download\] Destination: (.*?)$`)
	alreadyPattern     = regexp.MustCompile(`\[download\] (.*?) has already been downloaded`)
	progressPattern    = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`)
)

// Request describes one download.
type Request struct {
	URL       string
	OutputDir string
	// FileName overrides the "<video id>" base name (no extension).
	FileName   string
	Resolution string
	// Progress receives the percentage parsed from each yt-dlp progress line.
	Progress func(percent float64)
}

// LineRunner executes name with args, calling onLine for each stdout line.
type LineRunner func(ctx context.Context, name string, args []string, onLine func(string)) error

// Downloader runs yt-dlp.
type Downloader struct {
	binary string
	run    LineRunner
}

// NewDownloader returns a Downloader using binary, or yt-dlp when empty.
func NewDownloader(binary string) *Downloader {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Downloader{binary: binary, run: execLines}
}

// WithRunner replaces process execution (for testing).
func (d *Downloader) WithRunner(run LineRunner) {
	d.run = run
}

// Download fetches req.URL into req.OutputDir and returns the MP4 path.
func (d *Downloader) Download(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", errors.New("download: url required")
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download: ensure output dir: %w", err)
	}

	var lines []string
	onLine := func(line string) {
		lines = append(lines, line)
		if req.Progress != nil {
			if pct, ok := ParseProgress(line); ok {
				req.Progress(pct)
			}
		}
	}
	if err := d.run(ctx, d.binary, BuildArgs(req.URL, outputDir, req.FileName, req.Resolution), onLine); err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	path := ParseOutputPath(lines)
	if path == "" {
		if id, ok := VideoID(req.URL); ok {
			path = findDownloaded(outputDir, id)
		}
	}
	if path == "" {
		return "", ErrOutputNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutputNotFound, path)
	}
	return path, nil
}

// BuildArgs constructs the yt-dlp argument list.
func BuildArgs(url, outputDir, fileName, resolution string) []string {
	base := "%(id)s"
	if name := strings.TrimSpace(fileName); name != "" {
		base = name
	}
	return []string{
		NormalizeURL(url),
		"--format", FormatCode(resolution),
		"--output", filepath.Join(outputDir, base+".%(ext)s"),
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-mtime",
		"--restrict-filenames",
		"--newline",
	}
}

// ParseOutputPath scans yt-dlp output from the end for the final file name.
func ParseOutputPath(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		for _, pattern := range []*regexp.Regexp{mergerPattern, destinationPattern, alreadyPattern} {
			if m := pattern.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// ParseProgress extracts the percentage from a "[download]  42.1% of ..." line.
func ParseProgress(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// findDownloaded prefers an MP4 whose name contains the video id, then the
// most recently modified MP4 in dir.
func findDownloaded(dir, id string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	type candidate struct {
		path    string
		modTime int64
	}
	var mp4s []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".mp4") {
			continue
		}
		path := filepath.Join(dir, name)
		if strings.Contains(name, id) {
			return path
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mp4s = append(mp4s, candidate{path: path, modTime: info.ModTime().UnixNano()})
	}
	if len(mp4s) == 0 {
		return ""
	}
	sort.Slice(mp4s, func(i, j int) bool { return mp4s[i].modTime > mp4s[j].modTime })
	return mp4s[0].path
}

func execLines(ctx context.Context, name string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	scanErr := scanner.Err()
	_, _ = io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if scanErr != nil {
		return fmt.Errorf("read output: %w", scanErr)
	}
	return nil
}
