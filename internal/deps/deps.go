package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"subgen/internal/config"
)

// Requirement defines an external binary subgen shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Requirements lists the binaries the pipeline uses. yt-dlp is optional unless
// the run needs to download a URL.
func Requirements(cfg *config.Config, needDownload bool) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "extracts 16 kHz mono audio for transcription"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "inspects input media streams"},
		{Name: "WhisperX launcher", Command: cfg.EngineBinary(), Description: "runs WhisperX in an isolated environment"},
		{Name: "yt-dlp", Command: cfg.YTDLPBinary(), Description: "downloads YouTube videos", Optional: !needDownload},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the required dependencies that are unavailable.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
