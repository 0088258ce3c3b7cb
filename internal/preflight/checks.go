package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"subgen/internal/config"
	"subgen/internal/deps"
	"subgen/internal/hardware"
)

var huggingFaceBaseURL = "https://huggingface.co"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config. Both
// RunAll and the doctor command use this so the requirement list lives in
// one place.
func CheckSystemDeps(cfg *config.Config, needDownload bool) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg, needDownload))
}

// CheckHuggingFace verifies that the token used for pyannote VAD models is
// accepted by the Hugging Face API.
func CheckHuggingFace(ctx context.Context, baseURL, token string) Result {
	const name = "Hugging Face token"

	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Name: name, Detail: "missing token (set hf_token or HF_TOKEN)"}
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = huggingFaceBaseURL
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/api/whoami-v2", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeRequestError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "token accepted"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckModel reports which model the configuration resolves to on this
// machine. An explicit model always passes; auto selection reports the memory
// it was based on.
func CheckModel(requested string, probe hardware.MemoryProbe) Result {
	const name = "Model"

	selection, err := hardware.ResolveModel(requested, probe)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	switch selection.Reason {
	case "memory":
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (auto, %s available)", selection.Model, humanize.IBytes(selection.AvailableBytes))}
	case "probe_failed":
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (auto, memory probe failed: %v)", selection.Model, selection.ProbeErr)}
	default:
		return Result{Name: name, Passed: true, Detail: string(selection.Model)}
	}
}

// CheckDevice reports the execution device the engine will use.
func CheckDevice(device, compute string) Result {
	sel := hardware.DetectDevice(device, compute)
	detail := fmt.Sprintf("%s/%s", sel.Device, sel.ComputeType)
	if hardware.IsAppleSilicon() && sel.Device == hardware.DeviceCPU {
		detail += " (Apple Silicon)"
	}
	return Result{Name: "Device", Passed: true, Detail: detail}
}

func summarizeRequestError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "auth check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "auth check timed out (API unreachable)"
	}
	return fmt.Sprintf("auth check failed (%v)", err)
}
