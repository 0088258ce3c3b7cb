package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = FFmpegCommand
	}
	if cfg.Launcher == "" {
		cfg.Launcher = UVXCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = DefaultBeamSize
	}
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	if cfg.Device == "" {
		cfg.Device = CPUDevice
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = CPUComputeType
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Device returns the configured device and compute type for logging.
func (s *Service) Device() (string, string) {
	return s.cfg.Device, s.cfg.ComputeType
}

// ExtractAudio extracts audio from source to dest, using the service's
// command runner if configured.
func (s *Service) ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error {
	if source == "" || dest == "" {
		return errors.New("extract audio: source and destination required")
	}
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.cfg.FFmpegBinary, buildFFmpegExtractArgs(source, audioIndex, dest)...)
	}
	return ExtractAudio(ctx, s.cfg.FFmpegBinary, source, audioIndex, dest)
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, lastLines(string(output), 5))
	}
	return nil
}

// Request describes one transcription run.
type Request struct {
	// Audio is the WAV (or other engine-readable audio) file.
	Audio string
	// OutputDir receives the engine's JSON; defaults to the audio directory.
	OutputDir string
	// Language is an ISO 639-1 hint; empty lets the engine detect it.
	Language string
	// WordTimestamps runs forced alignment so words carry timing.
	WordTimestamps bool
}

// Result contains the outcome of a transcription.
type Result struct {
	Transcript
	// JSONPath is the engine's JSON output file.
	JSONPath string
}

// Transcribe runs WhisperX on req.Audio and parses its JSON output.
func (s *Service) Transcribe(ctx context.Context, req Request) (Result, error) {
	var result Result

	if req.Audio == "" {
		return result, errors.New("transcribe: audio path required")
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(req.Audio)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, s.cfg.Launcher, s.buildArgs(req, outputDir)...); err != nil {
		return result, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(req.Audio), filepath.Ext(req.Audio))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")
	transcript, err := LoadTranscript(result.JSONPath)
	if err != nil {
		return result, fmt.Errorf("whisperx output: %w", err)
	}
	result.Transcript = transcript
	if result.Language == "" {
		result.Language = req.Language
	}
	return result, nil
}

// buildArgs constructs the launcher arguments for WhisperX.
func (s *Service) buildArgs(req Request, outputDir string) []string {
	args := make([]string, 0, 32)

	if isUVX(s.cfg.Launcher) {
		if s.cfg.CUDAIndex && s.cfg.Device == CUDADevice {
			args = append(args,
				"--index-url", CUDAIndexURL,
				"--extra-index-url", PypiIndexURL,
			)
		} else {
			args = append(args, "--index-url", PypiIndexURL)
		}
		args = append(args, PackageName)
	}

	args = append(args,
		req.Audio,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--beam_size", strconv.Itoa(s.cfg.BeamSize),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--device", s.cfg.Device,
		"--compute_type", s.cfg.ComputeType,
	)
	if s.cfg.ModelDir != "" {
		args = append(args, "--model_dir", s.cfg.ModelDir)
	}

	args = append(args, "--vad_method", s.cfg.VADMethod)
	if s.cfg.VADMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := strings.TrimSpace(req.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if !req.WordTimestamps {
		args = append(args, "--no_align")
	}

	return args
}

func isUVX(launcher string) bool {
	return strings.TrimSuffix(filepath.Base(launcher), ".exe") == UVXCommand
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
