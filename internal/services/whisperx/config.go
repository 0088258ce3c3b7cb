package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the resolved model name (e.g., "medium", "large-v3").
	Model string
	// Device is "cpu" or "cuda".
	Device string
	// ComputeType is the CTranslate2 compute type (int8, float16, float32).
	ComputeType string
	BeamSize    int
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// ModelDir is where model weights are downloaded and reused.
	ModelDir string
	// CUDAIndex installs CUDA torch wheels when launching through uvx.
	CUDAIndex bool
	// Launcher is "uvx" or a path to an installed whisperx executable.
	Launcher string
	// FFmpegBinary extracts audio; defaults to "ffmpeg".
	FFmpegBinary string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "medium"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	PackageName       = "whisperx"
	BatchSize         = "4"
	DefaultBeamSize   = 5
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "int8"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
	SampleRate        = "16000"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
