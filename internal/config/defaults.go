package config

const (
	defaultConfigPath      = "~/.config/subgen/config.toml"
	projectConfigName      = "subgen.toml"
	defaultOutputDir       = "subtitles"
	defaultModelCacheDir   = "~/.cache/whisper-models"
	defaultTranscriptCache = "~/.cache/subgen/transcripts.db"
	defaultModel           = "auto"
	defaultDevice          = "auto"
	defaultComputeType     = "auto"
	defaultBeamSize        = 5
	defaultVADMethod       = "silero"
	defaultEngineCommand   = "uvx"
	defaultFormat          = "srt"
	defaultASSColor        = "white"
	defaultASSFont         = "Arial"
	defaultASSFontSize     = 48
	defaultResolution      = "720p"
	defaultYTDLPCommand    = "yt-dlp"
	defaultSettleSeconds   = 5
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

var defaultWatchExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".wav", ".mp3", ".m4a", ".flac"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:       defaultOutputDir,
			ModelCacheDir:   defaultModelCacheDir,
			TranscriptCache: defaultTranscriptCache,
		},
		Transcription: Transcription{
			Model:         defaultModel,
			Device:        defaultDevice,
			ComputeType:   defaultComputeType,
			BeamSize:      defaultBeamSize,
			VADMethod:     defaultVADMethod,
			EngineCommand: defaultEngineCommand,
		},
		Subtitles: Subtitles{
			Formats:     []string{defaultFormat},
			ASSColor:    defaultASSColor,
			ASSFont:     defaultASSFont,
			ASSFontSize: defaultASSFontSize,
		},
		YouTube: YouTube{
			Resolution: defaultResolution,
			KeepVideo:  true,
			Command:    defaultYTDLPCommand,
		},
		Cache: Cache{
			TranscriptsEnabled: true,
		},
		Watch: Watch{
			Extensions:    append([]string(nil), defaultWatchExtensions...),
			SettleSeconds: defaultSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
