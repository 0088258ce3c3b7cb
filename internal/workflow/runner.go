package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subgen/internal/config"
	"subgen/internal/fileutil"
	"subgen/internal/hardware"
	"subgen/internal/logging"
	"subgen/internal/media/ffprobe"
	"subgen/internal/modelcache"
	"subgen/internal/services"
	"subgen/internal/services/whisperx"
	"subgen/internal/staging"
	"subgen/internal/subtitles"
	"subgen/internal/textutil"
	"subgen/internal/transcripts"
	"subgen/internal/youtube"
)

// Transcriber extracts audio and runs the speech engine.
type Transcriber interface {
	ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error
	Transcribe(ctx context.Context, req whisperx.Request) (whisperx.Result, error)
}

// TranscriberFactory builds a Transcriber for the resolved engine settings.
type TranscriberFactory func(cfg whisperx.Config) Transcriber

// Downloader fetches URL inputs.
type Downloader interface {
	Download(ctx context.Context, req youtube.Request) (string, error)
}

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Option customizes a Runner.
type Option func(*Runner)

// WithTranscriberFactory replaces the WhisperX service (for testing).
func WithTranscriberFactory(factory TranscriberFactory) Option {
	return func(r *Runner) { r.newTranscriber = factory }
}

// WithDownloader replaces the yt-dlp downloader.
func WithDownloader(d Downloader) Option {
	return func(r *Runner) { r.downloader = d }
}

// WithProbe replaces ffprobe inspection.
func WithProbe(probe ProbeFunc) Option {
	return func(r *Runner) { r.probe = probe }
}

// WithMemoryProbe replaces the available-memory probe used by model "auto".
func WithMemoryProbe(probe hardware.MemoryProbe) Option {
	return func(r *Runner) { r.memory = probe }
}

// WithDownloadProgress registers a callback for download percentages.
func WithDownloadProgress(fn func(percent float64)) Option {
	return func(r *Runner) { r.downloadProgress = fn }
}

// Request describes one media item to subtitle.
type Request struct {
	// Input is a local media path or a YouTube URL.
	Input string
	// ForceDownload discards the cached model so the engine fetches it again.
	ForceDownload bool
}

// Result summarizes a completed run.
type Result struct {
	CorrelationID string
	Input         string
	// MediaPath is the file that was transcribed (the sanitized copy for URLs).
	MediaPath string
	// Downloaded is the file yt-dlp produced, if any.
	Downloaded       string
	Subtitles        []string
	Model            string
	ModelAuto        bool
	Device           string
	ComputeType      string
	DetectedLanguage string
	Segments         int
	TranscriptCached bool
	Warnings         []string
	Steps            []StepTiming
	Elapsed          time.Duration
}

// Runner executes the subtitle pipeline.
type Runner struct {
	cfg              *config.Config
	logger           *slog.Logger
	newTranscriber   TranscriberFactory
	downloader       Downloader
	probe            ProbeFunc
	memory           hardware.MemoryProbe
	models           *modelcache.Cache
	downloadProgress func(float64)

	storeMu  sync.Mutex
	store    *transcripts.Store
	storeErr error

	cleanupOnce sync.Once
}

// staleScratchAge is how old temp audio and work directories must be before
// a new run removes them.
const staleScratchAge = 6 * time.Hour

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		newTranscriber: func(c whisperx.Config) Transcriber {
			return whisperx.NewService(c)
		},
		downloader: youtube.NewDownloader(cfg.YTDLPBinary()),
		probe: func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
		},
		models: modelcache.New(cfg.Paths.ModelCacheDir),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the transcript cache.
func (r *Runner) Close() error {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

// Process generates subtitles for req.Input.
func (r *Runner) Process(ctx context.Context, req Request) (result Result, err error) {
	input := strings.TrimSpace(req.Input)
	result = Result{CorrelationID: uuid.NewString(), Input: input}

	ctx = services.WithRequestID(ctx, result.CorrelationID)
	ctx = services.WithSource(ctx, input)
	logger := logging.WithContext(ctx, r.logger)

	if input == "" {
		return result, services.Wrap(services.ErrValidation, "input", "check", "input path or URL required", nil)
	}
	isURL := youtube.IsYouTubeURL(input)
	if !isURL {
		info, err := os.Stat(input)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return result, services.Wrap(services.ErrNotFound, "input", "stat", input, err)
			}
			return result, services.Wrap(services.ErrValidation, "input", "stat", input, err)
		}
		if info.IsDir() {
			return result, services.Wrap(services.ErrValidation, "input", "check", input+" is a directory", nil)
		}
	}

	outDir := r.cfg.Paths.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "output", "mkdir", outDir, err)
	}
	r.cleanupOnce.Do(func() {
		staging.CleanLeftovers(ctx, outDir, os.TempDir(), staleScratchAge, logger)
	})

	steps := 4
	if isURL {
		steps++
	}
	tracker := NewTracker(logger, steps)
	defer func() { result.Steps = tracker.Timings() }()

	selection, err := r.resolveModel(logger, tracker)
	if err != nil {
		return result, err
	}
	result.Model = string(selection.Model)
	result.ModelAuto = selection.Auto
	if !selection.Auto {
		tracker.AddSteps(-1)
	}

	modelCached := r.prepareModelCache(ctx, logger, string(selection.Model), req.ForceDownload)

	mediaPath := input
	if isURL {
		downloaded, sanitized, err := r.download(ctx, logger, tracker, input, outDir)
		if err != nil {
			return result, err
		}
		result.Downloaded = downloaded
		mediaPath = sanitized
		if !r.cfg.YouTube.KeepVideo {
			defer r.removeDownloads(logger, downloaded, sanitized)
		}
	}
	result.MediaPath = mediaPath

	stem := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	baseName := sanitizeBase(stem)

	probe, duration := r.inspect(ctx, logger, mediaPath)
	if probe != nil && probe.AudioStreamCount() == 0 {
		return result, services.Wrap(services.ErrValidation, "inspect", "ffprobe", mediaPath+" has no audio stream", nil)
	}

	device := hardware.DetectDevice(r.cfg.Transcription.Device, r.cfg.Transcription.ComputeType)
	result.Device = device.Device
	result.ComputeType = device.ComputeType
	logger.Info("execution device selected",
		logging.String("device", device.Device),
		logging.String("compute_type", device.ComputeType),
	)

	transcriber := r.newTranscriber(whisperx.Config{
		Model:        string(selection.Model),
		Device:       device.Device,
		ComputeType:  device.ComputeType,
		BeamSize:     r.cfg.Transcription.BeamSize,
		VADMethod:    r.cfg.Transcription.VADMethod,
		HFToken:      r.cfg.Transcription.HuggingFaceToken,
		ModelDir:     r.cfg.Paths.ModelCacheDir,
		CUDAIndex:    r.cfg.Transcription.CUDAIndex,
		Launcher:     r.cfg.EngineBinary(),
		FFmpegBinary: r.cfg.FFmpegBinary(),
	})

	audioPath := mediaPath
	if whisperx.NeedsExtraction(mediaPath) {
		audioPath = filepath.Join(outDir, baseName+staging.TempAudioSuffix)
		defer func() {
			if _, err := fileutil.RemoveIfExists(audioPath); err != nil {
				logging.WarnWithContext(logger, "temporary audio not removed", "cleanup_failed",
					logging.String("path", audioPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "delete the file manually"),
				)
			}
		}()
		tracker.StartStep("Extracting audio")
		audioIndex := -1
		if probe != nil {
			if stream, ok := probe.PrimaryAudio(); ok {
				audioIndex = stream.Index
			}
		}
		if err := transcriber.ExtractAudio(ctx, mediaPath, audioIndex, audioPath); err != nil {
			return result, services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "audio extraction failed", err)
		}
		tracker.FinishStep()
	} else {
		tracker.StartStep("Using audio file directly")
		tracker.FinishStep()
	}

	language, err := config.NormalizeLanguage(r.cfg.Transcription.Language)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "transcribe", "language", "", err)
	}
	wordTiming := needsWordTiming(r.cfg.Subtitles)

	transcript, cached, err := r.transcribe(ctx, logger, tracker, transcriber, transcribeInput{
		audioPath:   audioPath,
		source:      mediaPath,
		model:       string(selection.Model),
		language:    language,
		wordTiming:  wordTiming,
		modelCached: modelCached,
	})
	if err != nil {
		return result, err
	}
	result.TranscriptCached = cached
	result.DetectedLanguage = transcript.Language
	result.Segments = len(transcript.Segments)

	tracker.StartStep(fmt.Sprintf("Writing subtitles (%s)", strings.Join(r.cfg.Subtitles.Formats, ", ")))
	written, err := subtitles.WriteFiles(filepath.Join(outDir, baseName), r.cfg.Subtitles.Formats, subtitles.ASSOptions{
		Title:    stem,
		Karaoke:  r.cfg.Subtitles.Karaoke,
		Color:    r.cfg.Subtitles.ASSColor,
		Font:     r.cfg.Subtitles.ASSFont,
		FontSize: r.cfg.Subtitles.ASSFontSize,
	}, transcript.Segments)
	result.Subtitles = written
	if err != nil {
		return result, fmt.Errorf("write subtitles: %w", err)
	}
	for _, path := range written {
		logger.Info("subtitle file written", logging.String("path", path))
	}
	tracker.FinishStep()

	result.Warnings = r.validateOutputs(logger, written, duration)
	result.Elapsed = tracker.Finish()

	logger.Info("subtitles generated",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("model", result.Model),
		logging.String("detected_language", result.DetectedLanguage),
		logging.Int("segments", result.Segments),
		logging.Bool("transcript_cached", result.TranscriptCached),
		logging.Strings("files", written),
	)
	return result, nil
}

func (r *Runner) resolveModel(logger *slog.Logger, tracker *Tracker) (hardware.Selection, error) {
	requested := r.cfg.Transcription.Model
	auto := strings.TrimSpace(requested) == "" || strings.EqualFold(strings.TrimSpace(requested), hardware.AutoModel)
	if auto {
		tracker.StartStep("Selecting model from available memory")
	}
	selection, err := hardware.ResolveModel(requested, r.memory)
	if err != nil {
		return selection, services.Wrap(services.ErrValidation, "model", "resolve", "", err)
	}
	if auto {
		tracker.FinishStep()
	}

	switch selection.Reason {
	case "memory":
		attrs := logging.DecisionAttrs("model", string(selection.Model), "available memory")
		attrs = append(attrs, logging.Uint64("available_bytes", selection.AvailableBytes))
		logger.Info("model selected", logging.Args(attrs...)...)
	case "probe_failed":
		logging.WarnWithContext(logger, "memory probe failed; using fallback model", "model_probe_failed",
			logging.String("model", string(selection.Model)),
			logging.Error(selection.ProbeErr),
			logging.String(logging.FieldErrorHint, "set transcription.model explicitly"),
			logging.String(logging.FieldImpact, "model may be larger or smaller than this machine can run well"),
		)
	default:
		logger.Debug("model requested", logging.String("model", string(selection.Model)))
	}
	return selection, nil
}

// prepareModelCache drops the model when a fresh download is forced and
// reports whether weights are already present.
func (r *Runner) prepareModelCache(ctx context.Context, logger *slog.Logger, model string, force bool) bool {
	if force {
		entry, err := r.models.Remove(ctx, model)
		switch {
		case err == nil:
			logger.Info("cached model removed for fresh download", logging.String("model", model), logging.String("path", entry.Dir))
		case errors.Is(err, modelcache.ErrNotCached):
		default:
			logging.WarnWithContext(logger, "could not remove cached model", "model_cache_remove_failed",
				logging.String("model", model),
				logging.Error(err),
				logging.String(logging.FieldImpact, "existing weights will be reused"),
			)
		}
	}
	cached, err := r.models.IsCached(model)
	if err != nil {
		logger.Debug("model cache unreadable", logging.Error(err))
		return false
	}
	if cached {
		logger.Info("using cached model", logging.String("model", model), logging.String("cache_dir", r.models.Dir()))
	} else {
		logger.Info("model not cached; the engine will download it on first use",
			logging.String("model", model),
			logging.String("cache_dir", r.models.Dir()),
		)
	}
	return cached
}

func (r *Runner) download(ctx context.Context, logger *slog.Logger, tracker *Tracker, url, outDir string) (string, string, error) {
	ctx = services.WithStep(ctx, "download")
	tracker.StartStep("Downloading video from YouTube")
	logger.Info("downloading", logging.String("url", youtube.NormalizeURL(url)), logging.String("resolution", r.cfg.YouTube.Resolution))

	sampler := logging.NewProgressSampler(10)
	downloaded, err := r.downloader.Download(ctx, youtube.Request{
		URL:        url,
		OutputDir:  outDir,
		Resolution: r.cfg.YouTube.Resolution,
		Progress: func(pct float64) {
			if r.downloadProgress != nil {
				r.downloadProgress(pct)
			}
			if sampler.ShouldLog(pct, "download") {
				logger.Debug("download progress", logging.Float64("percent", pct))
			}
		},
	})
	if err != nil {
		return "", "", services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "YouTube download failed", err)
	}
	tracker.FinishStep()
	logger.Info("download complete", logging.String("path", downloaded))

	stem := strings.TrimSuffix(filepath.Base(downloaded), filepath.Ext(downloaded))
	sanitized := filepath.Join(outDir, sanitizeBase(stem)+".mp4")
	if sanitized == downloaded {
		return downloaded, sanitized, nil
	}
	tracker.AddSteps(1)
	tracker.StartStep("Creating copy with a safe file name")
	if err := fileutil.CopyFilePreserve(downloaded, sanitized); err != nil {
		return downloaded, "", services.Wrap(services.ErrTransient, "download", "copy", "sanitized copy failed", err)
	}
	tracker.FinishStep()
	return downloaded, sanitized, nil
}

func (r *Runner) removeDownloads(logger *slog.Logger, downloaded, sanitized string) {
	for _, path := range []string{downloaded, sanitized} {
		if path == "" {
			continue
		}
		removed, err := fileutil.RemoveIfExists(path)
		if err != nil {
			logging.WarnWithContext(logger, "downloaded video not removed", "cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		if removed {
			logger.Info("downloaded video removed", logging.String("path", path))
		}
	}
}

func (r *Runner) inspect(ctx context.Context, logger *slog.Logger, path string) (*ffprobe.Result, float64) {
	if r.probe == nil {
		return nil, 0
	}
	probe, err := r.probe(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, "media probe failed", "probe_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffprobe or check the file"),
			logging.String(logging.FieldImpact, "default audio stream used and duration checks skipped"),
		)
		return nil, 0
	}
	duration := probe.DurationSeconds()
	logger.Info("media inspected",
		logging.Float64("duration_seconds", duration),
		logging.Int("audio_streams", probe.AudioStreamCount()),
		logging.Bool("has_video", probe.HasVideo()),
	)
	if stream, ok := probe.PrimaryAudio(); ok && stream.Language() != "" {
		logger.Debug("audio stream language tag", logging.String("stream_language", stream.Language()))
	}
	return &probe, duration
}

type transcribeInput struct {
	audioPath   string
	source      string
	model       string
	language    string
	wordTiming  bool
	modelCached bool
}

func (r *Runner) transcribe(ctx context.Context, logger *slog.Logger, tracker *Tracker, transcriber Transcriber, in transcribeInput) (whisperx.Transcript, bool, error) {
	ctx = services.WithStep(ctx, "transcribe")

	var key transcripts.Key
	store := r.transcriptStore(logger)
	if store != nil {
		hash, err := fileutil.HashFile(in.audioPath)
		if err != nil {
			logger.Debug("transcript cache key unavailable", logging.Error(err))
			store = nil
		} else {
			key = transcripts.Key{MediaHash: hash, Model: in.model, Language: in.language, WordTimestamps: in.wordTiming}
			entry, err := store.Get(ctx, key)
			if err != nil {
				logging.WarnWithContext(logger, "transcript cache lookup failed", "transcript_cache_failed", logging.Error(err))
			} else if entry != nil {
				tracker.StartStep("Reusing cached transcript")
				tracker.FinishStep()
				logger.Info("transcript cache hit",
					logging.String("model", in.model),
					logging.Int("segments", len(entry.Segments)),
					logging.String("cached_at", entry.CreatedAt.Format(time.RFC3339)),
				)
				return whisperx.Transcript{Segments: entry.Segments, Language: entry.DetectedLanguage}, true, nil
			}
		}
	}

	label := fmt.Sprintf("Transcribing with %s", in.model)
	if !in.modelCached {
		label += " (first use downloads the model)"
	}
	tracker.StartStep(label)

	release, err := r.models.AcquireShared(ctx)
	if err != nil {
		return whisperx.Transcript{}, false, services.Wrap(services.ErrTransient, "transcribe", "model cache lock", "", err)
	}
	defer release()

	workDir, err := os.MkdirTemp("", staging.WorkDirPrefix)
	if err != nil {
		return whisperx.Transcript{}, false, services.Wrap(services.ErrTransient, "transcribe", "workdir", "", err)
	}
	defer os.RemoveAll(workDir)

	res, err := transcriber.Transcribe(ctx, whisperx.Request{
		Audio:          in.audioPath,
		OutputDir:      workDir,
		Language:       in.language,
		WordTimestamps: in.wordTiming,
	})
	if err != nil {
		return whisperx.Transcript{}, false, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "transcription failed", err)
	}
	tracker.FinishStep()
	logger.Info("transcription complete",
		logging.Int("segments", len(res.Segments)),
		logging.String("detected_language", res.Language),
		logging.Bool("word_timing", subtitles.HasWordTiming(res.Segments)),
	)

	if store != nil {
		if err := store.Put(ctx, transcripts.Entry{
			Key:              key,
			Source:           in.source,
			DetectedLanguage: res.Language,
			Segments:         res.Segments,
		}); err != nil {
			logging.WarnWithContext(logger, "transcript not cached", "transcript_cache_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next run on this file transcribes again"),
			)
		}
	}
	return res.Transcript, false, nil
}

func (r *Runner) transcriptStore(logger *slog.Logger) *transcripts.Store {
	if !r.cfg.Cache.TranscriptsEnabled || strings.TrimSpace(r.cfg.Paths.TranscriptCache) == "" {
		return nil
	}
	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	if r.store != nil || r.storeErr != nil {
		return r.store
	}
	store, err := transcripts.Open(r.cfg.Paths.TranscriptCache)
	if err != nil {
		r.storeErr = err
		logging.WarnWithContext(logger, "transcript cache unavailable", "transcript_cache_failed",
			logging.String("path", r.cfg.Paths.TranscriptCache),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'subgen cache clear --transcripts' or delete the database"),
			logging.String(logging.FieldImpact, "transcripts are not reused"),
		)
		return nil
	}
	r.store = store
	return store
}

func (r *Runner) validateOutputs(logger *slog.Logger, written []string, duration float64) []string {
	var warnings []string
	for _, path := range written {
		if !strings.EqualFold(filepath.Ext(path), ".srt") {
			continue
		}
		for _, issue := range subtitles.ValidateSRT(path, duration) {
			warnings = append(warnings, issue)
			logging.WarnWithContext(logger, "subtitle validation issue", "subtitle_validation",
				logging.String("path", path),
				logging.String("issue", issue),
				logging.String(logging.FieldErrorHint, "inspect the subtitle file against the media"),
			)
		}
	}
	return warnings
}

// needsWordTiming is true only when karaoke ASS output is requested.
func needsWordTiming(s config.Subtitles) bool {
	if !s.Karaoke {
		return false
	}
	for _, id := range s.Formats {
		if f, err := subtitles.ParseFormat(id); err == nil && f == subtitles.FormatASS {
			return true
		}
	}
	return false
}

func sanitizeBase(stem string) string {
	if name := textutil.SanitizeFileName(stem); name != "" {
		return name
	}
	return "subtitles"
}
