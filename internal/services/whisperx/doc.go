// Package whisperx runs the WhisperX speech recognition engine and converts
// its JSON output into subtitle segments.
//
// This package handles:
//   - Audio extraction to mono 16 kHz PCM WAV via ffmpeg
//   - WhisperX invocation through uvx (or a directly installed binary)
//   - Parsing segment, word timing, and detected language from the JSON result
//
// Configuration options (model, device, VAD method, model directory) are
// passed via Config. Tests replace process execution with WithCommandRunner.
package whisperx
