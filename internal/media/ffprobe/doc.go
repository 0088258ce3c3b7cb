// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The transcription pipeline uses it to confirm an input carries an audio
// stream before extraction, to decide whether the input is audio only, and to
// learn the media duration for subtitle validation.
package ffprobe
