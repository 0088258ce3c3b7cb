// Package workflow turns one media file or YouTube link into subtitle files.
//
// Runner.Process walks the pipeline in order: resolve the model, download
// and copy URL inputs to a sanitized name, extract 16 kHz audio from video
// containers, pick the execution device, reuse or produce a transcript, and
// write every requested subtitle format. Temporary audio is always removed;
// downloaded video is removed when keep_video is off.
//
// Each run gets a correlation id stamped on every log line. A Tracker logs
// "[n/total] step" lines with elapsed time so long transcriptions show where
// they are.
package workflow
