// Package services defines shared utilities consumed by the transcription
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the pipeline step, media source, and run
//     correlation identifier for logging.
//   - Structured error markers plus the Wrap helper, and ExitCode which turns
//     them into process exit statuses for the CLI.
//
// Subpackages wrap the external tools (WhisperX) behind injectable command
// runners so they can be exercised without the real binaries.
package services
