// Package logging assembles structured slog loggers and formatting helpers used
// across subgen.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code tags log lines
// with the run correlation id, media source, and step. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
