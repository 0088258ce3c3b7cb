package subtitles

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidTiming marks negative or non-finite durations and inverted spans.
	ErrInvalidTiming = errors.New("invalid timing")
	// ErrUnsupportedFormat marks a requested format identifier with no renderer.
	ErrUnsupportedFormat = errors.New("unsupported subtitle format")
	// ErrIO marks failures writing a rendered document to disk.
	ErrIO = errors.New("subtitle write failed")
)

// TimingError reports a timestamp the formatters refuse to render.
type TimingError struct {
	Field string
	Value float64
	// Index is the 1-based segment position, or 0 when not tied to a segment.
	Index int
}

func (e *TimingError) Error() string {
	value := strconv.FormatFloat(e.Value, 'f', -1, 64)
	if e.Index > 0 {
		return fmt.Sprintf("%s: segment %d %s=%s", ErrInvalidTiming, e.Index, e.Field, value)
	}
	return fmt.Sprintf("%s: %s=%s", ErrInvalidTiming, e.Field, value)
}

func (e *TimingError) Unwrap() error { return ErrInvalidTiming }

// ErrorKind classifies the error for exit code mapping.
func (e *TimingError) ErrorKind() string { return "validation" }

// FormatError names the offending format identifier.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnsupportedFormat, e.Format)
}

func (e *FormatError) Unwrap() error { return ErrUnsupportedFormat }

func (e *FormatError) ErrorKind() string { return "validation" }

// WriteError wraps a filesystem failure for a specific output path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrIO, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrIO, e.Err} }

func (e *WriteError) ErrorKind() string { return "io" }
