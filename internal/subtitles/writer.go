package subtitles

import (
	"os"
	"strings"
)

// Format identifies a subtitle output format by its file extension.
type Format string

const (
	FormatSRT Format = "srt"
	FormatASS Format = "ass"
)

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string { return string(f) }

// SupportedFormats lists the formats WriteFiles can produce.
func SupportedFormats() []Format {
	return []Format{FormatSRT, FormatASS}
}

// ParseFormat maps a user supplied identifier to a Format.
func ParseFormat(id string) (Format, error) {
	switch Format(normalizeFormatID(id)) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatASS:
		return FormatASS, nil
	default:
		return "", &FormatError{Format: strings.TrimSpace(id)}
	}
}

// SplitFormatList splits a comma separated list such as "srt,ass" into
// normalized identifiers, dropping blanks and duplicates. Unknown identifiers
// are kept so WriteFiles can report them.
func SplitFormatList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		id := normalizeFormatID(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeFormatID(id string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), ".")
}

// Render produces one document in the given format.
func Render(format Format, segments []Segment, opts ASSOptions) ([]byte, error) {
	switch format {
	case FormatSRT:
		return RenderSRT(segments)
	case FormatASS:
		return RenderASS(segments, opts)
	default:
		return nil, &FormatError{Format: string(format)}
	}
}

// OutputPath returns the file path a format is written to for base.
func OutputPath(base string, format Format) string {
	return base + "." + format.Extension()
}

// WriteFiles renders each requested format to <base>.<ext>, replacing any
// existing file. Formats are processed in order; on error the paths already
// written are returned alongside it and remain on disk.
func WriteFiles(base string, formats []string, opts ASSOptions, segments []Segment) ([]string, error) {
	written := make([]string, 0, len(formats))
	seen := make(map[Format]struct{}, len(formats))
	for _, id := range formats {
		format, err := ParseFormat(id)
		if err != nil {
			return written, err
		}
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}

		data, err := Render(format, segments, opts)
		if err != nil {
			return written, err
		}
		path := OutputPath(base, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, &WriteError{Path: path, Err: err}
		}
		written = append(written, path)
	}
	return written, nil
}
