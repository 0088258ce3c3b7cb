package subtitles

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// cueOverrunToleranceSeconds is how far the last cue may run past the end of
// the media before validation flags it.
const cueOverrunToleranceSeconds = 1.0

// RenderSRT renders segments as a SubRip document. Cues are numbered by input
// position; the renderer never re-sorts.
func RenderSRT(segments []Segment) ([]byte, error) {
	var buf bytes.Buffer
	for i, seg := range segments {
		index := i + 1
		if err := validateSpan(index, seg); err != nil {
			return nil, err
		}
		start, err := FormatSRTTimestamp(seg.Start)
		if err != nil {
			return nil, err
		}
		end, err := FormatSRTTimestamp(seg.End)
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Itoa(index))
		buf.WriteByte('\n')
		buf.WriteString(start)
		buf.WriteString(" --> ")
		buf.WriteString(end)
		buf.WriteByte('\n')
		buf.WriteString(strings.TrimSpace(seg.Text))
		buf.WriteString("\n\n")
	}
	return buf.Bytes(), nil
}

func countSRTCues(content string) int {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return 0
	}
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "-->") {
			count++
		}
	}
	return count
}

func subtitleBounds(content string) (float64, float64, bool) {
	first := math.Inf(1)
	var last float64
	found := false
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if startSeconds, err := ParseSRTTimestamp(parts[0]); err == nil {
			if startSeconds < first {
				first = startSeconds
			}
			found = true
		}
		if endSeconds, err := ParseSRTTimestamp(parts[1]); err == nil && endSeconds > last {
			last = endSeconds
		}
	}
	if !found {
		return 0, last, false
	}
	return first, last, true
}

// ValidateSRT checks a written SRT file for format issues. mediaSeconds may be
// zero when the media duration is unknown. An empty slice means the file
// passed.
func ValidateSRT(path string, mediaSeconds float64) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	content := string(data)

	var issues []string
	if countSRTCues(content) == 0 {
		return append(issues, "empty_subtitle_file")
	}

	_, last, ok := subtitleBounds(content)
	if !ok {
		issues = append(issues, "no_valid_timestamps")
	}
	if mediaSeconds > 0 && last-mediaSeconds > cueOverrunToleranceSeconds {
		issues = append(issues, fmt.Sprintf("cue_past_media_end: overrun=%.1fs", last-mediaSeconds))
	}
	return issues
}
