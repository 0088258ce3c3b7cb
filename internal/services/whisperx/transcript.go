package whisperx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"subgen/internal/subtitles"
)

// Transcript is the parsed WhisperX JSON result.
type Transcript struct {
	Segments []subtitles.Segment
	// Language is the language the engine used or detected, if reported.
	Language string
}

type payloadWord struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type payloadSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []payloadWord `json:"words"`
}

type payload struct {
	Segments []payloadSegment `json:"segments"`
	Language string           `json:"language"`
}

// LoadTranscript loads segments from a WhisperX JSON file.
func LoadTranscript(jsonPath string) (Transcript, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Transcript{}, err
	}
	return ParseTranscript(data)
}

// ParseTranscript decodes WhisperX JSON. Words the aligner could not place
// (digits and symbols usually) have no start or end and are marked untimed.
func ParseTranscript(data []byte) (Transcript, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Transcript{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	out := Transcript{
		Segments: make([]subtitles.Segment, 0, len(p.Segments)),
		Language: strings.TrimSpace(p.Language),
	}
	for _, seg := range p.Segments {
		converted := subtitles.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
		if len(seg.Words) > 0 {
			converted.Words = make([]subtitles.Word, 0, len(seg.Words))
			for _, w := range seg.Words {
				word := subtitles.Word{Text: w.Word}
				if w.Start != nil && w.End != nil {
					word.Start = *w.Start
					word.End = *w.End
					word.Timed = true
				}
				converted.Words = append(converted.Words, word)
			}
		}
		out.Segments = append(out.Segments, converted)
	}
	return out, nil
}

// Text concatenates segment text, mainly for logging and cache listings.
func (t Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
