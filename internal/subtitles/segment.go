package subtitles

import "strings"

// Word is a single transcribed token. Timed is false when the engine could
// not align the word, in which case Start and End carry no meaning.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Timed bool    `json:"timed"`
}

// Segment is a contiguous span of transcribed speech. Times are seconds from
// the start of the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// SegmentKind selects how a segment is rendered in karaoke mode.
type SegmentKind int

const (
	// KindPlainText segments carry no usable words and render as plain dialogue.
	KindPlainText SegmentKind = iota
	// KindWordTiming segments carry words and render with karaoke tags.
	KindWordTiming
)

func (k SegmentKind) String() string {
	switch k {
	case KindWordTiming:
		return "word_timing"
	default:
		return "plain_text"
	}
}

// Kind reports whether the segment has any non-empty words to highlight.
func (s Segment) Kind() SegmentKind {
	for _, w := range s.Words {
		if strings.TrimSpace(w.Text) != "" {
			return KindWordTiming
		}
	}
	return KindPlainText
}

// HasWordTiming reports whether any segment carries words. The workflow uses
// it to decide whether cached transcripts can serve a karaoke request.
func HasWordTiming(segments []Segment) bool {
	for _, seg := range segments {
		if seg.Kind() == KindWordTiming {
			return true
		}
	}
	return false
}

func validateSpan(index int, seg Segment) error {
	if err := checkSeconds("start", seg.Start); err != nil {
		err.Index = index
		return err
	}
	if err := checkSeconds("end", seg.End); err != nil {
		err.Index = index
		return err
	}
	if seg.End < seg.Start {
		return &TimingError{Field: "end", Value: seg.End, Index: index}
	}
	return nil
}
