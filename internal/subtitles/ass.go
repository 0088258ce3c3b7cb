package subtitles

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// ASS colours are &HAABBGGRR with alpha 00 meaning opaque.
var assColors = map[string]string{
	"yellow":  "&H0000FFFF",
	"white":   "&H00FFFFFF",
	"blue":    "&H00FF0000",
	"green":   "&H0000FF00",
	"red":     "&H000000FF",
	"cyan":    "&H00FFFF00",
	"magenta": "&H00FF00FF",
	"black":   "&H00000000",
}

const (
	defaultASSColor    = "white"
	defaultASSFont     = "Arial"
	defaultASSFontSize = 48
	// Karaoke words are drawn in this colour until their tag elapses.
	assSecondaryColor = "&H00A0A0A0"
	assOutlineColor   = "&H00000000"
	assBackColor      = "&H00000000"
	assStyleName      = "Default"
)

// ASSOptions controls the ASS header and event rendering.
type ASSOptions struct {
	Title    string
	Karaoke  bool
	Color    string
	Font     string
	FontSize int
}

// ColorNames lists the accepted ASSOptions.Color values.
func ColorNames() []string {
	return []string{"white", "yellow", "blue", "green", "red", "cyan", "magenta", "black"}
}

// IsKnownColor reports whether name maps to an ASS colour.
func IsKnownColor(name string) bool {
	_, ok := assColors[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (o ASSOptions) primaryColor() string {
	if c, ok := assColors[strings.ToLower(strings.TrimSpace(o.Color))]; ok {
		return c
	}
	return assColors[defaultASSColor]
}

func (o ASSOptions) font() string {
	if f := strings.TrimSpace(o.Font); f != "" && !strings.Contains(f, ",") {
		return f
	}
	return defaultASSFont
}

func (o ASSOptions) fontSize() int {
	if o.FontSize > 0 {
		return o.FontSize
	}
	return defaultASSFontSize
}

// RenderASS renders segments as an Advanced SubStation Alpha document with a
// single Default style and one Dialogue event per segment.
func RenderASS(segments []Segment, opts ASSOptions) ([]byte, error) {
	var buf bytes.Buffer
	writeASSHeader(&buf, opts)

	for i, seg := range segments {
		if err := validateSpan(i+1, seg); err != nil {
			return nil, err
		}
		start, err := FormatASSTimestamp(seg.Start)
		if err != nil {
			return nil, err
		}
		end, err := FormatASSTimestamp(seg.End)
		if err != nil {
			return nil, err
		}

		var text string
		switch {
		case opts.Karaoke && seg.Kind() == KindWordTiming:
			text = karaokeText(seg)
		default:
			text = assEscape(strings.TrimSpace(seg.Text))
		}

		buf.WriteString("Dialogue: 0,")
		buf.WriteString(start)
		buf.WriteByte(',')
		buf.WriteString(end)
		buf.WriteByte(',')
		buf.WriteString(assStyleName)
		buf.WriteString(",,0,0,0,,")
		buf.WriteString(text)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func writeASSHeader(buf *bytes.Buffer, opts ASSOptions) {
	title := strings.TrimSpace(strings.ReplaceAll(opts.Title, "\n", " "))

	buf.WriteString("[Script Info]\n")
	buf.WriteString("Title: " + title + "\n")
	buf.WriteString("ScriptType: v4.00+\n")
	buf.WriteString("WrapStyle: 0\n")
	buf.WriteString("ScaledBorderAndShadow: yes\n")
	buf.WriteString("YCbCr Matrix: None\n")
	buf.WriteString("PlayResX: 1920\n")
	buf.WriteString("PlayResY: 1080\n\n")

	buf.WriteString("[V4+ Styles]\n")
	buf.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, " +
		"Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, " +
		"Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fields := []string{
		assStyleName,
		opts.font(),
		strconv.Itoa(opts.fontSize()),
		opts.primaryColor(),
		assSecondaryColor,
		assOutlineColor,
		assBackColor,
		"0", "0", "0", "0", // bold, italic, underline, strikeout
		"100", "100", "0", "0", // scale x/y, spacing, angle
		"1", "2", "2", // border style, outline, shadow
		"2",              // bottom centre
		"20", "20", "20", // margins
		"1",
	}
	buf.WriteString("Style: " + strings.Join(fields, ",") + "\n\n")

	buf.WriteString("[Events]\n")
	buf.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
}

// karaokeText builds "{\kNN}word " for each word of seg. When every word is
// timed, silence before a word is emitted as an empty "{\kNN} " syllable so
// highlighting stays on the audio.
func karaokeText(seg Segment) string {
	words := make([]Word, 0, len(seg.Words))
	for _, w := range seg.Words {
		w.Text = assEscape(strings.TrimSpace(w.Text))
		if w.Text == "" {
			continue
		}
		words = append(words, w)
	}
	durations, timed := karaokeDurations(seg, words)

	var b strings.Builder
	last := seg.Start
	for i, w := range words {
		if timed {
			if gap := int64(math.Round((w.Start - last) * 100)); gap > 0 {
				writeKaraokeTag(&b, gap)
				b.WriteByte(' ')
			}
			last = math.Max(last, w.End)
		}
		writeKaraokeTag(&b, durations[i])
		b.WriteString(w.Text)
		b.WriteByte(' ')
	}
	return strings.TrimRight(b.String(), " ")
}

func writeKaraokeTag(b *strings.Builder, centiseconds int64) {
	b.WriteString(`{\k`)
	b.WriteString(strconv.FormatInt(centiseconds, 10))
	b.WriteByte('}')
}

// karaokeDurations returns per-word centiseconds. If any word lacks usable
// timing the segment duration is split evenly instead, with leftover
// centiseconds assigned to the leading words.
func karaokeDurations(seg Segment, words []Word) ([]int64, bool) {
	durations := make([]int64, len(words))
	usable := true
	for i, w := range words {
		cs, ok := wordCentiseconds(w)
		if !ok {
			usable = false
			break
		}
		durations[i] = cs
	}
	if usable || len(words) == 0 {
		return durations, usable
	}

	total := int64(math.Round((seg.End - seg.Start) * 100))
	if total < 0 {
		total = 0
	}
	n := int64(len(words))
	base, rem := total/n, total%n
	for i := range durations {
		durations[i] = base
		if int64(i) < rem {
			durations[i]++
		}
	}
	return durations, false
}

func wordCentiseconds(w Word) (int64, bool) {
	if !w.Timed {
		return 0, false
	}
	d := w.End - w.Start
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, false
	}
	return int64(math.Round(d * 100)), true
}

var assTextReplacer = strings.NewReplacer(
	"\r\n", `\N`,
	"\n", `\N`,
	"{", "(",
	"}", ")",
)

// assEscape keeps raw text from being read as override blocks or line breaks.
func assEscape(text string) string {
	return assTextReplacer.Replace(text)
}
