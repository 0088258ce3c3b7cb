package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFileNameLength caps sanitized names, in bytes.
const MaxFileNameLength = 100

// fileNameReplacer maps filesystem-unsafe characters and spaces to underscores.
var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
	" ", "_",
)

// SanitizeFileName makes name safe to use as a file stem. Unsafe characters
// and spaces become underscores, accented letters lose their marks, any
// remaining run of non-ASCII runes collapses to a single underscore, and the
// result is cut to MaxFileNameLength bytes.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(stripMarks(name))

	var b strings.Builder
	b.Grow(len(name))
	inRun := false
	for _, r := range name {
		if r > unicode.MaxASCII {
			if !inRun {
				b.WriteByte('_')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}

	out := b.String()
	if len(out) > MaxFileNameLength {
		out = out[:MaxFileNameLength]
	}
	return out
}

// stripMarks decomposes text and drops combining marks so "Tiếng" becomes
// "Tieng". Letters without a decomposition are left for the caller.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
