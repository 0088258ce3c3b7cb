package youtube

import (
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`^(https?://)?(www\.|m\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/(watch\?v=|embed/|v/|shorts/|.+\?v=)?([^&=%?]{11})`)

	idPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:v=|/)([\w-]{11})(?:\S+)?$`),
		regexp.MustCompile(`(?:shorts/)([\w-]{11})(?:\S+)?$`),
		regexp.MustCompile(`^([\w-]{11})$`),
	}
)

// IsYouTubeURL reports whether s looks like a YouTube video link.
func IsYouTubeURL(s string) bool {
	return urlPattern.MatchString(strings.TrimSpace(s))
}

// VideoID extracts the 11 character video id from a link or a bare id.
func VideoID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, pattern := range idPatterns {
		if m := pattern.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// NormalizeURL rewrites watch, shorts, mobile and youtu.be links to
// https://www.youtube.com/watch?v=<id>. Input without an id is returned as is.
func NormalizeURL(s string) string {
	id, ok := VideoID(s)
	if !ok {
		return s
	}
	return "https://www.youtube.com/watch?v=" + id
}

// FormatCode returns the yt-dlp format selector for a resolution such as
// "720p". Unknown resolutions take the best MP4 available.
func FormatCode(resolution string) string {
	switch strings.ToLower(strings.TrimSpace(resolution)) {
	case "1080p", "720p", "480p", "360p":
		h := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(resolution)), "p")
		return "bestvideo[height<=" + h + "][ext=mp4]+bestaudio[ext=m4a]/best[height<=" + h + "][ext=mp4]/best"
	default:
		return "best[ext=mp4]/best"
	}
}
