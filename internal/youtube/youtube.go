// Package youtube wraps the external video metadata provider: video id
// parsing, oEmbed metadata, and channel resolution. All network lookups are
// enrichment; callers degrade gracefully when they fail.
package youtube

import (
	"fmt"
	"regexp"
)

var (
	idForm      = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	}
)

// IsValidID reports whether id matches the exact 11-character video id format.
func IsValidID(id string) bool {
	return idForm.MatchString(id)
}

// ExtractVideoID pulls the 11-character video id out of any common YouTube
// URL form (watch, youtu.be, embed, /v/, shorts) or a bare id.
func ExtractVideoID(raw string) (string, bool) {
	if IsValidID(raw) {
		return raw, true
	}
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ThumbnailURL returns the hqdefault thumbnail for a video.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", videoID)
}

// WatchURL returns a watch link, with a &t= offset when start > 0.
func WatchURL(videoID string, start int) string {
	url := "https://www.youtube.com/watch?v=" + videoID
	if start > 0 {
		url += fmt.Sprintf("&t=%d", start)
	}
	return url
}

// EmbedURL returns an iframe embed link with the JS API enabled, seeked to
// start when start > 0.
func EmbedURL(videoID string, origin string, start int) string {
	url := fmt.Sprintf("https://www.youtube.com/embed/%s?enablejsapi=1&origin=%s", videoID, origin)
	if start > 0 {
		url += fmt.Sprintf("&start=%d", start)
	}
	return url
}
