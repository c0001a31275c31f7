// Package export renders citation lists as paste-ready description text.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/referer/referer/internal/timestamp"
)

const (
	maxClaimChars   = 50
	truncatedLength = 47
)

// Citation is one entry to render.
type Citation struct {
	Offset    int
	Claim     string
	SourceURL string
}

// Description builds the block a creator pastes into a YouTube video
// description: one line per citation with its timestamp, truncated claim,
// and a deep link into the public viewer. Citations are listed ascending by
// offset regardless of input order; equal offsets keep their input order.
func Description(videoID string, citations []Citation, baseURL string) string {
	viewerURL := fmt.Sprintf("%s/v/%s", baseURL, videoID)

	if len(citations) == 0 {
		return fmt.Sprintf("📚 Sources verified on Referer:\n\nNo sources registered yet.\n\n🔗 View on Referer: %s", viewerURL)
	}

	sorted := sortByOffset(citations)

	lines := make([]string, len(sorted))
	for i, c := range sorted {
		lines[i] = fmt.Sprintf("%s - %s\n         → %s?t=%d",
			timestamp.Format(c.Offset), truncateClaim(c.Claim), viewerURL, c.Offset)
	}

	return fmt.Sprintf(`───────────────────────────────
📚 Sources verified on Referer:

%s

🔗 See every source with the original papers:
   %s
───────────────────────────────`, strings.Join(lines, "\n\n"), viewerURL)
}

// SimpleLinks builds a minimal "timestamp → url" list.
func SimpleLinks(videoID string, citations []Citation, baseURL string) string {
	if len(citations) == 0 {
		return ""
	}

	sorted := sortByOffset(citations)

	lines := make([]string, len(sorted))
	for i, c := range sorted {
		lines[i] = fmt.Sprintf("%s → %s", timestamp.Format(c.Offset), c.SourceURL)
	}

	return fmt.Sprintf("Sources:\n%s\n\nVerify on: %s/v/%s", strings.Join(lines, "\n"), baseURL, videoID)
}

func sortByOffset(citations []Citation) []Citation {
	sorted := make([]Citation, len(citations))
	copy(sorted, citations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return sorted
}

func truncateClaim(claim string) string {
	runes := []rune(claim)
	if len(runes) <= maxClaimChars {
		return claim
	}
	return string(runes[:truncatedLength]) + "..."
}
