package donations

import (
	"strings"
	"unicode"
)

// teamRefMarkers are the accepted note markers, most specific first. The
// first two are legacy spellings still present on old checkout links.
var teamRefMarkers = []string{"teamslug=", "teamid=", "team="}

// ParseTeamRef scans a payment note for a team reference marker. Matching is
// case-insensitive; the value runs until whitespace or ';' and keeps its
// original case. Returns nil when no marker yields a non-empty value.
func ParseTeamRef(note string) *string {
	lower := strings.ToLower(note)
	for _, marker := range teamRefMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := note[idx+len(marker):]
		if end := strings.IndexFunc(rest, func(r rune) bool {
			return unicode.IsSpace(r) || r == ';'
		}); end >= 0 {
			rest = rest[:end]
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			continue
		}
		return &rest
	}
	return nil
}
