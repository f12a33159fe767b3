package platform

import (
	"regexp"
	"strings"
)

// Invalid Windows filename characters plus lookalike confusables that slip
// through naive filters: division sign, big solidus, division slash, and the
// ideographic full stop.
var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x{00F7}\x{29F8}\x{2215}\x{3002}]`)

// MaxSanitizedTitleLength caps the sanitized title, leaving room for the
// account-name prefix and the content-id suffix the backend appends.
const MaxSanitizedTitleLength = 80

// SanitizeTitle makes a display title safe for use inside a filename: reserved
// and lookalike characters become underscores, control characters are dropped,
// the result is capped at MaxSanitizedTitleLength runes and trimmed of
// surrounding whitespace.
func SanitizeTitle(title string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(title, "_")

	var b strings.Builder
	b.Grow(len(sanitized))
	for _, r := range sanitized {
		if r < 32 {
			continue
		}
		b.WriteRune(r)
	}
	sanitized = b.String()

	runes := []rune(sanitized)
	if len(runes) > MaxSanitizedTitleLength {
		sanitized = string(runes[:MaxSanitizedTitleLength])
	}
	return strings.TrimSpace(sanitized)
}
