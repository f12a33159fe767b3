package model

import (
	"fmt"
	"strings"
)

// Platform identifies which video platform an account belongs to. The value is
// resolved once when the account is configured; everything downstream (adapter
// strategy, quality ladder, error classification) keys off it.
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformBilibili Platform = "bilibili"
)

// ParsePlatform validates a configured platform tag.
func ParsePlatform(value string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(value))) {
	case PlatformYouTube:
		return PlatformYouTube, nil
	case PlatformBilibili:
		return PlatformBilibili, nil
	default:
		return "", fmt.Errorf("unknown platform %q", value)
	}
}

// DetectPlatform guesses the platform from an account URL. Used by the CLI when
// adding accounts so the user does not have to spell the tag out.
func DetectPlatform(url string) (Platform, bool) {
	lowered := strings.ToLower(url)
	switch {
	case strings.Contains(lowered, "youtube.com"), strings.Contains(lowered, "youtu.be"):
		return PlatformYouTube, true
	case strings.Contains(lowered, "bilibili.com"):
		return PlatformBilibili, true
	default:
		return "", false
	}
}

// String returns the string representation of Platform.
func (p Platform) String() string {
	return string(p)
}
