package download

import (
	"strings"

	"github.com/dlbot/dlbot/internal/model"
)

// FailureKind buckets a backend error for the fallback decision.
type FailureKind int

const (
	// FailureGeneric is any error with no special handling: the ladder moves
	// to the next rung.
	FailureGeneric FailureKind = iota
	// FailureScheduled means the content is not downloadable yet (stream not
	// started or offline): the ladder aborts without treating it as an error.
	FailureScheduled
	// FailureQuality means the rung's format is gated or missing (premium
	// quality, format not available): the ladder moves to the next rung.
	FailureQuality
)

// Markers in yt-dlp error output for streams with nothing downloadable yet.
var scheduledMarkers = []string{
	"live event will begin",
	"premieres in",
	"not currently live",
	"is offline",
	"has not started",
}

// Markers for permission-gated or missing formats. Only meaningful on the
// split-stream platform, where high rungs require a paid membership.
var qualityMarkers = []string{
	"requested format is not available",
	"format is not available",
	"大会员",
	"premium",
	"members-only",
	"vip",
}

// Classify buckets a backend error by message. The quality bucket is only
// produced for Bilibili, except for the plain format-availability message
// which yt-dlp emits on any platform.
func Classify(p model.Platform, err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}
	msg := strings.ToLower(err.Error())

	for _, marker := range scheduledMarkers {
		if strings.Contains(msg, marker) {
			return FailureScheduled
		}
	}

	if strings.Contains(msg, "format is not available") {
		return FailureQuality
	}
	if p == model.PlatformBilibili {
		for _, marker := range qualityMarkers {
			if strings.Contains(msg, marker) {
				return FailureQuality
			}
		}
	}
	return FailureGeneric
}
