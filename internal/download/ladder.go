package download

import "github.com/dlbot/dlbot/internal/model"

// Rung is one step of a quality ladder: the format specifier handed to the
// backend and whether the rung selects multiple streams that need merging
// into one container.
type Rung struct {
	Format string
	Merge  bool
}

// mergeContainer is the container requested when a rung combines separate
// video and audio streams.
const mergeContainer = "mp4"

// Bilibili serves separated video/audio streams, so every rung requests an
// explicit video+audio pair from highest to lowest resolution, ending in an
// audio-only rung and a catch-all.
var bilibiliLadder = []Rung{
	{Format: "bestvideo[height<=2160]+bestaudio", Merge: true},
	{Format: "bestvideo[height<=1080]+bestaudio", Merge: true},
	{Format: "bestvideo[height<=720]+bestaudio", Merge: true},
	{Format: "bestvideo[height<=480]+bestaudio", Merge: true},
	{Format: "bestaudio", Merge: false},
	{Format: "best", Merge: false},
}

// YouTube serves progressive formats alongside adaptive ones, so a short
// ladder suffices: best progressive mp4, then an explicit merge, then
// whatever is available.
var youtubeLadder = []Rung{
	{Format: "best[ext=mp4]", Merge: false},
	{Format: "bestvideo+bestaudio", Merge: true},
	{Format: "best", Merge: false},
}

// Ladder returns the ordered quality ladder for a platform.
func Ladder(p model.Platform) []Rung {
	if p == model.PlatformBilibili {
		return bilibiliLadder
	}
	return youtubeLadder
}
