package model

import (
	"path/filepath"
	"time"
)

// Fetch count bounds: how many of the most-recent candidates are inspected per
// poll cycle for one content kind.
const (
	MinFetchCount = 1
	MaxFetchCount = 5
)

// Interval bounds and defaults.
const (
	DefaultCheckInterval = 300 * time.Second
	MinCheckInterval     = 60 * time.Second
)

// Account is a monitored channel/user identity. It is owned by configuration;
// listeners copy it at construction and never see later edits.
type Account struct {
	Name               string   `toml:"name"`
	URL                string   `toml:"url"`
	Platform           Platform `toml:"platform"`
	DownloadDir        string   `toml:"download_dir"`
	Enabled            bool     `toml:"enabled"`
	CheckInterval      int      `toml:"check_interval"` // seconds
	AutoDownloadVideos bool     `toml:"auto_download_videos"`
	AutoDownloadLives  bool     `toml:"auto_download_lives"`
	VideosFetchCount   int      `toml:"videos_fetch_count"`
	LivesFetchCount    int      `toml:"lives_fetch_count"`
	BilibiliCookie     string   `toml:"bilibili_cookie,omitempty"` // SESSDATA
}

// Normalize clamps out-of-range values to their documented bounds.
func (a *Account) Normalize() {
	if time.Duration(a.CheckInterval)*time.Second < MinCheckInterval {
		a.CheckInterval = int(DefaultCheckInterval / time.Second)
	}
	a.VideosFetchCount = clampFetchCount(a.VideosFetchCount)
	a.LivesFetchCount = clampFetchCount(a.LivesFetchCount)
}

func clampFetchCount(n int) int {
	if n < MinFetchCount {
		return MinFetchCount
	}
	if n > MaxFetchCount {
		return MaxFetchCount
	}
	return n
}

// Interval returns the poll interval as a duration.
func (a Account) Interval() time.Duration {
	return time.Duration(a.CheckInterval) * time.Second
}

// AutoDownload reports whether the given content kind is monitored.
func (a Account) AutoDownload(kind ContentKind) bool {
	if kind == KindLives {
		return a.AutoDownloadLives
	}
	return a.AutoDownloadVideos
}

// FetchCount returns the per-kind fetch window, already clamped.
func (a Account) FetchCount(kind ContentKind) int {
	if kind == KindLives {
		return clampFetchCount(a.LivesFetchCount)
	}
	return clampFetchCount(a.VideosFetchCount)
}

// Dir returns the account subdirectory under the configured download dir.
func (a Account) Dir() string {
	return filepath.Join(a.DownloadDir, a.Name)
}

// KindDir returns the destination directory for downloads of the given kind.
// Live recordings land in their own subdirectory so they do not mix with
// regular uploads.
func (a Account) KindDir(kind ContentKind) string {
	if kind == KindLives {
		return filepath.Join(a.Dir(), "lives")
	}
	return a.Dir()
}
