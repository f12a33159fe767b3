package source

import (
	"net/url"
	"strings"

	"github.com/dlbot/dlbot/internal/model"
)

// List-selector suffixes for YouTube channel pages.
const (
	youtubeVideosSuffix  = "/videos"
	youtubeStreamsSuffix = "/streams"
)

// Bilibili has no per-user live-recording tab, so the live listing is framed
// as a recency-ordered site search for the account's replay uploads.
const (
	bilibiliSearchBase = "https://search.bilibili.com/video"
	liveReplayKeyword  = "直播回放"
)

// QueryURL frames the account URL for one content kind. YouTube channel URLs
// get the tab suffix for the kind; Bilibili space URLs pass through for videos
// and are rewritten into a search query for lives.
func QueryURL(acct model.Account, kind model.ContentKind) string {
	switch acct.Platform {
	case model.PlatformYouTube:
		return youtubeListURL(acct.URL, kind)
	case model.PlatformBilibili:
		if kind == model.KindLives {
			return bilibiliLiveSearchURL(acct.Name)
		}
		return acct.URL
	default:
		return acct.URL
	}
}

func youtubeListURL(raw string, kind model.ContentKind) string {
	// Already framed (or a direct live link): leave it alone.
	if strings.Contains(raw, youtubeVideosSuffix) || strings.Contains(raw, youtubeStreamsSuffix) || strings.Contains(raw, "/live") {
		return raw
	}
	trimmed := strings.TrimSuffix(raw, "/")
	if kind == model.KindLives {
		return trimmed + youtubeStreamsSuffix
	}
	return trimmed + youtubeVideosSuffix
}

func bilibiliLiveSearchURL(accountName string) string {
	query := url.Values{}
	query.Set("keyword", accountName+" "+liveReplayKeyword)
	query.Set("order", "pubdate")
	return bilibiliSearchBase + "?" + query.Encode()
}
