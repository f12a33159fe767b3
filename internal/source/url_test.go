package source

import (
	"strings"
	"testing"

	"github.com/dlbot/dlbot/internal/model"
)

func TestQueryURL_YouTube(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		kind     model.ContentKind
		expected string
	}{
		{"videos suffix", "https://www.youtube.com/@creator", model.KindVideos, "https://www.youtube.com/@creator/videos"},
		{"streams suffix", "https://www.youtube.com/@creator", model.KindLives, "https://www.youtube.com/@creator/streams"},
		{"trailing slash", "https://www.youtube.com/@creator/", model.KindVideos, "https://www.youtube.com/@creator/videos"},
		{"already framed", "https://www.youtube.com/@creator/videos", model.KindVideos, "https://www.youtube.com/@creator/videos"},
		{"direct live link", "https://www.youtube.com/@creator/live", model.KindLives, "https://www.youtube.com/@creator/live"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			acct := model.Account{Name: "creator", URL: test.url, Platform: model.PlatformYouTube}
			if got := QueryURL(acct, test.kind); got != test.expected {
				t.Errorf("QueryURL(%s, %s) = %s, expected %s", test.url, test.kind, got, test.expected)
			}
		})
	}
}

func TestQueryURL_Bilibili(t *testing.T) {
	acct := model.Account{Name: "someone", URL: "https://space.bilibili.com/12345", Platform: model.PlatformBilibili}

	if got := QueryURL(acct, model.KindVideos); got != acct.URL {
		t.Errorf("Expected videos query to pass the space URL through, got %s", got)
	}

	lives := QueryURL(acct, model.KindLives)
	if !strings.HasPrefix(lives, "https://search.bilibili.com/video?") {
		t.Errorf("Expected lives query to rewrite into a search URL, got %s", lives)
	}
	if !strings.Contains(lives, "order=pubdate") {
		t.Errorf("Expected recency ordering in search URL, got %s", lives)
	}
	if !strings.Contains(lives, "someone") {
		t.Errorf("Expected account name in search keyword, got %s", lives)
	}
}

func TestResolveBilibiliUID(t *testing.T) {
	uid, err := ResolveBilibiliUID("https://space.bilibili.com/98765/video")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if uid != "98765" {
		t.Errorf("Expected uid 98765, got %s", uid)
	}

	if _, err := ResolveBilibiliUID("https://www.bilibili.com/video/BV1xx"); err == nil {
		t.Error("Expected unresolvable URL to fail")
	}
}
