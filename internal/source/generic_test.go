package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
)

const flatOutputFixture = `{"id": "vid1", "title": "First Upload", "url": "https://www.youtube.com/watch?v=vid1", "duration": 125.0, "live_status": "not_live"}
{"id": "live1", "title": "Stream Replay", "webpage_url": "https://www.youtube.com/watch?v=live1", "duration": 3600, "is_live": true}
{"id": "sched1", "title": "Upcoming Stream", "duration": null, "live_status": "is_upcoming"}
not json at all
{"title": "missing id"}
`

func TestGeneric_List(t *testing.T) {
	var gotURL string
	var gotLimit int

	g := NewGeneric(logging.NewNop())
	g.run = func(ctx context.Context, url string, limit int) (string, error) {
		gotURL = url
		gotLimit = limit
		return flatOutputFixture, nil
	}

	acct := model.Account{Name: "creator", URL: "https://www.youtube.com/@creator", Platform: model.PlatformYouTube}
	candidates, err := g.List(context.Background(), acct, model.KindVideos, 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotURL != "https://www.youtube.com/@creator/videos" {
		t.Errorf("Expected framed list URL, got %s", gotURL)
	}
	if gotLimit != 3 {
		t.Errorf("Expected limit 3 to reach the runner, got %d", gotLimit)
	}

	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates (junk lines skipped), got %d", len(candidates))
	}

	first := candidates[0]
	if first.ID != "vid1" || first.Title != "First Upload" || first.IsLive {
		t.Errorf("Unexpected first candidate %+v", first)
	}
	if first.Duration == nil || *first.Duration != 125*time.Second {
		t.Errorf("Expected 125s duration, got %v", first.Duration)
	}

	second := candidates[1]
	if !second.IsLive {
		t.Error("Expected is_live flag to carry through")
	}
	if second.URL != "https://www.youtube.com/watch?v=live1" {
		t.Errorf("Expected webpage_url fallback, got %s", second.URL)
	}

	third := candidates[2]
	if third.Duration != nil {
		t.Errorf("Expected scheduled entry to have nil duration, got %v", third.Duration)
	}
	if third.URL != "https://www.youtube.com/watch?v=sched1" {
		t.Errorf("Expected constructed watch URL for bare id, got %s", third.URL)
	}
}

func TestGeneric_ListLivesFetchesSlack(t *testing.T) {
	var gotLimit int

	g := NewGeneric(logging.NewNop())
	g.run = func(ctx context.Context, url string, limit int) (string, error) {
		gotLimit = limit
		return `{"id": "sched1", "title": "Upcoming Stream", "duration": null, "live_status": "is_upcoming"}
{"id": "rec1", "title": "Finished Stream", "url": "https://www.youtube.com/watch?v=rec1", "duration": 3600}
`, nil
	}

	acct := model.Account{Name: "creator", URL: "https://www.youtube.com/@creator", Platform: model.PlatformYouTube}
	candidates, err := g.List(context.Background(), acct, model.KindLives, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotLimit != 1+liveListingSlack {
		t.Errorf("Expected live fetch widened to %d, got %d", 1+liveListingSlack, gotLimit)
	}
	// The scheduled entry must not crowd the finished recording out of the
	// batch; the caller filters and truncates after this point.
	if len(candidates) != 2 || candidates[1].ID != "rec1" {
		t.Fatalf("Expected both entries in listing order, got %+v", candidates)
	}
	if candidates[0].Duration != nil || candidates[1].Duration == nil {
		t.Errorf("Unexpected durations: %+v", candidates)
	}
}

func TestGeneric_ListError(t *testing.T) {
	g := NewGeneric(logging.NewNop())
	g.run = func(ctx context.Context, url string, limit int) (string, error) {
		return "", errors.New("network unreachable")
	}

	acct := model.Account{Name: "creator", URL: "https://www.youtube.com/@creator", Platform: model.PlatformYouTube}
	if _, err := g.List(context.Background(), acct, model.KindVideos, 1); err == nil {
		t.Error("Expected extraction failure to propagate")
	}
}

func TestGeneric_Strategy(t *testing.T) {
	if got := NewGeneric(logging.NewNop()).Strategy(); got != StrategyGeneric {
		t.Errorf("Expected generic strategy, got %s", got)
	}
}

func TestParseFlatOutput_Empty(t *testing.T) {
	if got := parseFlatOutput("", model.PlatformYouTube); len(got) != 0 {
		t.Errorf("Expected empty batch, got %d candidates", len(got))
	}
}
