package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
)

// Listing timeouts. The socket timeout bounds individual reads inside the
// backend; the context timeout bounds the whole extraction.
const (
	listSocketTimeout = 30.0
	listTimeout       = 90 * time.Second
)

// YouTubeVideoURLTemplate builds a watch URL from a bare video id, used when a
// flat entry carries no URL of its own.
const YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"

// flatRunner executes a flat-extraction listing and returns the raw JSON-lines
// output. Swapped out in tests.
type flatRunner func(ctx context.Context, url string, limit int) (string, error)

// Generic lists candidates through yt-dlp flat extraction. It works for every
// supported platform and needs no credentials.
type Generic struct {
	logger *slog.Logger
	run    flatRunner
}

// NewGeneric creates a generic extraction lister.
func NewGeneric(logger *slog.Logger) *Generic {
	return &Generic{
		logger: logging.WithComponent(logger, "source.generic"),
		run:    runFlatExtraction,
	}
}

// Strategy implements Lister.
func (g *Generic) Strategy() Strategy {
	return StrategyGeneric
}

// List implements Lister.
func (g *Generic) List(ctx context.Context, acct model.Account, kind model.ContentKind, limit int) ([]model.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	listURL := QueryURL(acct, kind)
	out, err := g.run(ctx, listURL, listingFetchSize(kind, limit))
	if err != nil {
		return nil, fmt.Errorf("flat extraction for %s: %w", listURL, err)
	}
	return parseFlatOutput(out, acct.Platform), nil
}

func runFlatExtraction(ctx context.Context, url string, limit int) (string, error) {
	dl := ytdlp.New().
		SkipDownload().
		FlatPlaylist().
		DumpJSON().
		PlaylistEnd(limit).
		SocketTimeout(listSocketTimeout).
		NoWarnings().
		Quiet()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// flatEntry mirrors the fields of one yt-dlp flat-extraction JSON line this
// engine cares about.
type flatEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	WebpageURL string   `json:"webpage_url"`
	Duration   *float64 `json:"duration"`
	IsLive     *bool    `json:"is_live"`
	LiveStatus string   `json:"live_status"`
}

// parseFlatOutput decodes yt-dlp JSON lines into candidates, preserving order.
// Unparseable lines are skipped; a listing that yields nothing is simply an
// empty batch, not an error.
func parseFlatOutput(out string, p model.Platform) []model.Candidate {
	var candidates []model.Candidate

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var entry flatEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.ID == "" {
			continue
		}
		candidates = append(candidates, entry.toCandidate(p))
	}
	return candidates
}

func (e flatEntry) toCandidate(p model.Platform) model.Candidate {
	cand := model.Candidate{
		ID:     e.ID,
		Title:  e.Title,
		IsLive: e.LiveStatus == "is_live" || (e.IsLive != nil && *e.IsLive),
		URL:    e.URL,
	}
	if cand.URL == "" {
		cand.URL = e.WebpageURL
	}
	if cand.URL == "" && p == model.PlatformYouTube {
		cand.URL = fmt.Sprintf(YouTubeVideoURLTemplate, e.ID)
	}
	if e.Duration != nil {
		d := time.Duration(*e.Duration * float64(time.Second))
		cand.Duration = &d
	}
	return cand
}
