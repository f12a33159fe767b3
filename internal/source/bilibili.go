package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
)

const (
	bilibiliAPIBase    = "https://api.bilibili.com"
	bilibiliFeedPath   = "/x/space/arc/search"
	bilibiliVideoURL   = "https://www.bilibili.com/video/%s"
	bilibiliReferer    = "https://www.bilibili.com/"
	feedRequestTimeout = 15 * time.Second
)

var spaceURLPattern = regexp.MustCompile(`space\.bilibili\.com/(\d+)`)

// ResolveBilibiliUID extracts the numeric account id from a space URL.
// Returns ErrUnresolvableAccount when the URL matches no known shape.
func ResolveBilibiliUID(accountURL string) (string, error) {
	m := spaceURLPattern.FindStringSubmatch(accountURL)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrUnresolvableAccount, accountURL)
	}
	return m[1], nil
}

// BilibiliFeed lists candidates through Bilibili's space submission API using
// the account's SESSDATA cookie. Selected for Bilibili accounts that carry a
// credential; the richer feed exposes precise ordering and lengths that flat
// extraction of the space page does not.
type BilibiliFeed struct {
	cookie  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewBilibiliFeed creates the feed API lister.
func NewBilibiliFeed(cookie string, logger *slog.Logger) *BilibiliFeed {
	return &BilibiliFeed{
		cookie:  cookie,
		baseURL: bilibiliAPIBase,
		client:  &http.Client{Timeout: feedRequestTimeout},
		logger:  logging.WithComponent(logger, "source.bilibili"),
	}
}

// Strategy implements Lister.
func (b *BilibiliFeed) Strategy() Strategy {
	return StrategyFeedAPI
}

// List implements Lister.
func (b *BilibiliFeed) List(ctx context.Context, acct model.Account, kind model.ContentKind, limit int) ([]model.Candidate, error) {
	uid, err := ResolveBilibiliUID(acct.URL)
	if err != nil {
		return nil, err
	}

	items, err := b.fetchFeed(ctx, uid, kind, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, model.Candidate{
			ID:       item.BVID,
			Title:    item.Title,
			IsLive:   kind == model.KindLives,
			URL:      fmt.Sprintf(bilibiliVideoURL, item.BVID),
			Duration: parseLength(item.Length),
		})
	}
	return candidates, nil
}

type feedItem struct {
	BVID   string `json:"bvid"`
	Title  string `json:"title"`
	Length string `json:"length"`
}

type feedResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		List struct {
			VList []feedItem `json:"vlist"`
		} `json:"list"`
	} `json:"data"`
}

func (b *BilibiliFeed) fetchFeed(ctx context.Context, uid string, kind model.ContentKind, limit int) ([]feedItem, error) {
	query := url.Values{}
	query.Set("mid", uid)
	query.Set("pn", "1")
	query.Set("ps", strconv.Itoa(listingFetchSize(kind, limit)))
	query.Set("order", "pubdate")
	if kind == model.KindLives {
		// Live recordings are regular submissions tagged with the replay
		// keyword; the feed supports server-side keyword filtering.
		query.Set("keyword", liveReplayKeyword)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+bilibiliFeedPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", "SESSDATA="+b.cookie)
	req.Header.Set("Referer", bilibiliReferer)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("feed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var decoded feedResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("feed decode: %w", err)
	}
	if decoded.Code != 0 {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: decoded.Code, Message: decoded.Message}
	}
	return decoded.Data.List.VList, nil
}

// parseLength converts the feed's "MM:SS" or "HH:MM:SS" length to a duration.
// Empty or placeholder lengths mean the recording is not materialized yet and
// yield nil, matching the scheduled-stream contract.
func parseLength(length string) *time.Duration {
	length = strings.TrimSpace(length)
	if length == "" || length == "--" || length == "0:00" || length == "00:00" {
		return nil
	}

	parts := strings.Split(length, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil
		}
		total = total*60 + n
	}
	d := time.Duration(total) * time.Second
	return &d
}
