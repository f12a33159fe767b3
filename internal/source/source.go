// Package source lists content candidates for a monitored account. Two
// strategies exist: generic extraction through yt-dlp, which works for any
// supported platform, and the Bilibili structured-feed API, used when the
// account carries a SESSDATA credential. The listener treats both through the
// Lister interface and never cares which one is active beyond the persistence
// hint Strategy provides.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dlbot/dlbot/internal/model"
)

// Strategy identifies how candidates are obtained.
type Strategy string

const (
	StrategyGeneric Strategy = "generic"
	StrategyFeedAPI Strategy = "feed_api"
)

// liveListingSlack widens live-list fetches beyond the caller's limit.
// Scheduled streams sit at the top of live listings before they start and are
// dropped downstream for having no duration; without slack they would occupy
// the whole window and mask finished recordings below them.
const liveListingSlack = 5

// listingFetchSize is the upstream fetch size for one listing call.
func listingFetchSize(kind model.ContentKind, limit int) int {
	if kind == model.KindLives {
		return limit + liveListingSlack
	}
	return limit
}

// ErrUnresolvableAccount means the platform-specific account id could not be
// derived from the configured URL. The pass aborts every cycle until the
// configuration changes.
var ErrUnresolvableAccount = errors.New("cannot resolve account id from url")

// APIError is a structured-feed API failure carrying the upstream code.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%d message=%q", e.StatusCode, e.Code, e.Message)
}

// Lister returns the most recent candidates for one account and content kind,
// most-recent-first. Implementations bound their own network timeouts.
type Lister interface {
	List(ctx context.Context, acct model.Account, kind model.ContentKind, limit int) ([]model.Candidate, error)
	Strategy() Strategy
}

// ForAccount picks the listing strategy for an account: the Bilibili feed API
// when a credential is available, generic extraction otherwise.
func ForAccount(acct model.Account, logger *slog.Logger) Lister {
	if acct.Platform == model.PlatformBilibili && acct.BilibiliCookie != "" {
		return NewBilibiliFeed(acct.BilibiliCookie, logger)
	}
	return NewGeneric(logger)
}
