// Package listener implements the per-account polling engine: each Listener
// owns one account's lifecycle, polls its content listings on an interval,
// filters candidates through the persisted dedup cache, and dispatches
// downloads for genuinely new content. The Manager is the registry that fans
// lifecycle operations out across accounts.
package listener

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dlbot/dlbot/internal/cache"
	"github.com/dlbot/dlbot/internal/download"
	"github.com/dlbot/dlbot/internal/event"
	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
	"github.com/dlbot/dlbot/internal/platform"
	"github.com/dlbot/dlbot/internal/source"
)

const (
	// stopJoinTimeout bounds how long Stop waits for the poll loop to exit.
	// The join is best-effort: an in-flight listing keeps its own timeout and
	// simply has no effect on stopped bookkeeping.
	stopJoinTimeout = 5 * time.Second

	// passTimeout bounds one detection pass end to end.
	passTimeout = 2 * time.Minute
)

// Dispatcher hands discovered content to the download pool without blocking.
type Dispatcher interface {
	Dispatch(req download.Request) *model.DownloadJob
}

// Deps wires a Listener's collaborators. Lister is optional and defaults to
// the strategy ForAccount picks.
type Deps struct {
	Logger    *slog.Logger
	Bus       *event.Bus
	Downloads Dispatcher
	Lister    source.Lister
}

// Listener monitors a single account for new videos or live recordings. It
// holds a read-only snapshot of the account taken at construction; edits to
// the account require recreating the listener.
type Listener struct {
	acct      model.Account
	logger    *slog.Logger
	bus       *event.Bus
	store     *cache.Store
	lister    source.Lister
	downloads Dispatcher

	mu        sync.Mutex
	running   bool
	listening bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a listener for an account, ensuring its download directory
// exists and loading the persisted dedup state.
func New(acct model.Account, deps Deps) (*Listener, error) {
	acct.Normalize()

	if err := platform.CreateDirectoryIfNotExists(acct.Dir()); err != nil {
		return nil, err
	}

	logger := logging.WithComponent(deps.Logger, "listener")
	lister := deps.Lister
	if lister == nil {
		lister = source.ForAccount(acct, deps.Logger)
	}

	return &Listener{
		acct:      acct,
		logger:    logger,
		bus:       deps.Bus,
		store:     cache.NewStore(acct.Dir(), acct.Name, deps.Logger),
		lister:    lister,
		downloads: deps.Downloads,
	}, nil
}

// Account returns the listener's account snapshot.
func (l *Listener) Account() model.Account {
	return l.acct
}

// Start begins polling. Returns false when the listener is already running.
func (l *Listener) Start() bool {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Warn("listener already running", logging.String("account", l.acct.Name))
		return false
	}
	l.running = true
	l.listening = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	stop, done := l.stopCh, l.doneCh
	l.mu.Unlock()

	go l.loop(stop, done)

	l.logger.Info("started listener",
		logging.String("account", l.acct.Name),
		logging.Duration("interval", l.acct.Interval()))
	l.publishStatus(true)
	return true
}

// Stop ends polling, waits (bounded) for the loop to exit, and flushes the
// dedup cache. Returns false when the listener is not running.
func (l *Listener) Stop() bool {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		l.logger.Warn("listener not running", logging.String("account", l.acct.Name))
		return false
	}
	l.running = false
	stop, done := l.stopCh, l.doneCh
	l.mu.Unlock()

	close(stop)
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		l.logger.Warn("poll loop did not exit before timeout, proceeding",
			logging.String("account", l.acct.Name))
	}

	l.mu.Lock()
	l.listening = false
	l.mu.Unlock()

	l.store.SaveAll()

	l.logger.Info("stopped listener", logging.String("account", l.acct.Name))
	l.publishStatus(false)
	return true
}

// IsListening is a point-in-time read of the listening flag, safe from any
// goroutine.
func (l *Listener) IsListening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// ClearCache empties the account's seen-videos state and persists immediately,
// allowing seen videos to be re-downloaded.
func (l *Listener) ClearCache() {
	l.store.Clear()
}

func (l *Listener) publishStatus(listening bool) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(event.Event{
		Type:      event.TypeStatusChanged,
		Account:   l.acct.Name,
		Listening: listening,
	})
}

func (l *Listener) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		l.runCycle()

		select {
		case <-stop:
			return
		case <-time.After(l.acct.Interval()):
		}
	}
}

// runCycle executes one detection pass per enabled content kind. The passes
// run concurrently and the cycle joins both before the interval sleep, so a
// slow kind bounds cycle latency instead of adding to it. A failing pass is
// logged and never takes the loop or the sibling pass down.
func (l *Listener) runCycle() {
	var wg sync.WaitGroup
	for _, kind := range model.Kinds() {
		if !l.acct.AutoDownload(kind) {
			continue
		}
		wg.Add(1)
		go func(kind model.ContentKind) {
			defer wg.Done()
			if err := l.detectionPass(kind); err != nil {
				l.logger.Error("detection pass failed",
					logging.String("account", l.acct.Name),
					logging.String("kind", kind.String()),
					logging.Error(err))
			}
		}(kind)
	}
	wg.Wait()
}

func (l *Listener) detectionPass(kind model.ContentKind) error {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	limit := l.acct.FetchCount(kind)
	candidates, err := l.lister.List(ctx, l.acct, kind, limit)
	if err != nil {
		return err
	}

	// Scheduled streams advertise themselves in live listings before they
	// start. They have nothing downloadable and are dropped before the cache
	// sees them, so they retry naturally once material exists.
	if kind == model.KindLives {
		downloadable := candidates[:0]
		for _, cand := range candidates {
			if cand.Downloadable() {
				downloadable = append(downloadable, cand)
			}
		}
		candidates = downloadable
	}

	// Only the first N candidates are ever inspected per cycle.
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	destDir := l.acct.KindDir(kind)
	l.store.FilterNew(kind, candidates,
		func(id string) bool { return platform.DestinationContainsID(destDir, id) },
		func(cand model.Candidate) { l.handleNew(kind, cand) },
	)

	// The feed API strategy persists after every pass; generic extraction
	// persists at Stop only.
	if l.lister.Strategy() == source.StrategyFeedAPI {
		l.store.Save(kind)
	}
	return nil
}

func (l *Listener) handleNew(kind model.ContentKind, cand model.Candidate) {
	l.logger.Info("found new content",
		logging.String("account", l.acct.Name),
		logging.String("id", cand.ID),
		logging.String("title", cand.Title),
		logging.Bool("live", cand.IsLive))

	if l.bus != nil {
		l.bus.Publish(event.Event{
			Type:      event.TypeContentFound,
			Account:   l.acct.Name,
			ContentID: cand.ID,
			Title:     cand.Title,
			IsLive:    cand.IsLive,
			URL:       cand.URL,
		})
	}

	if l.downloads != nil {
		l.downloads.Dispatch(download.Request{
			Account:   l.acct,
			Kind:      kind,
			ContentID: cand.ID,
			Title:     cand.Title,
			URL:       cand.URL,
		})
	}
}
