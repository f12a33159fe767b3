package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dlbot/dlbot/internal/download"
	"github.com/dlbot/dlbot/internal/event"
	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
)

const eventBufferSize = 128

// Manager owns the listener registry and the shared infrastructure behind it:
// one event bus and one bounded download pool serve every account.
type Manager struct {
	logger    *slog.Logger
	bus       *event.Bus
	downloads *download.Service

	mu        sync.Mutex
	listeners map[string]*Listener
}

// NewManager creates an empty registry with a download pool of maxParallel
// concurrent fetches.
func NewManager(maxParallel int, logger *slog.Logger) *Manager {
	bus := event.NewBus(eventBufferSize)
	return &Manager{
		logger:    logging.WithComponent(logger, "manager"),
		bus:       bus,
		downloads: download.NewService(maxParallel, bus, logger),
		listeners: make(map[string]*Listener),
	}
}

// Events exposes the shared event stream for UIs and notifiers.
func (m *Manager) Events() <-chan event.Event {
	return m.bus.Events()
}

// Downloads exposes the shared download pool.
func (m *Manager) Downloads() *download.Service {
	return m.downloads
}

// Add registers a listener for an account. Account names are the registry
// keys, so duplicates are rejected.
func (m *Manager) Add(acct model.Account) (*Listener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listeners[acct.Name]; ok {
		return nil, fmt.Errorf("account %q already registered", acct.Name)
	}

	l, err := New(acct, Deps{
		Logger:    m.logger,
		Bus:       m.bus,
		Downloads: m.downloads,
	})
	if err != nil {
		return nil, fmt.Errorf("create listener for %q: %w", acct.Name, err)
	}
	m.listeners[acct.Name] = l
	return l, nil
}

// Remove stops the named listener if needed and drops it from the registry.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	l, ok := m.listeners[name]
	delete(m.listeners, name)
	m.mu.Unlock()

	if !ok {
		return false
	}
	if l.IsListening() {
		l.Stop()
	}
	return true
}

// Get looks up a listener by account name.
func (m *Manager) Get(name string) (*Listener, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listeners[name]
	return l, ok
}

// Names returns registered account names in sorted order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.listeners))
	for name := range m.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start starts the named listener. Returns false for unknown names and for
// listeners already running.
func (m *Manager) Start(name string) bool {
	l, ok := m.Get(name)
	if !ok {
		return false
	}
	return l.Start()
}

// Stop stops the named listener.
func (m *Manager) Stop(name string) bool {
	l, ok := m.Get(name)
	if !ok {
		return false
	}
	return l.Stop()
}

// StartAll starts every listener whose account is enabled.
func (m *Manager) StartAll() {
	for _, l := range m.snapshot() {
		if !l.Account().Enabled {
			continue
		}
		l.Start()
	}
}

// StopAll stops every running listener.
func (m *Manager) StopAll() {
	for _, l := range m.snapshot() {
		if l.IsListening() {
			l.Stop()
		}
	}
}

// ClearCache clears the seen-videos state for one account.
func (m *Manager) ClearCache(name string) bool {
	l, ok := m.Get(name)
	if !ok {
		return false
	}
	l.ClearCache()
	return true
}

// ClearAllCaches clears the seen-videos state for every account.
func (m *Manager) ClearAllCaches() {
	for _, l := range m.snapshot() {
		l.ClearCache()
	}
}

// Shutdown stops all listeners, drains the download pool, and closes the
// event bus. The context bounds the download drain.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.StopAll()
	err := m.downloads.Shutdown(ctx)
	m.bus.Close()
	return err
}

// snapshot copies the registry so lifecycle calls run outside the lock;
// Stop can block for seconds and must not starve registry reads.
func (m *Manager) snapshot() []*Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}
