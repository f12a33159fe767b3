// Package event carries listener engine events to the hosting layer over a
// single typed channel, replacing cross-thread callbacks. Producers are the
// listeners and the download service; the hosting layer owns the single
// consumer and marshals to whatever thread it needs.
package event

import (
	"sync"
	"time"
)

// Type enumerates the events the engine emits.
type Type string

const (
	// TypeStatusChanged reports a listener starting or stopping.
	TypeStatusChanged Type = "status_changed"
	// TypeContentFound reports a genuinely new candidate, before its download
	// is dispatched.
	TypeContentFound Type = "content_found"
	// TypeDownloadComplete reports a finished download.
	TypeDownloadComplete Type = "download_complete"
	// TypeDownloadFailed reports a download that exhausted its quality ladder.
	TypeDownloadFailed Type = "download_failed"
)

// Event is one engine occurrence. Fields beyond Type and Account are populated
// per type: Listening for status changes, ContentID/Title/IsLive/URL for found
// content, Title/Error for download outcomes.
type Event struct {
	Type      Type
	Account   string
	ContentID string
	Title     string
	IsLive    bool
	URL       string
	Listening bool
	Error     string
	At        time.Time
}

// Bus is a bounded fan-in channel for events. Publish never blocks a producer:
// when the consumer falls behind and the buffer fills, events are dropped.
type Bus struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewBus creates a bus with the given buffer size.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 64
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish stamps and delivers an event without blocking. Events published
// after Close, or while the buffer is full, are discarded.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- e:
	default:
	}
}

// Events returns the receive side of the bus.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close stops the bus; the events channel is closed once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}
