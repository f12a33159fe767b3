package model

import "time"

// Candidate is a single piece of content surfaced by a listing query, not yet
// confirmed new. Candidates are transient: one batch per detection pass,
// discarded after filtering.
type Candidate struct {
	ID     string
	Title  string
	IsLive bool
	URL    string
	// Duration is nil for scheduled streams that have not started yet and
	// therefore have nothing downloadable.
	Duration *time.Duration
}

// Downloadable reports whether the candidate has content to fetch right now.
// Scheduled streams advertise themselves in live listings before they begin.
func (c Candidate) Downloadable() bool {
	return c.Duration != nil
}
