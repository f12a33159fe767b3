package model

// Package model defines domain data structures shared across the app: monitored
// accounts, content candidates, download jobs, and status enums. Structures are
// plain values with explicit state transitions; a listener works from a
// read-only snapshot of its Account taken at construction time.
