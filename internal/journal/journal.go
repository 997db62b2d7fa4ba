// Package journal keeps an append-only audit log of stopwatch events in
// sqlite. The daemon only writes to it; the journal command reads it.
package journal

import (
	"context"
	"time"

	"git.home.luguber.info/inful/stopwatchd/internal/events"
)

// Entry is one journaled stopwatch event.
type Entry struct {
	Seq         int64         `json:"seq"`
	Type        events.Type   `json:"type"`
	StopwatchID string        `json:"stopwatch_id"`
	ShortID     string        `json:"short_id"`
	Name        string        `json:"name"`
	State       string        `json:"state"`
	TotalTime   time.Duration `json:"total_time"`
	LapCount    int           `json:"lap_count"`
	At          time.Time     `json:"at"`
}

// Store persists and queries journal entries.
type Store interface {
	Append(ctx context.Context, evt events.StopwatchEvent) error
	// Since returns entries at or after t, oldest first.
	Since(ctx context.Context, t time.Time) ([]Entry, error)
	// ForStopwatch returns every entry of one stopwatch, oldest first.
	ForStopwatch(ctx context.Context, stopwatchID string) ([]Entry, error)
	Close() error
}
