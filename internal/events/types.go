package events

import "time"

// Type names a stopwatch lifecycle event.
type Type string

const (
	TypeStarted Type = "started"
	TypePaused  Type = "paused"
	TypePlayed  Type = "played"
	TypeLapped  Type = "lapped"
	TypeEnded   Type = "ended"
	TypeDeleted Type = "deleted"
)

// StopwatchEvent is published after a command changed a stopwatch. It carries
// the stopwatch as it was once the command finished.
type StopwatchEvent struct {
	Type        Type          `json:"type"`
	StopwatchID string        `json:"stopwatch_id"`
	ShortID     string        `json:"short_id"`
	Name        string        `json:"name"`
	State       string        `json:"state"`
	TotalTime   time.Duration `json:"total_time"`
	LapCount    int           `json:"lap_count"`
	At          time.Time     `json:"at"`
}
