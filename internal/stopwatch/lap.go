package stopwatch

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Lap is a single timed interval. Elapsed time is tracked against the clock's
// monotonic reading; WallStart is kept separately and only used for display.
type Lap struct {
	id      uuid.UUID
	ownerID uuid.UUID
	clock   clockwork.Clock

	wallStart   time.Time
	timerStart  time.Time
	accumulated time.Duration
	running     bool
	ended       bool
}

// NewStandbyLap creates a paused lap owned by ownerID.
func NewStandbyLap(clock clockwork.Clock, ownerID uuid.UUID) *Lap {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Lap{
		id:        uuid.New(),
		ownerID:   ownerID,
		clock:     clock,
		wallStart: clock.Now().Round(0),
	}
}

// StartLap creates a lap that is already running.
func StartLap(clock clockwork.Clock, ownerID uuid.UUID) *Lap {
	l := NewStandbyLap(clock, ownerID)
	l.Play()
	return l
}

// Play starts the timer. It reports true when the call was a no-op because
// the lap was already running or has ended.
func (l *Lap) Play() bool {
	if l.running || l.ended {
		return true
	}
	l.timerStart = l.clock.Now()
	l.running = true
	return false
}

// Pause banks the running interval. It reports whether the state changed.
func (l *Lap) Pause() bool {
	if !l.running || l.ended {
		return false
	}
	l.accumulated += l.clock.Since(l.timerStart)
	l.running = false
	return true
}

// End freezes the lap. It reports true when the lap had already ended.
func (l *Lap) End() bool {
	if l.ended {
		return true
	}
	l.Pause()
	l.ended = true
	return false
}

// TotalTime returns the accumulated time plus the live interval if running.
func (l *Lap) TotalTime() time.Duration {
	if l.running {
		return l.accumulated + l.clock.Since(l.timerStart)
	}
	return l.accumulated
}

func (l *Lap) ID() uuid.UUID        { return l.id }
func (l *Lap) OwnerID() uuid.UUID   { return l.ownerID }
func (l *Lap) WallStart() time.Time { return l.wallStart }
func (l *Lap) Running() bool        { return l.running }
func (l *Lap) Ended() bool          { return l.ended }

// Accumulated returns the banked duration, excluding any live interval.
func (l *Lap) Accumulated() time.Duration { return l.accumulated }

// Snapshot returns a point-in-time copy of the lap.
func (l *Lap) Snapshot() LapSnapshot {
	return LapSnapshot{
		ID:        l.id,
		OwnerID:   l.ownerID,
		WallStart: l.wallStart,
		TotalTime: l.TotalTime(),
		Running:   l.running,
		Ended:     l.ended,
	}
}

// LapSnapshot is an immutable view of a lap.
type LapSnapshot struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	WallStart time.Time
	TotalTime time.Duration
	Running   bool
	Ended     bool
}
