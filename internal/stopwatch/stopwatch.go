package stopwatch

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// State is the derived state of a stopwatch.
type State string

const (
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// Stopwatch owns an ordered sequence of finished laps and at most one open lap.
// A nil current lap means the stopwatch has been stopped for good.
type Stopwatch struct {
	id    uuid.UUID
	name  string
	clock clockwork.Clock

	finished []*Lap
	current  *Lap
}

// New creates a paused stopwatch with one standby lap.
func New(clock clockwork.Clock, name string) *Stopwatch {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	id := uuid.New()
	return &Stopwatch{
		id:      id,
		name:    name,
		clock:   clock,
		current: NewStandbyLap(clock, id),
	}
}

// Start creates a stopwatch whose first lap is already running.
func Start(clock clockwork.Clock, name string) *Stopwatch {
	sw := New(clock, name)
	sw.current.Play()
	return sw
}

func (sw *Stopwatch) ID() uuid.UUID { return sw.id }
func (sw *Stopwatch) Name() string  { return sw.name }

// ShortID is the lowercase hex rendering of the id's node portion.
func (sw *Stopwatch) ShortID() string { return NodeHex(sw.id) }

// Play resumes the current lap. It reports whether the state changed;
// an ended stopwatch is left untouched.
func (sw *Stopwatch) Play() bool {
	if sw.current == nil {
		return false
	}
	return !sw.current.Play()
}

// Pause pauses the current lap and reports whether the state changed.
func (sw *Stopwatch) Pause() bool {
	if sw.current == nil {
		return false
	}
	return sw.current.Pause()
}

// NewLap closes the current lap and opens a new one. On an ended stopwatch
// nothing happens and StateEnded is returned.
func (sw *Stopwatch) NewLap(startImmediately bool) State {
	if sw.current == nil {
		return StateEnded
	}
	sw.current.End()
	sw.finished = append(sw.finished, sw.current)
	if startImmediately {
		sw.current = StartLap(sw.clock, sw.id)
	} else {
		sw.current = NewStandbyLap(sw.clock, sw.id)
	}
	return sw.State()
}

// End stops the stopwatch permanently. It reports whether the state changed.
func (sw *Stopwatch) End() bool {
	if sw.current == nil {
		return false
	}
	sw.current.End()
	sw.finished = append(sw.finished, sw.current)
	sw.current = nil
	return true
}

// State derives the stopwatch state from the current lap.
func (sw *Stopwatch) State() State {
	switch {
	case sw.current == nil:
		return StateEnded
	case sw.current.Running():
		return StatePlaying
	default:
		return StatePaused
	}
}

// TotalTime sums every finished lap and the live current lap.
func (sw *Stopwatch) TotalTime() time.Duration {
	var total time.Duration
	for _, l := range sw.finished {
		total += l.Accumulated()
	}
	if sw.current != nil {
		total += sw.current.TotalTime()
	}
	return total
}

// LapCount counts finished laps plus the open one.
func (sw *Stopwatch) LapCount() int {
	n := len(sw.finished)
	if sw.current != nil {
		n++
	}
	return n
}

// FirstLap returns the oldest lap, which is the current lap when no lap has
// finished yet.
func (sw *Stopwatch) FirstLap() *Lap {
	if len(sw.finished) > 0 {
		return sw.finished[0]
	}
	return sw.current
}

// LastLap returns the open lap, or the last finished lap once ended.
func (sw *Stopwatch) LastLap() *Lap {
	if sw.current != nil {
		return sw.current
	}
	if len(sw.finished) > 0 {
		return sw.finished[len(sw.finished)-1]
	}
	return nil
}

// CurrentLap returns the open lap or nil.
func (sw *Stopwatch) CurrentLap() *Lap { return sw.current }

// AllLaps returns finished laps followed by the current lap, oldest first.
func (sw *Stopwatch) AllLaps() []*Lap {
	laps := make([]*Lap, 0, sw.LapCount())
	laps = append(laps, sw.finished...)
	if sw.current != nil {
		laps = append(laps, sw.current)
	}
	return laps
}

// StartTime is the wall clock start of the first lap.
func (sw *Stopwatch) StartTime() (time.Time, bool) {
	first := sw.FirstLap()
	if first == nil {
		return time.Time{}, false
	}
	return first.WallStart(), true
}

// MatchesIdentifier reports how, if at all, the identifier denotes this stopwatch.
func (sw *Stopwatch) MatchesIdentifier(ident *Identifier) (MatchKind, bool) {
	return ident.Match(sw.id, sw.name)
}

// Details returns a snapshot. Laps are only included when verbose is set.
func (sw *Stopwatch) Details(verbose bool) Details {
	d := Details{
		ID:        sw.id,
		ShortID:   sw.ShortID(),
		Name:      sw.name,
		State:     sw.State(),
		TotalTime: sw.TotalTime(),
		LapCount:  sw.LapCount(),
	}
	if start, ok := sw.StartTime(); ok {
		d.StartTime = &start
	}
	if verbose {
		laps := sw.AllLaps()
		d.Laps = make([]LapSnapshot, 0, len(laps))
		for _, l := range laps {
			d.Laps = append(d.Laps, l.Snapshot())
		}
	}
	return d
}

// Details is a point-in-time view of a stopwatch.
type Details struct {
	ID        uuid.UUID
	ShortID   string
	Name      string
	State     State
	StartTime *time.Time
	TotalTime time.Duration
	LapCount  int
	Laps      []LapSnapshot
}
